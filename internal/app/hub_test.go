package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citycouncil/internal/catalog"
	"citycouncil/internal/domain"
)

// fakeClient records the room updates it receives
type fakeClient struct {
	playerID string
	updates  chan *RoomUpdate

	mu     sync.Mutex
	closed bool
}

func newFakeClient(playerID string) *fakeClient {
	return &fakeClient{playerID: playerID, updates: make(chan *RoomUpdate, 16)}
}

func (c *fakeClient) Send(message interface{}) error {
	if update, ok := message.(*RoomUpdate); ok {
		c.updates <- update
	}
	return nil
}

func (c *fakeClient) GetPlayerID() string { return c.playerID }

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) next(t *testing.T) *RoomUpdate {
	t.Helper()
	select {
	case u := <-c.updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room update")
		return nil
	}
}

func testRoom(t *testing.T, revision int64) *domain.Room {
	t.Helper()
	host := domain.NewPlayer("host", "Hana", "ideology_capitalist", fixedNow)
	room := domain.NewRoom("ROOM01", host, domain.DefaultSettings(), fixedNow)
	require.NoError(t, room.AddPlayer(domain.NewPlayer("bob", "Bob", "ideology_socialist", fixedNow)))
	room.Revision = revision
	return room
}

func TestSession_BroadcastRendersPerClient(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	session := NewSession("ROOM01", cat, discardLogger())
	defer session.Close()

	bob := newFakeClient("bob")
	spectator := newFakeClient("")
	session.RegisterClient(bob)
	session.RegisterClient(spectator)
	assert.Equal(t, 2, session.ClientCount())

	session.Publish(domain.NewEvent(domain.EventPlayerJoined, testRoom(t, 1), "bob"))

	got := bob.next(t)
	assert.Equal(t, domain.EventPlayerJoined, got.Event)
	assert.Equal(t, "bob", got.ActorID)
	require.NotNil(t, got.View.Me)
	assert.Equal(t, "ideology_socialist", got.View.Me.IdeologyID)
	assert.Empty(t, got.View.Players[0].IdeologyID)

	watched := spectator.next(t)
	assert.Nil(t, watched.View.Me)
	for _, p := range watched.View.Players {
		assert.Empty(t, p.IdeologyID)
	}
}

func TestSession_SkipsStaleRevisions(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	session := NewSession("ROOM01", cat, discardLogger())
	defer session.Close()

	client := newFakeClient("host")
	session.RegisterClient(client)

	session.Publish(domain.NewEvent(domain.EventReadyChanged, testRoom(t, 3), "host"))
	session.Publish(domain.NewEvent(domain.EventPlayerJoined, testRoom(t, 2), "bob"))
	session.Publish(domain.NewEvent(domain.EventPlayerLeft, testRoom(t, 4), "bob"))

	assert.Equal(t, int64(3), client.next(t).View.Room.Revision)
	assert.Equal(t, int64(4), client.next(t).View.Room.Revision)
}

func TestSession_CloseDisconnectsClients(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	session := NewSession("ROOM01", cat, discardLogger())

	client := newFakeClient("host")
	session.RegisterClient(client)
	session.Close()
	session.Close()

	assert.True(t, client.isClosed())
	assert.Zero(t, session.ClientCount())

	// Publishing after close is a no-op
	session.Publish(domain.NewEvent(domain.EventReadyChanged, testRoom(t, 1), "host"))
}

func TestHub_SessionLifecycle(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())
	defer hub.Close()

	s1 := hub.Session("ROOM01")
	assert.Same(t, s1, hub.Session("ROOM01"))
	hub.Session("ROOM02")
	assert.Equal(t, 2, hub.SessionCount())

	client := newFakeClient("host")
	s1.RegisterClient(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Publish(domain.NewEvent(domain.EventReadyChanged, testRoom(t, 1), "host"))
	assert.Equal(t, "ROOM01", client.next(t).RoomID)

	// ROOM02 is idle, ROOM01 still has a client
	closed := hub.cleanupIdleSessions(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 1, closed)
	assert.Equal(t, 1, hub.SessionCount())

	s1.UnregisterClient(client)
	closed = hub.cleanupIdleSessions(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 1, closed)
	assert.Zero(t, hub.SessionCount())
}

func TestHub_PublishWithoutSession(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())
	defer hub.Close()

	hub.Publish(domain.NewEvent(domain.EventRoomCreated, testRoom(t, 1), "host"))
	assert.Zero(t, hub.SessionCount())
}

func TestHub_CloseClosesSessions(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())

	client := newFakeClient("host")
	hub.Session("ROOM01").RegisterClient(client)
	hub.Close()
	hub.Close()

	assert.True(t, client.isClosed())
	assert.Zero(t, hub.SessionCount())
}

func TestSession_RefusesClientsAfterClose(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	session := NewSession("ROOM01", cat, discardLogger())
	session.Close()

	client := newFakeClient("host")
	assert.False(t, session.RegisterClient(client))
	assert.Zero(t, session.ClientCount())
}

func TestHub_AttachReplacesClosedSession(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())
	defer hub.Close()

	stale := hub.Session("ROOM01")
	stale.Close()

	client := newFakeClient("host")
	session, ok := hub.Attach("ROOM01", client)
	require.True(t, ok)
	assert.NotSame(t, stale, session)
	assert.Same(t, session, hub.Session("ROOM01"))
	assert.Equal(t, 1, session.ClientCount())

	// An attached client keeps the session out of the idle sweep
	assert.Zero(t, hub.cleanupIdleSessions(time.Now().Add(2*time.Hour)))

	hub.Publish(domain.NewEvent(domain.EventReadyChanged, testRoom(t, 1), "host"))
	assert.Equal(t, "ROOM01", client.next(t).RoomID)
}

func TestHub_AttachAfterClose(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())
	hub.Close()

	session, ok := hub.Attach("ROOM01", newFakeClient("host"))
	assert.False(t, ok)
	assert.Nil(t, session)
	assert.Zero(t, hub.SessionCount())
}

// A change committed after a client attaches but before it reads the room
// must still reach the client.
func TestHub_AttachThenReadSeesInterleavedChange(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Default()
	require.NoError(t, err)
	hub := NewHub(cat, time.Hour, discardLogger())
	defer hub.Close()

	f := newFixture(t, func(d *ServiceDeps) { d.Publisher = hub })
	created, err := f.svc.CreateRoom(ctx, "Hana")
	require.NoError(t, err)
	bob, err := f.svc.JoinRoom(ctx, created.RoomID, "Bob")
	require.NoError(t, err)

	client := newFakeClient(created.PlayerID)
	_, ok := hub.Attach(created.RoomID, client)
	require.True(t, ok)

	ready, err := f.svc.ToggleReady(ctx, created.RoomID, bob.PlayerID)
	require.NoError(t, err)
	require.True(t, ready)

	view, err := f.svc.GetRoomView(ctx, created.RoomID, created.PlayerID)
	require.NoError(t, err)

	update := client.next(t)
	assert.Equal(t, domain.EventReadyChanged, update.Event)
	assert.Equal(t, view.Room.Revision, update.View.Room.Revision)
	require.Len(t, update.View.Players, 2)
	assert.True(t, update.View.Players[1].IsReady)
}

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateRoomCode(DefaultRoomCodeLength)
		require.Len(t, code, DefaultRoomCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(RoomCodeChars, r), "unexpected %q", r)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90)
	assert.Len(t, GenerateRoomCode(0), DefaultRoomCodeLength)
}

func TestLockedRand_IsDeterministic(t *testing.T) {
	a, b := NewRand(99), NewRand(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}

	x := []int{1, 2, 3, 4, 5}
	y := []int{1, 2, 3, 4, 5}
	a.Shuffle(len(x), func(i, j int) { x[i], x[j] = x[j], x[i] })
	b.Shuffle(len(y), func(i, j int) { y[i], y[j] = y[j], y[i] })
	assert.Equal(t, x, y)
}
