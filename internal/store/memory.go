package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"citycouncil/internal/domain"
)

// DefaultLockTimeout bounds how long Update waits for a busy room
const DefaultLockTimeout = 2 * time.Second

type memoryEntry struct {
	writer *semaphore.Weighted // one writer per room
	mu     sync.RWMutex        // guards room
	room   *domain.Room
}

// MemoryStore keeps rooms in process memory
type MemoryStore struct {
	rooms       map[string]*memoryEntry
	mu          sync.RWMutex
	lockTimeout time.Duration
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &MemoryStore{
		rooms:       make(map[string]*memoryEntry),
		lockTimeout: lockTimeout,
	}
}

// Create stores a new room
func (s *MemoryStore) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return domain.ErrRoomExists
	}
	s.rooms[room.ID] = &memoryEntry{
		writer: semaphore.NewWeighted(1),
		room:   room.Clone(),
	}
	return nil
}

// Get returns a snapshot of the room
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

// List returns snapshots of the newest rooms first
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = ListLimit(limit)

	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	rooms := make([]*domain.Room, 0, len(entries))
	for _, e := range entries {
		rooms = append(rooms, e.snapshot())
	}
	slices.SortFunc(rooms, func(a, b *domain.Room) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

// Update applies fn to a copy of the room and commits it if fn succeeds
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Room, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := e.writer.Acquire(lockCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrRoomBusy
	}
	defer e.writer.Release(1)

	work := e.snapshot()
	if err := fn(work); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.room = work
	e.mu.Unlock()

	return work.Clone(), nil
}

// Count returns the number of stored rooms
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Close implements RoomStore
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) entry(id string) (*memoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return e, nil
}

func (e *memoryEntry) snapshot() *domain.Room {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.room.Clone()
}

var _ RoomStore = (*MemoryStore)(nil)
