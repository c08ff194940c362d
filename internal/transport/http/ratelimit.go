package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
	defaultBurst      = 20
)

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands out one token bucket per client key
type ClientLimiter struct {
	clients map[string]*clientLimit
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
}

// NewClientLimiter creates a limiter allowing rps requests per second with
// the given burst for each client. A non-positive rps disables limiting.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	l := &ClientLimiter{
		clients: make(map[string]*clientLimit),
		limit:   limit,
		burst:   burst,
		done:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow reports whether key may make a request now
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimit{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = time.Now()
	l.mu.Unlock()

	return c.limiter.Allow()
}

// Stop ends the background sweep
func (l *ClientLimiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *ClientLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

func (l *ClientLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
		}
	}
}
