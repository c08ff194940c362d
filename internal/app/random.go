package app

import (
	"math/rand"
	"sync"
	"time"
)

// LockedRand is a *rand.Rand that is safe for concurrent use
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a LockedRand seeded with seed
func NewRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand returns a LockedRand seeded from the clock
func NewTimeSeededRand() *LockedRand {
	return NewRand(time.Now().UnixNano())
}

// Intn implements domain.Rand
func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Shuffle implements domain.Rand
func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
