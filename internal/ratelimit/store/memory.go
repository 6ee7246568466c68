// Package store provides counter backends for the rate limiter.
package store

import (
	"context"
	"sync"
	"time"
)

// gcGrace keeps expired counters around briefly so a caller straddling
// a window boundary never resurrects a half-collected bucket.
const gcGrace = time.Minute

type counter struct {
	value     int64
	expiresAt time.Time
}

// InMemory keeps window counters in a mutex-guarded map. A janitor
// goroutine sweeps expired buckets so long-running processes do not
// accumulate stale keys.
type InMemory struct {
	mu       sync.Mutex
	counters map[string]*counter
}

func NewInMemory() *InMemory {
	return &InMemory{counters: make(map[string]*counter)}
}

func (s *InMemory) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		c = &counter{expiresAt: time.Now().Add(window + gcGrace)}
		s.counters[key] = c
	}
	c.value++
	return c.value, nil
}

// RunJanitor sweeps expired counters every interval until ctx is
// cancelled.
func (s *InMemory) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *InMemory) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.counters {
		if now.After(c.expiresAt) {
			delete(s.counters, key)
		}
	}
}
