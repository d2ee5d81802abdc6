// Package loader tags asynchronous loads so that only the newest request
// for a given key may commit its result.
package loader

import (
	"log/slog"
	"sync"
)

// Ticket identifies one in-flight load.
type Ticket struct {
	Key        string
	Generation uint64
}

// Guard tracks the newest generation per key.
type Guard struct {
	latest map[string]uint64
	mu     sync.Mutex
}

// NewGuard creates a guard with no loads in flight.
func NewGuard() *Guard {
	return &Guard{latest: make(map[string]uint64)}
}

// Begin starts a new load for key and supersedes any earlier ticket for it.
func (g *Guard) Begin(key string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.latest[key]++
	return Ticket{Key: key, Generation: g.latest[key]}
}

// Current reports whether t is still the newest ticket for its key.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[t.Key] == t.Generation
}

// Commit runs fn only if t is current and reports whether it ran. The guard
// stays locked while fn runs, so fn must not call back into the guard.
func (g *Guard) Commit(t Ticket, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.latest[t.Key] != t.Generation {
		slog.Debug("dropping stale load result",
			"key", t.Key,
			"generation", t.Generation,
			"latest", g.latest[t.Key])
		return false
	}
	fn()
	return true
}

// Cancel invalidates every outstanding ticket for key.
func (g *Guard) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
}
