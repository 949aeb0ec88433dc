// Package dedupe defines the interface for submission idempotency tracking.
//
// Citizens on flaky mobile connections retry POSTs; the guard remembers
// client-supplied submission tokens so a double-tap creates one request,
// not two.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard records seen submission tokens for at-most-once acceptance.
type Guard interface {
	// SeenAndRecord atomically checks whether token was seen and records
	// it if not. Returns true if token was already seen.
	SeenAndRecord(ctx context.Context, token string) bool

	// Forget removes a token, allowing the submission to be retried.
	// Used when a submission was recorded but failed to persist.
	Forget(ctx context.Context, token string)

	Size() int64
}

// inMemoryGuard implements Guard with a map plus a FIFO eviction queue.
// Oldest tokens age out first once maxSize is reached; a token that old
// no longer protects anything a citizen would meaningfully retry.
type inMemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates a new in-memory guard with configuration options.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: 50000,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.seen = make(map[string]struct{})
	return g
}

func (g *inMemoryGuard) SeenAndRecord(_ context.Context, token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[token]; exists {
		return true
	}

	if g.maxSize > 0 && len(g.seen) >= g.maxSize {
		g.evictOldest()
	}

	g.seen[token] = struct{}{}
	g.order = append(g.order, token)
	g.size.Add(1)
	return false
}

func (g *inMemoryGuard) Forget(_ context.Context, token string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[token]; !exists {
		return
	}
	delete(g.seen, token)
	g.size.Add(-1)
	// The stale order entry is skipped at eviction time.
}

// evictOldest drops order entries until one still-live token is removed.
// Must be called with g.mu held.
func (g *inMemoryGuard) evictOldest() {
	for len(g.order) > 0 {
		oldest := g.order[0]
		g.order = g.order[1:]
		if _, exists := g.seen[oldest]; exists {
			delete(g.seen, oldest)
			g.size.Add(-1)
			return
		}
	}
}

// Size returns the current number of tracked tokens.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
