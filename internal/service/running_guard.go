package service

import (
	"context"
	"slices"
	"sync"
)

// ── In-flight syncs ────────────────────────────────────────

// syncGuard admits one sync per file key. Each admitted key holds a done
// channel that Release closes, so shutdown can wait on whatever is in flight.
type syncGuard struct {
	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// Acquire admits a sync of fileKey unless one is already in flight.
func (g *syncGuard) Acquire(fileKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[fileKey]; busy {
		return false
	}
	if g.inflight == nil {
		g.inflight = make(map[string]chan struct{})
	}
	g.inflight[fileKey] = make(chan struct{})
	return true
}

// Release ends the sync of fileKey admitted by Acquire.
func (g *syncGuard) Release(fileKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if done, ok := g.inflight[fileKey]; ok {
		close(done)
		delete(g.inflight, fileKey)
	}
}

// Running lists the file keys with a sync in flight, sorted.
func (g *syncGuard) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.inflight))
	for k := range g.inflight {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Wait blocks until the syncs in flight at call time finish or ctx ends.
func (g *syncGuard) Wait(ctx context.Context) {
	g.mu.Lock()
	pending := make([]chan struct{}, 0, len(g.inflight))
	for _, done := range g.inflight {
		pending = append(pending, done)
	}
	g.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}
