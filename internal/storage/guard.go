package storage

import (
	"context"
	"sync"
)

// AddGuard serializes additions per content hash. A holder blocks every
// other addition of the same hash until it releases, and the cleanup sweep
// uses IsHeld to skip blobs that are mid-addition.
type AddGuard struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewAddGuard() *AddGuard {
	return &AddGuard{held: make(map[string]chan struct{})}
}

// Acquire takes the per-hash lock, waiting for the current holder if any.
// The returned release function is idempotent and must be called on every
// exit path.
func (g *AddGuard) Acquire(ctx context.Context, hash string) (func(), error) {
	for {
		g.mu.Lock()
		ch, taken := g.held[hash]
		if !taken {
			done := make(chan struct{})
			g.held[hash] = done
			g.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					g.mu.Lock()
					delete(g.held, hash)
					g.mu.Unlock()
					close(done)
				})
			}, nil
		}
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

// IsHeld reports whether an addition currently holds the hash.
func (g *AddGuard) IsHeld(hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, taken := g.held[hash]
	return taken
}
