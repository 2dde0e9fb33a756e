package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// guard serializes Close against in-flight operations.
type guard struct {
	mu     sync.RWMutex
	closed atomic.Bool
}

// enter returns a release func, or an error when ctx is done or the cache is
// closed. Callers must invoke release exactly once on success.
func (g *guard) enter(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.closed.Load() {
		return nil, ErrClosed
	}
	g.mu.RLock()
	if g.closed.Load() {
		g.mu.RUnlock()
		return nil, ErrClosed
	}
	return g.mu.RUnlock, nil
}

// shut runs fn once under the write lock. It reports whether fn ran.
func (g *guard) shut(fn func()) bool {
	if g.closed.Load() {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Swap(true) {
		return false
	}
	fn()
	return true
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
