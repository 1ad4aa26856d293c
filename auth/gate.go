package auth

import (
	"context"
	"sync"
)

// ReadyGate broadcasts the first session resolution. It resolves exactly
// once; waiters arriving later see the stored value immediately.
type ReadyGate struct {
	once  sync.Once
	done  chan struct{}
	value bool
}

func NewReadyGate() *ReadyGate {
	return &ReadyGate{done: make(chan struct{})}
}

// Resolve records v if the gate is still open and reports whether it did.
func (g *ReadyGate) Resolve(v bool) bool {
	resolved := false
	g.once.Do(func() {
		g.value = v
		close(g.done)
		resolved = true
	})
	return resolved
}

// Wait blocks until the gate resolves or ctx ends.
func (g *ReadyGate) Wait(ctx context.Context) (bool, error) {
	select {
	case <-g.done:
		return g.value, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Done is closed once the gate resolves.
func (g *ReadyGate) Done() <-chan struct{} {
	return g.done
}

// Value returns the resolved value and whether the gate has resolved.
func (g *ReadyGate) Value() (value bool, resolved bool) {
	select {
	case <-g.done:
		return g.value, true
	default:
		return false, false
	}
}
