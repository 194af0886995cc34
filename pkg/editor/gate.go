package editor

import (
	"sync"
	"sync/atomic"
)

// Gate is the autosave lock of a session. It starts locked and is released
// exactly once.
type Gate struct {
	released atomic.Bool
	once     sync.Once
	done     chan struct{}
}

// NewGate returns a locked gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Locked reports whether autosave writes are still refused.
func (g *Gate) Locked() bool {
	return !g.released.Load()
}

// Release unlocks the gate. Only the first call has an effect; it reports
// whether this call released the gate.
func (g *Gate) Release() bool {
	released := false
	g.once.Do(func() {
		g.released.Store(true)
		close(g.done)
		released = true
	})
	return released
}

// Done is closed once the gate is released.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}
