package service

import "sync"

// State is the lifecycle phase of a running transport.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stateBox guards a State. Transitions only move forward.
type stateBox struct {
	mu    sync.Mutex
	state State
}

func (b *stateBox) get() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// advance moves to next when it is later than the current state and reports
// whether it did.
func (b *stateBox) advance(next State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if next <= b.state {
		return false
	}
	b.state = next
	return true
}

// start moves from Created to Running. It fails once shutdown has begun.
func (b *stateBox) start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateCreated {
		return false
	}
	b.state = StateRunning
	return true
}
