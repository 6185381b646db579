package launcher

import (
	"context"
	"sync"
)

// State is the lifecycle state of a launch.
type State string

const (
	StateIdle      State = "idle"
	StateLaunching State = "launching"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateStopped   State = "stopped"
)

// IsActive reports whether a session in this state occupies the slot.
func (s State) IsActive() bool { return s == StateLaunching || s == StateRunning }

// IsFinished reports whether the state is terminal.
func (s State) IsFinished() bool {
	return s == StateCompleted || s == StateFailed || s == StateStopped
}

// Session is one launch of a bundle. Its task runs until the game exits, the
// launch fails or Stop cancels it.
type Session struct {
	id       string
	bundleID string
	offline  bool
	cancel   context.CancelFunc
	done     chan struct{}

	mu    sync.Mutex
	state State
	err   error
}

func newSession(id, bundleID string, offline bool, cancel context.CancelFunc) *Session {
	return &Session{
		id:       id,
		bundleID: bundleID,
		offline:  offline,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateLaunching,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// BundleID returns the id of the launched bundle.
func (s *Session) BundleID() string { return s.bundleID }

// Offline reports whether the session runs as the offline user.
func (s *Session) Offline() bool { return s.offline }

// Done is closed when the session's task has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns why the session failed or was stopped. It is nil while the
// session is active and after a clean exit.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// advance moves an active session to next. It reports false once the
// session has finished.
func (s *Session) advance(next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsFinished() {
		return false
	}
	s.state = next
	return true
}

// finish records the outcome unless one was already recorded, which happens
// when Stop gets there first.
func (s *Session) finish(state State, err error) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsFinished() {
		s.state = state
		s.err = err
	}
	return s.state
}

// stop cancels the task and marks the session stopped.
func (s *Session) stop() {
	s.finish(StateStopped, context.Canceled)
	s.cancel()
}
