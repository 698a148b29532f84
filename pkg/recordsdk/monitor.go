package recordsdk

import "sync"

// SessionState is the client-side session lifecycle.
//
//	Active --(unauthorized)--------> LoggedOut
//	Active --(session superseded)--> Locked --(Acknowledge)--> LoggedOut
//
// Locked is deliberately non-destructive: the session keeps everything it
// holds so the user can copy unsaved work, and nothing but an explicit
// Acknowledge call moves it on.
type SessionState int

const (
	StateActive SessionState = iota
	StateLocked
	StateLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateLocked:
		return "locked"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// SessionEvent is delivered to registered observers on every state change.
type SessionEvent struct {
	From SessionState
	To   SessionState
	// Cause is the APIError that triggered the transition; nil for
	// Acknowledge and Logout.
	Cause *APIError
}

// Observer receives session state changes. Observers are called
// synchronously in registration order; they must not block.
type Observer func(SessionEvent)

// sessionMonitor owns the state machine. It lives inside Session and is fed
// by every authenticated call, so failures cannot bypass it. Observer
// registration replaces any ambient broadcast mechanism: the signal path is
// typed and local to the wrapper.
type sessionMonitor struct {
	mu        sync.Mutex
	state     SessionState
	observers []Observer
}

func newSessionMonitor() *sessionMonitor {
	return &sessionMonitor{state: StateActive}
}

func (m *sessionMonitor) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *sessionMonitor) Subscribe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// observeFailure classifies an auth failure and transitions the state
// machine. Returns true when the caller should clear its credentials
// (unauthorized path); a superseded session must leave them intact.
func (m *sessionMonitor) observeFailure(apiErr *APIError) (clearCredentials bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Terminal states absorb further failures: nothing may auto-transition
	// out of Locked, and LoggedOut is final.
	if m.state != StateActive {
		return false
	}

	if apiErr.IsSessionReplaced() {
		m.transitionLocked(StateLocked, apiErr)
		return false
	}

	m.transitionLocked(StateLoggedOut, apiErr)
	return true
}

// acknowledge performs the user-confirmed destructive transition out of
// Locked. Returns true when the caller should now clear its credentials.
func (m *sessionMonitor) acknowledge() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLocked {
		return false
	}
	m.transitionLocked(StateLoggedOut, nil)
	return true
}

// loggedOut marks a voluntary logout.
func (m *sessionMonitor) loggedOut() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLoggedOut {
		return
	}
	m.transitionLocked(StateLoggedOut, nil)
}

// transitionLocked must be called with mu held.
func (m *sessionMonitor) transitionLocked(to SessionState, cause *APIError) {
	event := SessionEvent{From: m.state, To: to, Cause: cause}
	m.state = to
	for _, fn := range m.observers {
		fn(event)
	}
}
