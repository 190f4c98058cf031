package handlers

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
)

// State is the lifecycle state of one connection.
type State int

const (
	// StateConnected is the initial, unauthenticated state.
	StateConnected State = iota
	// StateAuthenticated means the connection verified a token at least once.
	StateAuthenticated
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionAttributes is the typed per-connection side table.
//
// mu serializes the state transitions of one connection: authenticate holds it
// across the registry write so a disconnect racing on the same connection
// cannot leave a registration behind.
type SessionAttributes struct {
	mu              sync.Mutex
	state           State
	userID          string
	token           string
	connectedAt     time.Time
	authenticatedAt time.Time
}

// Snapshot returns a consistent copy of the mutable attributes.
func (a *SessionAttributes) Snapshot() (state State, userID, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.userID, a.token
}

// Authenticated reports whether the connection is in StateAuthenticated.
func (a *SessionAttributes) Authenticated() bool {
	state, _, _ := a.Snapshot()
	return state == StateAuthenticated
}

// Sessions maps connection ids to their attributes.
type Sessions struct {
	m     sync.Map // presence.ConnID -> *SessionAttributes
	count atomic.Int64
}

// NewSessions returns an empty attribute store.
func NewSessions() *Sessions {
	return &Sessions{}
}

// Open creates the attributes for a new connection. Opening an id that is
// already open returns the existing attributes.
func (s *Sessions) Open(conn presence.ConnID, now time.Time) *SessionAttributes {
	attrs := &SessionAttributes{state: StateConnected, connectedAt: now}
	actual, loaded := s.m.LoadOrStore(conn, attrs)
	if !loaded {
		s.count.Add(1)
	}
	return actual.(*SessionAttributes)
}

// Get returns the attributes of an open connection.
func (s *Sessions) Get(conn presence.ConnID) (*SessionAttributes, bool) {
	v, ok := s.m.Load(conn)
	if !ok {
		return nil, false
	}
	return v.(*SessionAttributes), true
}

// Close removes the attributes of conn and marks them StateClosed. It returns
// the attributes and the state they were in before closing; ok is false when
// conn was not open.
func (s *Sessions) Close(conn presence.ConnID) (attrs *SessionAttributes, prev State, ok bool) {
	v, ok := s.m.LoadAndDelete(conn)
	if !ok {
		return nil, StateClosed, false
	}
	s.count.Add(-1)

	attrs = v.(*SessionAttributes)
	attrs.mu.Lock()
	prev = attrs.state
	attrs.state = StateClosed
	attrs.mu.Unlock()
	return attrs, prev, true
}

// Len returns the number of open connections.
func (s *Sessions) Len() int {
	return int(s.count.Load())
}
