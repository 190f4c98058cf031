package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/crypto"
	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/stretchr/testify/require"
)

// fakeVerifier maps tokens to user ids; unknown tokens are invalid. Tokens in
// expired fail with ErrExpiredToken.
type fakeVerifier struct {
	mu      sync.Mutex
	users   map[string]string
	expired map[string]bool
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{users: map[string]string{}, expired: map[string]bool{}}
}

func (f *fakeVerifier) issue(token, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[token] = userID
}

func (f *fakeVerifier) expire(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[token] = true
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired[token] {
		return "", crypto.ErrExpiredToken
	}
	userID, ok := f.users[token]
	if !ok {
		return "", crypto.ErrInvalidToken
	}
	return userID, nil
}

type fakeObserver struct {
	mu          sync.Mutex
	auth        map[string]int
	status      map[string]int
	disconnects int
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{auth: map[string]int{}, status: map[string]int{}}
}

func (f *fakeObserver) Authentication(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth[result]++
}

func (f *fakeObserver) StatusQuery(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[result]++
}

func (f *fakeObserver) Disconnected() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

// panicRegistry wraps a registry and panics on IsOnline.
type panicRegistry struct {
	*presence.Registry
}

func (panicRegistry) IsOnline(string) bool { panic("lookup exploded") }

type harness struct {
	t        *testing.T
	deps     Deps
	registry *presence.Registry
	verifier *fakeVerifier
	observer *fakeObserver
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		registry: presence.NewRegistry(),
		verifier: newFakeVerifier(),
		observer: newFakeObserver(),
		now:      time.UnixMilli(1_700_000_000_000),
	}
	h.deps = NewDeps(h.registry, h.verifier, NewSessions(), h.observer, func() time.Time { return h.now })
	return h
}

func (h *harness) connect(id string) ConnContext {
	conn := NewConnContext(presence.ConnID(id), "127.0.0.1:1")
	res := Connect(context.Background(), h.deps, conn)
	require.False(h.t, res.HasReply())
	return conn
}

func (h *harness) authenticate(conn ConnContext, token string) EventResult {
	return Dispatch(context.Background(), h.deps, conn, wire.EventAuthenticate, map[string]any{"token": token})
}

func (h *harness) getStatus(conn ConnContext, payload any) wire.StatusReply {
	h.t.Helper()
	res := Dispatch(context.Background(), h.deps, conn, wire.EventGetStatus, payload)
	require.True(h.t, res.HasReply())
	require.Equal(h.t, wire.EventGetStatusReturn, res.Event())
	require.False(h.t, res.Disconnect())
	reply, ok := res.Reply().(wire.StatusReply)
	require.True(h.t, ok)
	return reply
}

func (h *harness) disconnect(conn ConnContext) {
	Disconnect(context.Background(), h.deps, conn, "transport close")
}

func (h *harness) mustAuthenticate(conn ConnContext, token, userID string) {
	h.t.Helper()
	h.verifier.issue(token, userID)
	res := h.authenticate(conn, token)
	require.Equal(h.t, wire.EventAuthenticated, res.Event())
	require.Equal(h.t, wire.AuthenticatedOK(), res.Reply())
	require.False(h.t, res.Disconnect())
}
