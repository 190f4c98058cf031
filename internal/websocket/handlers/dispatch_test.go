package handlers

import (
	"context"
	"testing"

	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	require.Equal(t, []string{wire.EventAuthenticate, wire.EventGetStatus}, Events())
}

func TestDispatch_UnknownEvent(t *testing.T) {
	h := newHarness(t)
	conn := h.connect("sock1")

	res := Dispatch(context.Background(), h.deps, conn, "subscribe", map[string]any{"x": 1})
	require.False(t, res.HasReply())
	require.False(t, res.Disconnect())
}

type panicVerifier struct{}

func (panicVerifier) Verify(string) (string, error) { panic("verifier exploded") }

func TestDispatch_AuthenticatePanicFailsClosed(t *testing.T) {
	h := newHarness(t)
	h.deps = NewDeps(h.registry, panicVerifier{}, NewSessions(), h.observer, nil)
	conn := h.connect("sock1")

	res := h.authenticate(conn, "tok")
	require.Equal(t, wire.AuthenticationFailed(), res.Reply())
	require.True(t, res.Disconnect())
	require.Zero(t, h.registry.ConnectionCount())
}
