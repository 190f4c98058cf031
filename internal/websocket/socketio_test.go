package websocket

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/crypto"
	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
	"github.com/Kvazar-213452/Voxta-mobile/internal/websocket/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	client "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

type testServer struct {
	url      string
	jwt      *crypto.JWTManager
	registry *presence.Registry
	sessions *handlers.Sessions
	sio      *SocketIOServer
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithOptions(t, Options{PingInterval: time.Second, PingTimeout: time.Second})
}

func newTestServerWithOptions(t *testing.T, o Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager, err := crypto.NewJWTManager("integration-secret")
	require.NoError(t, err)
	registry := presence.NewRegistry()
	sessions := handlers.NewSessions()

	deps := handlers.NewDeps(registry, jwtManager, sessions, nil, time.Now)
	sio := NewSocketIOServer(deps, o)

	router := gin.New()
	sio.Mount(router)
	httpServer := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = sio.Close()
		httpServer.Close()
	})

	return &testServer{
		url:      httpServer.URL,
		jwt:      jwtManager,
		registry: registry,
		sessions: sessions,
		sio:      sio,
	}
}

// requireDrained waits until the server holds no socket, session or registry
// entry.
func (ts *testServer) requireDrained(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ts.sio.ConnectedSockets() == 0 &&
			ts.sessions.Len() == 0 &&
			ts.registry.ConnectionCount() == 0 &&
			ts.registry.OnlineCount() == 0
	}, 10*time.Second, 20*time.Millisecond)
}

type testClient struct {
	sock   *client.Socket
	auth   chan map[string]any
	status chan map[string]any
}

func (ts *testServer) dial(t *testing.T) *testClient {
	return ts.dialWith(t, func(opts client.OptionsInterface) {
		opts.SetTransports(types.NewSet(client.Polling, client.WebSocket))
	})
}

func (ts *testServer) dialWith(t *testing.T, configure func(client.OptionsInterface)) *testClient {
	t.Helper()

	opts := client.DefaultOptions()
	opts.SetPath("/socket.io")
	opts.SetReconnection(false)
	configure(opts)

	sock, err := client.Connect(ts.url, opts)
	require.NoError(t, err)
	t.Cleanup(func() { sock.Disconnect() })

	tc := &testClient{
		sock:   sock,
		auth:   make(chan map[string]any, 4),
		status: make(chan map[string]any, 4),
	}
	forward := func(ch chan map[string]any) func(...any) {
		return func(args ...any) {
			if len(args) == 0 {
				return
			}
			if m, ok := args[0].(map[string]any); ok {
				ch <- m
			}
		}
	}
	sock.On(types.EventName(wire.EventAuthenticated), forward(tc.auth))
	sock.On(types.EventName(wire.EventGetStatusReturn), forward(tc.status))

	require.Eventually(t, sock.Connected, 10*time.Second, 20*time.Millisecond)
	return tc
}

func receive(t *testing.T, ch chan map[string]any) map[string]any {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for reply")
		return nil
	}
}

func (ts *testServer) authenticate(t *testing.T, c *testClient, userID string) {
	t.Helper()
	token, err := ts.jwt.CreateToken(userID, time.Hour)
	require.NoError(t, err)

	c.sock.Emit(wire.EventAuthenticate, map[string]any{"token": token})
	reply := receive(t, c.auth)
	require.EqualValues(t, wire.CodeSuccess, reply["code"])
	require.Equal(t, wire.StatusOnline, reply["status"])
}

func TestSocketIO_PresenceRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	a := ts.dial(t)
	b := ts.dial(t)

	ts.authenticate(t, a, "u1")
	ts.authenticate(t, b, "u2")

	b.sock.Emit(wire.EventGetStatus, map[string]any{"id_user": "u1", "type": "friend"})
	reply := receive(t, b.status)
	require.EqualValues(t, wire.CodeSuccess, reply["code"])
	require.Equal(t, wire.StatusOnline, reply["status"])
	require.Equal(t, "friend", reply["type"])

	a.sock.Disconnect()
	require.Eventually(t, func() bool { return !ts.registry.IsOnline("u1") }, 10*time.Second, 20*time.Millisecond)

	b.sock.Emit(wire.EventGetStatus, map[string]any{"id_user": "u1", "type": "friend"})
	reply = receive(t, b.status)
	require.Equal(t, wire.StatusOffline, reply["status"])
}

func TestSocketIO_BadTokenDisconnects(t *testing.T) {
	cases := []struct {
		name       string
		transports func(client.OptionsInterface)
	}{
		{"polling", func(o client.OptionsInterface) { o.SetTransports(types.NewSet(client.Polling)) }},
		{"websocket", func(o client.OptionsInterface) { o.SetTransports(types.NewSet(client.WebSocket)) }},
		{"upgrade", func(o client.OptionsInterface) { o.SetTransports(types.NewSet(client.Polling, client.WebSocket)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			c := ts.dialWith(t, tc.transports)
			require.Equal(t, 1, ts.sio.ConnectedSockets())

			c.sock.Emit(wire.EventAuthenticate, map[string]any{"token": "not-a-jwt"})
			reply := receive(t, c.auth)
			require.EqualValues(t, wire.CodeFailure, reply["code"])
			require.Equal(t, wire.ErrAuthenticationFailed, reply["error"])

			require.Eventually(t, func() bool { return !c.sock.Connected() }, 10*time.Second, 20*time.Millisecond)
			ts.requireDrained(t)
		})
	}
}

func TestSocketIO_AckReplyIsNotEmitted(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)
	ts.authenticate(t, c, "u1")

	acked := make(chan map[string]any, 1)
	c.sock.EmitWithAck(wire.EventGetStatus, map[string]any{"id_user": "u1", "type": "friend"})(func(args []any, err error) {
		if err == nil && len(args) > 0 {
			if m, ok := args[0].(map[string]any); ok {
				acked <- m
			}
		}
	})
	reply := receive(t, acked)
	require.Equal(t, wire.StatusOnline, reply["status"])

	// A plain emit afterwards is the next thing on the event channel.
	c.sock.Emit(wire.EventGetStatus, map[string]any{"id_user": "u1", "type": "plain"})
	reply = receive(t, c.status)
	require.Equal(t, "plain", reply["type"])
}

func TestSocketIO_StatusBeforeAuth(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	c.sock.Emit(wire.EventGetStatus, map[string]any{"id_user": "u1", "type": 3})
	reply := receive(t, c.status)
	require.Equal(t, wire.ErrNotAuthenticated, reply["error"])
	require.EqualValues(t, 3, reply["type"])
}

// pollingConn speaks raw engine.io v4 long-polling so the test controls when
// pongs are sent.
type pollingConn struct {
	t    *testing.T
	base string
	sid  string
}

const packetSeparator = "\x1e"

func openPolling(t *testing.T, serverURL string) *pollingConn {
	t.Helper()
	base := serverURL + "/socket.io/?EIO=4&transport=polling"

	resp, err := http.Get(base)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(string(body), "0"), "unexpected handshake %q", body)

	var open struct {
		SID string `json:"sid"`
	}
	require.NoError(t, json.Unmarshal(body[1:], &open))
	require.NotEmpty(t, open.SID)

	return &pollingConn{t: t, base: base, sid: open.SID}
}

func (p *pollingConn) endpoint() string {
	return p.base + "&sid=" + url.QueryEscape(p.sid)
}

func (p *pollingConn) send(packet string) {
	p.t.Helper()
	resp, err := http.Post(p.endpoint(), "text/plain;charset=UTF-8", strings.NewReader(packet))
	require.NoError(p.t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(p.t, http.StatusOK, resp.StatusCode)
}

// await polls until a packet starting with prefix arrives, answering pings
// along the way.
func (p *pollingConn) await(prefix string) string {
	p.t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(p.endpoint())
		require.NoError(p.t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(p.t, err)
		require.Equal(p.t, http.StatusOK, resp.StatusCode)

		var found string
		for _, packet := range strings.Split(string(body), packetSeparator) {
			switch {
			case packet == "2":
				p.send("3")
			case found == "" && strings.HasPrefix(packet, prefix):
				found = packet
			}
		}
		if found != "" {
			return found
		}
	}
	p.t.Fatalf("timed out waiting for %q", prefix)
	return ""
}

func TestSocketIO_PingTimeoutRunsDisconnect(t *testing.T) {
	ts := newTestServerWithOptions(t, Options{
		PingInterval: 300 * time.Millisecond,
		PingTimeout:  200 * time.Millisecond,
	})

	p := openPolling(t, ts.url)
	p.send("40")
	p.await("40")
	require.Eventually(t, func() bool { return ts.sio.ConnectedSockets() == 1 }, 5*time.Second, 10*time.Millisecond)

	token, err := ts.jwt.CreateToken("u1", time.Hour)
	require.NoError(t, err)
	frame, err := json.Marshal([]any{wire.EventAuthenticate, map[string]any{"token": token}})
	require.NoError(t, err)
	p.send("42" + string(frame))

	reply := p.await(`42["` + wire.EventAuthenticated + `"`)
	var args []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(reply, "42")), &args))
	require.Len(t, args, 2)
	var auth map[string]any
	require.NoError(t, json.Unmarshal(args[1], &auth))
	require.EqualValues(t, wire.CodeSuccess, auth["code"])
	require.True(t, ts.registry.IsOnline("u1"))

	// No more polls and no pongs: the server has to notice on its own.
	ts.requireDrained(t)
	require.False(t, ts.registry.IsOnline("u1"))
}
