package websocket

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/websocket/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"
)

// Transport defaults.
const (
	DefaultPath           = "/socket.io/"
	DefaultUpgradeTimeout = 10 * time.Second
	DefaultPingInterval   = 25 * time.Second
	DefaultPingTimeout    = 5 * time.Second
)

// Options configures the Socket.IO transport.
type Options struct {
	// Path is the HTTP path the engine.io endpoint is mounted on.
	Path string
	// UpgradeTimeout bounds how long a polling client may take to finish the
	// websocket upgrade.
	UpgradeTimeout time.Duration
	// PingInterval is how often the server pings each client.
	//
	// A client that misses a pong for PingTimeout is dropped, and the drop
	// runs the normal disconnect path.
	PingInterval time.Duration
	PingTimeout  time.Duration
}

// DefaultOptions returns the transport settings used when configuration is
// silent.
func DefaultOptions() Options {
	return Options{
		Path:           DefaultPath,
		UpgradeTimeout: DefaultUpgradeTimeout,
		PingInterval:   DefaultPingInterval,
		PingTimeout:    DefaultPingTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Path == "" {
		o.Path = d.Path
	}
	if o.UpgradeTimeout <= 0 {
		o.UpgradeTimeout = d.UpgradeTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = d.PingTimeout
	}
	return o
}

// SocketIOServer wraps the Socket.IO server for the presence directory.
type SocketIOServer struct {
	server  *socket.Server
	deps    handlers.Deps
	opts    Options
	sockets sync.Map // socket id -> *socket.Socket
}

// NewSocketIOServer creates a Socket.IO server whose events are handled by the
// presence lifecycle handlers.
func NewSocketIOServer(deps handlers.Deps, o Options) *SocketIOServer {
	o = o.withDefaults()

	opts := socket.DefaultServerOptions()
	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})
	opts.SetPingInterval(o.PingInterval)
	opts.SetPingTimeout(o.PingTimeout)
	opts.SetUpgradeTimeout(o.UpgradeTimeout)
	opts.SetPath(strings.TrimSuffix(o.Path, "/"))

	s := &SocketIOServer{
		server: socket.NewServer(nil, opts),
		deps:   deps,
		opts:   o,
	}

	s.server.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.handleConnection(client)
	})

	return s
}

// Path returns the mount path without a trailing slash.
func (s *SocketIOServer) Path() string {
	return strings.TrimSuffix(s.opts.Path, "/")
}

// ConnectedSockets returns the number of live sockets.
func (s *SocketIOServer) ConnectedSockets() int {
	n := 0
	s.sockets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func getFirstAnyWithAck(data []any) (any, func(...any)) {
	var ack func(...any)
	if len(data) == 0 {
		return nil, nil
	}
	if cb, ok := data[len(data)-1].(func(...any)); ok {
		ack = cb
		data = data[:len(data)-1]
	} else if cb, ok := data[len(data)-1].(socket.Ack); ok {
		ack = func(args ...any) {
			cb(args, nil)
		}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ack
	}
	return data[0], ack
}

// HandleSocketIO creates a Gin handler for Socket.IO.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Status(http.StatusOK)
			return
		}

		logger.Tracef("Socket.IO request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Mount registers the Socket.IO endpoint on router.
func (s *SocketIOServer) Mount(router gin.IRoutes) {
	h := s.HandleSocketIO()
	router.Any(s.Path(), h)
	router.Any(s.Path()+"/*any", h)
}

// Close shuts down the Socket.IO server. Every open socket is disconnected
// and goes through the disconnect handler.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}
