package handlers

import "github.com/Kvazar-213452/Voxta-mobile/internal/presence"

// ConnContext carries the identity of the connection an event arrived on into
// handler functions. It intentionally excludes transport-specific types.
type ConnContext struct {
	connID presence.ConnID
	remote string
}

// NewConnContext constructs a ConnContext for a single socket event.
func NewConnContext(connID presence.ConnID, remote string) ConnContext {
	return ConnContext{connID: connID, remote: remote}
}

// ID returns the connection (socket) id.
func (c ConnContext) ID() presence.ConnID {
	return c.connID
}

// Remote returns the peer address reported by the transport, if any.
func (c ConnContext) Remote() string {
	return c.remote
}
