package handlers

import (
	"context"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
)

// Disconnect moves the connection to StateClosed and drops its registry
// entries. Transport timeouts and client closes both end up here. Repeated
// calls for the same connection are no-ops.
func Disconnect(ctx context.Context, deps Deps, conn ConnContext, reason string) EventResult {
	attrs, prev, ok := deps.Sessions().Close(conn.ID())

	deps.Registry().Unregister(conn.ID())

	if !ok {
		return NoReply()
	}
	deps.Observer().Disconnected()

	_, userID, _ := attrs.Snapshot()
	if prev == StateAuthenticated {
		logger.Infof("User disconnected: %s (socket %s, reason: %s, online for %s)",
			userID, conn.ID(), reason, deps.Now().Sub(attrs.authenticatedAt).Round(time.Millisecond))
	} else {
		logger.Infof("Client disconnected: socket %s (reason: %s)", conn.ID(), reason)
	}
	return NoReply()
}
