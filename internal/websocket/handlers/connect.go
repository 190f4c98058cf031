package handlers

import (
	"context"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
)

// Connect opens the unauthenticated session attributes for a newly accepted
// connection.
func Connect(ctx context.Context, deps Deps, conn ConnContext) EventResult {
	deps.Sessions().Open(conn.ID(), deps.Now())
	logger.Infof("Client connected (socket %s, remote %s)", conn.ID(), conn.Remote())
	return NoReply()
}
