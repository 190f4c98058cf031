package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
)

// Authentication outcomes reported to the Observer.
const (
	AuthResultSuccess = "success"
	AuthResultFailure = "failure"
)

var errTokenRequired = errors.New("token is required")

// Authenticate binds the connection to the user named by the token's userId
// claim.
//
// Any failure (missing token, bad signature, expiry, missing claim) is
// reported as authentication_failed and closes the connection; a connection
// gets no second attempt. Events arriving after the connection closed are
// ignored.
func Authenticate(ctx context.Context, deps Deps, conn ConnContext, raw any) EventResult {
	attrs, ok := deps.Sessions().Get(conn.ID())
	if !ok {
		logger.Debugf("Ignoring authenticate on closed socket %s", conn.ID())
		return NoReply()
	}

	var req wire.AuthenticatePayload
	if err := wire.Decode(raw, &req); err != nil {
		return authenticationFailed(deps, conn, fmt.Errorf("decode payload: %w", err))
	}
	if strings.TrimSpace(req.Token) == "" {
		return authenticationFailed(deps, conn, errTokenRequired)
	}

	userID, err := deps.Verifier().Verify(req.Token)
	if err != nil {
		return authenticationFailed(deps, conn, err)
	}

	attrs.mu.Lock()
	defer attrs.mu.Unlock()

	if attrs.state == StateClosed {
		logger.Debugf("Socket %s closed during authenticate; not registering %s", conn.ID(), userID)
		return NoReply()
	}

	deps.Registry().Register(userID, conn.ID(), req.Token)
	attrs.userID = userID
	attrs.token = req.Token
	attrs.state = StateAuthenticated
	attrs.authenticatedAt = deps.Now()

	deps.Observer().Authentication(AuthResultSuccess)
	logger.Infof("User authenticated: %s (socket %s)", userID, conn.ID())
	return NewEventResult(wire.EventAuthenticated, wire.AuthenticatedOK())
}

func authenticationFailed(deps Deps, conn ConnContext, err error) EventResult {
	deps.Observer().Authentication(AuthResultFailure)
	logger.Warnf("Authentication failed (socket %s): %v", conn.ID(), err)
	return NewEventResultAndClose(wire.EventAuthenticated, wire.AuthenticationFailed())
}
