package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
)

// GetStatus answers whether id_user currently holds an authenticated
// connection.
//
// Only the caller's own token is re-verified. A target whose token expired
// while its connection stayed open is still reported online.
func GetStatus(ctx context.Context, deps Deps, conn ConnContext, raw any) EventResult {
	var req wire.GetStatusPayload
	decodeErr := wire.Decode(raw, &req)
	if decodeErr != nil {
		req.Type = typeField(raw)
	}

	attrs, ok := deps.Sessions().Get(conn.ID())
	if !ok {
		return statusError(deps, wire.ErrNotAuthenticated, req.Type)
	}
	state, _, attrToken := attrs.Snapshot()
	if state != StateAuthenticated {
		return statusError(deps, wire.ErrNotAuthenticated, req.Type)
	}

	if decodeErr != nil {
		logger.Warnf("get_status decode failed (socket %s): %v", conn.ID(), decodeErr)
		return statusError(deps, wire.ErrServerError, req.Type)
	}

	if req.IDUser == nil {
		return statusError(deps, wire.ErrInvalidUserID, req.Type)
	}
	target, ok := req.IDUser.(string)
	if !ok {
		logger.Warnf("get_status id_user has type %T (socket %s)", req.IDUser, conn.ID())
		return statusError(deps, wire.ErrServerError, req.Type)
	}
	if strings.TrimSpace(target) == "" {
		return statusError(deps, wire.ErrInvalidUserID, req.Type)
	}

	token, ok := deps.Registry().TokenOf(conn.ID())
	if !ok {
		token = attrToken
	}
	if token != "" {
		if _, err := deps.Verifier().Verify(token); err != nil {
			logger.Debugf("Caller token no longer valid (socket %s): %v", conn.ID(), err)
			return statusError(deps, wire.ErrTokenExpired, req.Type)
		}
	}

	online := deps.Registry().IsOnline(target)
	reply := wire.StatusOK(online, req.Type)
	deps.Observer().StatusQuery(reply.Status)
	logger.Debugf("Status check for user %s: %s", target, reply.Status)
	return NewEventResult(wire.EventGetStatusReturn, reply)
}

func statusError(deps Deps, code string, typ any) EventResult {
	deps.Observer().StatusQuery(code)
	return NewEventResult(wire.EventGetStatusReturn, wire.StatusError(code, typ))
}

// typeField pulls the echo value out of a payload that did not decode.
func typeField(raw any) any {
	if m, ok := raw.(map[string]any); ok {
		return m["type"]
	}
	return nil
}

func recoveredStatus(deps Deps, conn ConnContext, raw any, r any) EventResult {
	logger.Errorf("get_status panic (socket %s): %v", conn.ID(), fmt.Sprint(r))
	return statusError(deps, wire.ErrServerError, typeField(raw))
}
