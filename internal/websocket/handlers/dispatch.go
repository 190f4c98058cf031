package handlers

import (
	"context"
	"sort"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
)

// EventHandler handles one inbound client event.
type EventHandler func(ctx context.Context, deps Deps, conn ConnContext, raw any) EventResult

type route struct {
	handle EventHandler
	// onPanic builds the reply sent when handle panics.
	onPanic func(deps Deps, conn ConnContext, raw any, r any) EventResult
}

var routes = map[string]route{
	wire.EventAuthenticate: {
		handle: Authenticate,
		onPanic: func(deps Deps, conn ConnContext, raw any, r any) EventResult {
			return authenticationFailed(deps, conn, panicError{r})
		},
	},
	wire.EventGetStatus: {
		handle:  GetStatus,
		onPanic: recoveredStatus,
	},
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return "panic: " + err.Error()
	}
	if s, ok := p.v.(string); ok {
		return "panic: " + s
	}
	return "panic"
}

// Events lists the client event names that Dispatch handles, sorted.
func Events() []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes one client event to its handler. Unknown events produce no
// reply. A panic inside a handler is recovered and turned into that event's
// failure reply so it never takes the connection handler down.
func Dispatch(ctx context.Context, deps Deps, conn ConnContext, event string, raw any) (res EventResult) {
	rt, ok := routes[event]
	if !ok {
		logger.Debugf("Ignoring unknown event %q (socket %s)", event, conn.ID())
		return NoReply()
	}

	defer func() {
		if r := recover(); r != nil {
			res = rt.onPanic(deps, conn, raw, r)
		}
	}()

	logger.Tracef("Event %s (socket %s)", event, conn.ID())
	return rt.handle(ctx, deps, conn, raw)
}
