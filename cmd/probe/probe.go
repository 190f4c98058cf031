package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	client "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

var (
	errAuthRejected = errors.New("authentication rejected")
	errNoReply      = errors.New("no reply")
)

// prober is a presence client that authenticates once and then queries the
// status of other users over the same connection.
type prober struct {
	sock    *client.Socket
	auth    chan any
	status  chan any
	timeout time.Duration
}

func dialProber(url, path string, timeout time.Duration) (*prober, error) {
	opts := client.DefaultOptions()
	opts.SetPath(path)
	opts.SetTransports(types.NewSet(client.Polling, client.WebSocket))

	sock, err := client.Connect(url, opts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}

	p := &prober{
		sock:    sock,
		auth:    make(chan any, 1),
		status:  make(chan any, 16),
		timeout: timeout,
	}
	forward := func(ch chan any) func(...any) {
		return func(args ...any) {
			if len(args) == 0 {
				return
			}
			select {
			case ch <- args[0]:
			default:
				logger.Warnf("Dropping unexpected reply: %v", args[0])
			}
		}
	}
	sock.On(types.EventName(wire.EventAuthenticated), forward(p.auth))
	sock.On(types.EventName(wire.EventGetStatusReturn), forward(p.status))
	sock.On("disconnect", func(args ...any) {
		logger.Debugf("Disconnected: %v", args)
	})
	return p, nil
}

func (p *prober) waitConnected(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()

	for !p.sock.Connected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("connect: %w within %v", errNoReply, p.timeout)
		case <-ticker.C:
		}
	}
	return nil
}

func (p *prober) await(ctx context.Context, ch chan any, out any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("%w within %v", errNoReply, p.timeout)
	case raw := <-ch:
		// Replies arrive as decoded JSON; round-trip them into the wire type.
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("encode reply: %w", err)
		}
		return json.Unmarshal(b, out)
	}
}

func (p *prober) authenticate(ctx context.Context, token string) (wire.AuthenticatedReply, error) {
	var reply wire.AuthenticatedReply
	p.sock.Emit(wire.EventAuthenticate, wire.AuthenticatePayload{Token: token})
	if err := p.await(ctx, p.auth, &reply); err != nil {
		return reply, fmt.Errorf("authenticate: %w", err)
	}
	if reply.Code != wire.CodeSuccess {
		return reply, fmt.Errorf("%w: %s", errAuthRejected, reply.Error)
	}
	return reply, nil
}

func (p *prober) getStatus(ctx context.Context, userID string, typ any) (wire.StatusReply, error) {
	var reply wire.StatusReply
	p.sock.Emit(wire.EventGetStatus, wire.GetStatusPayload{IDUser: userID, Type: typ})
	if err := p.await(ctx, p.status, &reply); err != nil {
		return reply, fmt.Errorf("get_status %s: %w", userID, err)
	}
	return reply, nil
}

func (p *prober) close() {
	p.sock.Disconnect()
}
