package websocket

import (
	"context"
	"sync"

	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
	"github.com/Kvazar-213452/Voxta-mobile/internal/websocket/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/zishang520/socket.io/parsers/socket/v3/parser"
	engine "github.com/zishang520/socket.io/servers/engine/v3"
	"github.com/zishang520/socket.io/servers/engine/v3/transports"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
)

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())
	conn := handlers.NewConnContext(presence.ConnID(socketID), client.Handshake().Address)

	s.sockets.Store(socketID, client)
	handlers.Connect(context.Background(), s.deps, conn)

	for _, event := range handlers.Events() {
		event := event
		client.On(event, func(data ...any) {
			raw, ack := getFirstAnyWithAck(data)
			result := handlers.Dispatch(context.Background(), s.deps, conn, event, raw)
			s.emitResult(client, result, ack)
		})
	}

	client.On("disconnect", func(data ...any) {
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		handlers.Disconnect(context.Background(), s.deps, conn, reason)
		s.sockets.Delete(socketID)
	})
}

// emitResult delivers the handler reply through the ACK when the client asked
// for one and as an event otherwise. A reply that precedes a disconnect is
// always an event so it can be flushed before the transport closes.
func (s *SocketIOServer) emitResult(client *socket.Socket, result handlers.EventResult, ack func(...any)) {
	if result.Disconnect() {
		if result.HasReply() {
			logger.Tracef("Emitting %s to socket %s before closing", result.Event(), client.Id())
			emitThenClose(client, result.Event(), result.Reply())
			return
		}
		client.Disconnect(true)
		return
	}
	if !result.HasReply() {
		return
	}
	if ack != nil {
		ack(result.Reply())
		return
	}

	logger.Tracef("Emitting %s to socket %s", result.Event(), client.Id())
	if err := client.Emit(result.Event(), result.Reply()); err != nil {
		logger.Warnf("Failed to emit %s to socket %s: %v", result.Event(), client.Id(), err)
	}
}

// emitThenClose writes the event straight to the engine connection and closes
// the socket from the send callback, which the engine runs once the transport
// has drained the packet.
func emitThenClose(client *socket.Socket, event string, reply any) {
	conn := client.Conn()
	if conn.ReadyState() != "open" {
		client.Disconnect(true)
		return
	}

	var once sync.Once
	closeSocket := engine.SendCallback(func(transports.Transport) {
		once.Do(func() { go client.Disconnect(true) })
	})

	buffers := parser.NewEncoder().Encode(&parser.Packet{
		Type: parser.EVENT,
		Nsp:  client.Nsp().Name(),
		Data: []any{event, reply},
	})
	for i, buf := range buffers {
		var cb engine.SendCallback
		if i == len(buffers)-1 {
			cb = closeSocket
		}
		conn.Write(buf, nil, cb)
	}
}
