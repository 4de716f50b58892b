// Package server is the WebSocket transport: it accepts duplex
// connections, decodes the JSON event envelope, and hands events to
// the chat service. No room or presence semantics live here.
package server

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// MessageHandler is invoked for every inbound frame, on the
// connection's own goroutine.
type MessageHandler func(ctx context.Context, raw []byte)

// CloseHandler is invoked exactly once when the transport reports
// closure, however it happened.
type CloseHandler func(connID uuid.UUID, err error)

// Connection is a single, thread-safe WebSocket connection. Reads are
// pumped to the message handler; writes go through a buffered send
// channel so a slow client never blocks the relay. The connection's
// lifetime bounds all work it initiated: no per-operation timeouts.
type Connection struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte

	onMessage MessageHandler
	onClose   CloseHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	log *slog.Logger
}

func NewConnection(parentCtx context.Context, conn *websocket.Conn, sendBufferSize int,
	onMessage MessageHandler, onClose CloseHandler, log *slog.Logger) *Connection {
	id := uuid.New()
	connCtx, cancel := context.WithCancel(parentCtx)
	return &Connection{
		id:        id,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		onMessage: onMessage,
		onClose:   onClose,
		ctx:       connCtx,
		cancel:    cancel,
		log:       log.With(slog.String("conn_id", id.String())),
	}
}

// Run starts the read and write pumps.
func (c *Connection) Run() {
	go c.readPump()
	go c.writePump()
	c.log.Info("connection established")
}

// readPump pumps inbound frames to the message handler, one at a
// time, preserving per-connection event order.
func (c *Connection) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		typ, r, err := c.conn.Reader(c.ctx)
		if err != nil {
			readErr = err
			return
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			readErr = err
			return
		}
		c.onMessage(c.ctx, raw)
	}
}

// writePump pumps frames from the send channel to the socket.
func (c *Connection) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.conn.Write(c.ctx, websocket.MessageText, frame); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

// Send queues a frame for delivery. Safe for concurrent use; frames
// to a closed or saturated connection are dropped, relay is
// best-effort while the peer is reachable.
func (c *Connection) Send(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.ctx.Done():
		c.log.Debug("send on closed connection dropped")
	default:
		c.log.Warn("send buffer full, frame dropped")
	}
}

// Close tears the connection down exactly once and fires the close
// handler so disconnect reconciliation always runs.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		c.log.Info("connection closing", slog.Any("reason", err))
		c.cancel()
		c.conn.Close(websocket.StatusNormalClosure, "")
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
	})
}

// ID returns the unique identifier of the connection.
func (c *Connection) ID() uuid.UUID {
	return c.id
}
