// Package sink adapts delivery targets to the contract.EventSink
// interface consumed by the relay fan-out.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"pairchat/domain/event"
)

// Transport is the outbound half of a live connection. Send must be
// safe for concurrent use and must not block the caller; the
// WebSocket connection satisfies this with its buffered write pump.
type Transport interface {
	Send(message []byte)
}

// envelope is the wire shape of every outbound event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// WebSocketSink marshals domain events into the JSON envelope and
// hands them to the connection's write pump.
type WebSocketSink struct {
	log  *slog.Logger
	conn Transport
}

func NewWebSocketSink(log *slog.Logger, conn Transport) *WebSocketSink {
	return &WebSocketSink{log: log, conn: conn}
}

// Consume is called by the relay fan-out. Marshalling failures stay
// local to this one delivery.
func (s *WebSocketSink) Consume(_ context.Context, e event.DomainEvent) error {
	data, err := json.Marshal(envelope{Event: e.EventName(), Data: e.EventData()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.EventName(), err)
	}
	s.conn.Send(data)
	return nil
}
