package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Conn is the subset of the transport connection the dispatcher
// needs: identity for registry lookups and teardown for the
// fail-closed path.
type Conn interface {
	ID() uuid.UUID
	Close(err error)
}

// Wire event names, inbound.
const (
	evtCreateRoom      = "createRoom"
	evtStatusToOnline  = "UpdateStatusToOnline"
	evtGetOnlineStatus = "getOnlineStatus"
	evtTyping          = "typing"
	evtRemoveTyping    = "removeTyping"
	evtSendMessage     = "sendMessage"
	evtReadMessage     = "ReadMessage"
	evtDisconnected    = "disconnected"
)

// Dispatcher decodes inbound envelopes and routes them to the chat
// service. Every failure is local to the single event being
// processed: it is logged and the connection's loop keeps running.
type Dispatcher struct {
	log      *slog.Logger
	service  contract.IChatService
	validate *validator.Validate
}

func NewDispatcher(log *slog.Logger, service contract.IChatService) *Dispatcher {
	return &Dispatcher{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Handle processes one inbound frame from conn. The sink is the same
// one registered for the connection, used for direct replies
// (roomConnected goes to the requester only).
func (d *Dispatcher) Handle(ctx context.Context, conn Conn, snk contract.EventSink, raw []byte) {
	name := gjson.GetBytes(raw, "event").String()
	if name == "" {
		d.log.Warn("frame without event name dropped", "conn_id", conn.ID())
		return
	}
	data := []byte(gjson.GetBytes(raw, "data").Raw)
	if len(data) == 0 {
		data = []byte("{}")
	}

	var err error
	switch name {
	case evtCreateRoom:
		err = d.createRoom(ctx, conn, snk, data)
	case evtStatusToOnline:
		err = handlePayload(d, data, func(p domain.StatusPayload) error {
			return d.service.SetOnline(ctx, conn.ID(), p)
		})
	case evtGetOnlineStatus:
		err = handlePayload(d, data, func(p domain.OnlineQueryPayload) error {
			return d.service.QueryOnline(ctx, conn.ID(), p)
		})
	case evtTyping:
		err = handlePayload(d, data, func(p domain.TypingPayload) error {
			return d.service.Typing(ctx, conn.ID(), p)
		})
	case evtRemoveTyping:
		err = handlePayload(d, data, func(p domain.TypingPayload) error {
			return d.service.RemoveTyping(ctx, conn.ID(), p)
		})
	case evtSendMessage:
		err = handlePayload(d, data, func(p domain.MessagePayload) error {
			_, sendErr := d.service.SendMessage(ctx, conn.ID(), p)
			return sendErr
		})
	case evtReadMessage:
		err = handlePayload(d, data, func(p domain.ReadPayload) error {
			return d.service.ReadMessage(ctx, conn.ID(), p)
		})
	case evtDisconnected:
		err = handlePayload(d, data, func(p domain.DisconnectPayload) error {
			return d.service.DisconnectExplicit(ctx, conn.ID(), p)
		})
	default:
		d.log.Warn("unknown event dropped", "event", name, "conn_id", conn.ID())
		return
	}

	if err != nil {
		d.log.Warn("event handling failed", "event", name, "conn_id", conn.ID(), "error", err)
	}
}

// createRoom is the one inbound event with a direct reply and a
// fail-closed path: an unknown user terminates the connection.
func (d *Dispatcher) createRoom(ctx context.Context, conn Conn, snk contract.EventSink, data []byte) error {
	var p domain.CreateRoomPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	roomID, err := d.service.RequestRoom(ctx, conn.ID(), p)
	if stderrors.Is(err, errors.ErrUnknownUser) {
		d.log.Info(fmt.Sprintf("%s is disconnected", conn.ID()), "error", err)
		conn.Close(err)
		return nil
	}
	if err != nil {
		return err
	}
	d.log.Info(fmt.Sprintf("Room: %s is connected", roomID))
	return snk.Consume(ctx, event.RoomConnected{Room: roomID})
}

// handlePayload decodes and validates one typed payload, then hands
// it to the service call. Free function because methods cannot carry
// type parameters.
func handlePayload[P any](d *Dispatcher, data []byte, handle func(P) error) error {
	var p P
	if err := d.decode(data, &p); err != nil {
		return err
	}
	return handle(p)
}

func (d *Dispatcher) decode(data []byte, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := d.validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
