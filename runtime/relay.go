package runtime

import (
	"context"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/google/uuid"
)

// Event relay: stateless fan-out of typing/message/seen events to the
// other occupant of a room. Echoing a sender's own event back to them
// is a correctness bug, so every relay excludes the emitting
// connection.

func (o *Orchestrator) Typing(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error {
	if err := o.requireJoined(connID, p.RoomID); err != nil {
		return err
	}
	o.fanout(ctx, o.registry.SinksForRoom(p.RoomID, connID), event.DisplayTyping{Typing: p})
	return nil
}

func (o *Orchestrator) RemoveTyping(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error {
	if err := o.requireJoined(connID, p.RoomID); err != nil {
		return err
	}
	o.fanout(ctx, o.registry.SinksForRoom(p.RoomID, connID), event.RemoveTyping{Typing: p})
	return nil
}

// SendMessage appends the message to the store, captures the
// generated id into the payload as chatId, then relays it to the room
// excluding the sender. The append completes before any broadcast; if
// it fails, nothing is relayed and the failure surfaces to the caller.
func (o *Orchestrator) SendMessage(ctx context.Context, connID uuid.UUID, p domain.MessagePayload) (domain.MessagePayload, error) {
	if err := o.requireJoined(connID, p.RoomID); err != nil {
		return p, err
	}

	chatID, err := o.messages.Append(domain.Message{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Body:       p.Message,
		Kind:       p.Kind,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return p, fmt.Errorf("%w: append message in room %s: %v", errors.ErrPersistenceFailed, p.RoomID, err)
	}

	p.ChatID = chatID
	o.fanout(ctx, o.registry.SinksForRoom(p.RoomID, connID), event.NewMessage{Message: p})
	return p, nil
}

// ReadMessage marks every message from sender to receiver with
// id <= chatId as seen, then relays the receipt excluding the sender.
// The broadcast is unconditional: the receipt still propagates when
// chatId is absent or the seen-timestamp write failed, only the
// durable stamp is conditional.
func (o *Orchestrator) ReadMessage(ctx context.Context, connID uuid.UUID, p domain.ReadPayload) error {
	if err := o.requireJoined(connID, p.RoomID); err != nil {
		return err
	}

	if p.ChatID > 0 {
		if err := o.messages.MarkSeenUpTo(p.SenderID, p.ReceiverID, p.ChatID, time.Now().UTC()); err != nil {
			o.log.Warn("seen-timestamp write failed",
				"room_id", p.RoomID, "chat_id", p.ChatID, "error", err)
		}
	}
	o.fanout(ctx, o.registry.SinksForRoom(p.RoomID, connID), event.SeenMessage{Receipt: p})
	return nil
}
