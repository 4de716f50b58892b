// Package event defines the outbound events relayed to connected
// clients. Every event knows its wire name and the data clients
// receive under the "data" key of the envelope.
package event

import (
	"pairchat/domain"
)

type DomainEvent interface {
	EventName() string
	EventData() any
}

// RoomConnected is emitted to the requesting connection only,
// carrying the bare room id for client-side bookkeeping.
type RoomConnected struct {
	Room domain.RoomID
}

func (e RoomConnected) EventName() string { return "roomConnected" }
func (e RoomConnected) EventData() any    { return e.Room }

// StatusOnline announces a user's presence flag. Unsolicited changes
// fan out globally; answers to getOnlineStatus stay room-scoped.
type StatusOnline struct {
	SenderID int64 `json:"senderId"`
	IsOnline bool  `json:"isOnline"`
}

func (e StatusOnline) EventName() string { return "statusOnline" }
func (e StatusOnline) EventData() any    { return e }

type DisplayTyping struct {
	Typing domain.TypingPayload
}

func (e DisplayTyping) EventName() string { return "DisplayTyping" }
func (e DisplayTyping) EventData() any    { return e.Typing }

type RemoveTyping struct {
	Typing domain.TypingPayload
}

func (e RemoveTyping) EventName() string { return "removeTyping" }
func (e RemoveTyping) EventData() any    { return e.Typing }

// NewMessage relays a persisted message, ChatID already set.
type NewMessage struct {
	Message domain.MessagePayload
}

func (e NewMessage) EventName() string { return "newMessage" }
func (e NewMessage) EventData() any    { return e.Message }

type SeenMessage struct {
	Receipt domain.ReadPayload
}

func (e SeenMessage) EventName() string { return "seenMessage" }
func (e SeenMessage) EventData() any    { return e.Receipt }
