package domain

// Inbound event payloads, JSON-shaped exactly as clients send them.
// Field names follow the wire contract, not Go conventions.

type CreateRoomPayload struct {
	SenderID   int64 `json:"senderId" validate:"required"`
	ReceiverID int64 `json:"receiverId" validate:"required"`
}

type StatusPayload struct {
	SenderID int64 `json:"senderId" validate:"required"`
}

type OnlineQueryPayload struct {
	SenderID   int64  `json:"senderId" validate:"required"`
	ReceiverID int64  `json:"receiverId" validate:"required"`
	RoomID     RoomID `json:"roomId" validate:"required"`
}

type TypingPayload struct {
	RoomID   RoomID `json:"roomId" validate:"required"`
	SenderID int64  `json:"senderId" validate:"required"`
}

type MessagePayload struct {
	RoomID     RoomID      `json:"roomId" validate:"required"`
	SenderID   int64       `json:"senderId" validate:"required"`
	ReceiverID int64       `json:"receiverId" validate:"required"`
	Message    string      `json:"message"`
	Kind       MessageKind `json:"type" validate:"gte=0,lte=3"`
	// ChatID is filled in by the server once the store assigned an id.
	ChatID uint64 `json:"chatId,omitempty"`
}

type ReadPayload struct {
	RoomID     RoomID `json:"roomId" validate:"required"`
	SenderID   int64  `json:"senderId" validate:"required"`
	ReceiverID int64  `json:"receiverId" validate:"required"`
	ChatID     uint64 `json:"chatId"`
}

type DisconnectPayload struct {
	SenderID int64  `json:"senderId" validate:"required"`
	RoomID   RoomID `json:"roomId"`
}
