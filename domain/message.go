// Package domain contains core concepts of the pairing chat system.
// This file defines Message records and their kinds.
package domain

import (
	"time"
)

// MessageKind is the integer-coded content type of a message.
type MessageKind int

const (
	KindText MessageKind = iota
	KindAudio
	KindVideo
	KindPhoto
)

// Message is a chat message exchanged between two users.
// ID is assigned by the message store and is strictly increasing,
// which is what makes "seen up to id N" receipts meaningful.
type Message struct {
	ID         uint64      `json:"id"`
	SenderID   int64       `json:"senderId"`
	ReceiverID int64       `json:"receiverId"`
	Body       string      `json:"message"`
	Kind       MessageKind `json:"type"`
	SentAt     time.Time   `json:"sentAt"`
	SeenAt     *time.Time  `json:"seenAt"`
}
