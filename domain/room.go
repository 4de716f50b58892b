// Package domain contains core concepts of the pairing chat system.
// This file defines Room entities and the unordered-pair identity rule.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"github.com/google/uuid"
)

// RoomID is the opaque stable identifier of a Room, generated once
// at creation time.
type RoomID string

// PairKey is the normalized identity of a Room: the unordered pair of
// user ids, stored with Lo <= Hi so that (x,y) and (y,x) compare equal.
type PairKey struct {
	Lo int64
	Hi int64
}

func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// Room is the durable pairing record between exactly two users.
// Slots maps a user id to the connection currently representing them;
// at most one connection per user at a time, overwritten on reconnect.
type Room struct {
	ID    RoomID              `json:"roomId"`
	UserA int64               `json:"senderId"`
	UserB int64               `json:"receiverId"`
	Slots map[int64]uuid.UUID `json:"slots"`
}

func NewRoom(id RoomID, userA, userB int64) *Room {
	return &Room{
		ID:    id,
		UserA: userA,
		UserB: userB,
		Slots: make(map[int64]uuid.UUID),
	}
}

func (r *Room) Pair() PairKey {
	return NewPairKey(r.UserA, r.UserB)
}

// Bind records connID as the current connection for userID.
// Last writer wins: an existing binding for the same user is replaced.
// Returns false when userID is not one of the room's two occupants.
func (r *Room) Bind(userID int64, connID uuid.UUID) bool {
	if userID != r.UserA && userID != r.UserB {
		return false
	}
	if r.Slots == nil {
		r.Slots = make(map[int64]uuid.UUID)
	}
	r.Slots[userID] = connID
	return true
}

// OccupantOf reports which user, if any, connID currently represents
// in this room.
func (r *Room) OccupantOf(connID uuid.UUID) (int64, bool) {
	for userID, bound := range r.Slots {
		if bound == connID {
			return userID, true
		}
	}
	return 0, false
}

// Release frees the slot held by userID, if any.
func (r *Room) Release(userID int64) {
	delete(r.Slots, userID)
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (r *Room) Snapshot() Room {
	slots := make(map[int64]uuid.UUID, len(r.Slots))
	for userID, connID := range r.Slots {
		slots[userID] = connID
	}
	return Room{ID: r.ID, UserA: r.UserA, UserB: r.UserB, Slots: slots}
}
