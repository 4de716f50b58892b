package runtime

import (
	"context"
	"fmt"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/google/uuid"
)

// Disconnect reconciliation. Two paths converge here: the explicit
// client-declared "disconnecting" signal that names its user, and the
// abrupt transport close where only the connection id is known.

// DisconnectExplicit handles the client-declared path: the payload
// carries the user id, so no directory scan is needed. The offline
// presence change fans out globally like any unsolicited change.
func (o *Orchestrator) DisconnectExplicit(ctx context.Context, connID uuid.UUID, p domain.DisconnectPayload) error {
	if err := o.users.SetOnline(p.SenderID, false); err != nil {
		return fmt.Errorf("%w: set offline for user %d: %v", errors.ErrPersistenceFailed, p.SenderID, err)
	}
	o.fanout(ctx, o.registry.AllSinks(connID), event.StatusOnline{SenderID: p.SenderID, IsOnline: false})
	o.log.Debug(fmt.Sprintf("User %d disconnected from %s", p.SenderID, p.RoomID))
	return nil
}

// ReleaseConnection handles the abrupt path, invoked on every
// transport-reported close. The directory's occupancy index yields
// each room the connection was representing a user in; for each, the
// room's group hears the user went offline and any typing indicator
// is cancelled. The registry entry is released unconditionally, even
// when no slot was bound.
func (o *Orchestrator) ReleaseConnection(ctx context.Context, connID uuid.UUID) {
	for _, occ := range o.directory.Release(connID) {
		o.fanout(ctx, o.registry.SinksForRoom(occ.RoomID, connID),
			event.StatusOnline{SenderID: occ.UserID, IsOnline: false})
		o.fanout(ctx, o.registry.SinksForRoom(occ.RoomID, connID),
			event.RemoveTyping{Typing: domain.TypingPayload{RoomID: occ.RoomID, SenderID: occ.UserID}})
		o.setOffline(occ.UserID)
	}
	o.registry.Drop(connID)
	o.log.Debug(fmt.Sprintf("Connection %s released", connID))
}
