package runtime

import (
	"context"
	stderrors "errors"
	"fmt"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/google/uuid"
)

// SetOnline persists the user's online flag through the directory
// collaborator, then pushes the change to every connection except the
// emitter. Unsolicited presence changes fan out globally: any peer who
// ever roomed with this user may care.
func (o *Orchestrator) SetOnline(ctx context.Context, connID uuid.UUID, p domain.StatusPayload) error {
	if err := o.users.SetOnline(p.SenderID, true); err != nil {
		return fmt.Errorf("%w: set online for user %d: %v", errors.ErrPersistenceFailed, p.SenderID, err)
	}
	o.registry.BindUser(connID, p.SenderID)
	o.fanout(ctx, o.registry.AllSinks(connID), event.StatusOnline{SenderID: p.SenderID, IsOnline: true})
	return nil
}

// QueryOnline answers an explicit presence poll. The answer stays
// local to the room's broadcast group, requester included; polled
// status never fans out globally. An unknown target user is answered
// with silence, matching a peer that was deleted mid-conversation.
func (o *Orchestrator) QueryOnline(ctx context.Context, _ uuid.UUID, p domain.OnlineQueryPayload) error {
	user, err := o.users.FindByID(p.ReceiverID)
	if stderrors.Is(err, errors.ErrUnknownUser) {
		o.log.Debug(fmt.Sprintf("Online status requested for unknown user %d", p.ReceiverID))
		return nil
	}
	if err != nil {
		return err
	}
	o.fanout(ctx, o.registry.SinksForRoom(p.RoomID, uuid.Nil),
		event.StatusOnline{SenderID: user.ID, IsOnline: user.IsOnline})
	return nil
}

// setOffline is the shared offline path of both disconnect flows.
// The store write failure is logged, not returned: presence cleanup
// must not abort reconciliation of the remaining rooms.
func (o *Orchestrator) setOffline(userID int64) {
	if err := o.users.SetOnline(userID, false); err != nil {
		o.log.Warn("offline status write failed", "user_id", userID, "error", err)
	}
}
