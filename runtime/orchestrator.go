package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/runtime/workers"

	"github.com/google/uuid"
)

// Orchestrator wires the registry, the room directory, and the two
// external collaborators (user directory, message store) into the
// event-relay engine. Each inbound event runs on its connection's own
// goroutine, so a blocking store lookup never stalls dispatch for
// other connections; the directory mutex is the only serialization
// point, as rooms are the only shared mutable state.
type Orchestrator struct {
	log        *slog.Logger
	registry   contract.IRegistry
	directory  *Directory
	users      contract.IUserRepository
	messages   contract.IMessageRepository
	supervisor contract.ISupervisor
	rooms      contract.IRoomRepository
	snapshots  chan domain.Room
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, rooms contract.IRoomRepository,
	users contract.IUserRepository, messages contract.IMessageRepository,
	snapshotBufferSize int) (*Orchestrator, error) {

	snapshots := make(chan domain.Room, snapshotBufferSize)
	directory, err := NewDirectory(log, rooms, snapshots)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		log:        log,
		registry:   registry,
		directory:  directory,
		users:      users,
		messages:   messages,
		supervisor: supervisor,
		rooms:      rooms,
		snapshots:  snapshots,
	}, nil
}

// Start registers the directory flush worker and launches the
// supervision loop.
func (o *Orchestrator) Start(ctx context.Context) {
	o.supervisor.Add(workers.NewDirectoryFlushWorker(o.log, o.rooms, o.snapshots))
	go o.supervisor.Run(ctx)
	o.log.Info("Starting orchestrator and all supervised workers")
}

// Stop cancels the supervision context; in-flight snapshots are
// drained by the flush worker before it exits.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// Directory exposes the room directory for inspection.
func (o *Orchestrator) Directory() *Directory {
	return o.directory
}

// RequestRoom validates both users against the directory collaborator,
// then resolves or creates the unordered-pair room and binds the
// requesting connection into it. Fail-closed on unknown users: the
// caller must close the connection, no room is created.
func (o *Orchestrator) RequestRoom(_ context.Context, connID uuid.UUID, p domain.CreateRoomPayload) (domain.RoomID, error) {
	if _, err := o.users.FindByID(p.SenderID); err != nil {
		return "", err
	}
	if _, err := o.users.FindByID(p.ReceiverID); err != nil {
		return "", err
	}

	roomID, created, err := o.directory.Request(p.SenderID, p.ReceiverID, connID)
	if err != nil {
		return "", err
	}

	o.registry.BindUser(connID, p.SenderID)
	o.registry.Join(connID, roomID)

	if created {
		o.log.Info(fmt.Sprintf("Room %s created for pair (%d,%d)", roomID, p.SenderID, p.ReceiverID))
	} else {
		o.log.Debug(fmt.Sprintf("Room %s joined by user %d", roomID, p.SenderID))
	}
	return roomID, nil
}

// requireJoined enforces that the emitting connection already belongs
// to the room it targets.
func (o *Orchestrator) requireJoined(connID uuid.UUID, roomID domain.RoomID) error {
	if !o.registry.IsJoined(connID, roomID) {
		return fmt.Errorf("%w: conn %s, room %s", errors.ErrNotBoundToRoom, connID, roomID)
	}
	return nil
}

// fanout delivers an event to each sink. A failing sink is local to
// that one delivery: it is logged and the remaining sinks still
// receive the event.
func (o *Orchestrator) fanout(ctx context.Context, sinks []contract.EventSink, e event.DomainEvent) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			o.log.Warn("sink delivery failed", "event", e.EventName(), "error", err)
		}
	}
}
