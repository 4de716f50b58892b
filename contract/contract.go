//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"pairchat/domain"
	"pairchat/domain/event"

	"github.com/google/uuid"
)

// EventSink is one delivery target, typically the outbound half of a
// live connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IUserRepository is the narrow user-directory contract the core
// consumes: resolve a user, flip their online flag.
type IUserRepository interface {
	FindByID(id int64) (domain.User, error)
	SetOnline(id int64, online bool) error
}

// IMessageRepository is the narrow message-store contract: append a
// message, mark a directional range as seen, list a pair's history.
type IMessageRepository interface {
	Append(message domain.Message) (uint64, error)
	MarkSeenUpTo(senderID, receiverID int64, maxID uint64, at time.Time) error
	ListBetween(a, b int64) ([]domain.Message, error)
}

// IRoomRepository persists the room directory. LoadAll is called once
// at startup; Save after every room mutation.
type IRoomRepository interface {
	LoadAll() ([]domain.Room, error)
	Save(room domain.Room) error
}

// IRegistry tracks live connections, the user each represents, and
// the broadcast group of every room a connection joined.
type IRegistry interface {
	Register(connID uuid.UUID, sink EventSink)
	BindUser(connID uuid.UUID, userID int64)
	Join(connID uuid.UUID, roomID domain.RoomID)
	IsJoined(connID uuid.UUID, roomID domain.RoomID) bool
	Drop(connID uuid.UUID)
	SinksForRoom(roomID domain.RoomID, except uuid.UUID) []EventSink
	AllSinks(except uuid.UUID) []EventSink
}

// IChatService is the full inbound-operation surface exposed to the
// transport layer, one method per wire event plus the two disconnect
// reconciliation paths.
type IChatService interface {
	RequestRoom(ctx context.Context, connID uuid.UUID, p domain.CreateRoomPayload) (domain.RoomID, error)
	SetOnline(ctx context.Context, connID uuid.UUID, p domain.StatusPayload) error
	QueryOnline(ctx context.Context, connID uuid.UUID, p domain.OnlineQueryPayload) error
	Typing(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error
	RemoveTyping(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error
	SendMessage(ctx context.Context, connID uuid.UUID, p domain.MessagePayload) (domain.MessagePayload, error)
	ReadMessage(ctx context.Context, connID uuid.UUID, p domain.ReadPayload) error
	DisconnectExplicit(ctx context.Context, connID uuid.UUID, p domain.DisconnectPayload) error
	ReleaseConnection(ctx context.Context, connID uuid.UUID)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
