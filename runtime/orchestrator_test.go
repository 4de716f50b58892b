package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/mocks"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	registry     *Registry
	users        *mocks.MockIUserRepository
	messages     *mocks.MockIMessageRepository
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	rooms := mocks.NewMockIRoomRepository(ctrl)
	rooms.EXPECT().LoadAll().Return(nil, nil)
	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	registry := NewRegistry()

	orchestrator, err := NewOrchestrator(slog.Default(), mocks.NewMockISupervisor(ctrl),
		registry, rooms, users, messages, 64)
	require.NoError(t, err)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		registry:     registry,
		users:        users,
		messages:     messages,
	}
}

// connect registers a connection and returns its id with its sink.
func (f *orchestratorFixture) connect() (uuid.UUID, *recordingSink) {
	connID := uuid.New()
	sink := &recordingSink{}
	f.registry.Register(connID, sink)
	return connID, sink
}

// pairUp rooms two connections as users 7 and 3 and returns the room id.
func (f *orchestratorFixture) pairUp(t *testing.T, connA, connB uuid.UUID) domain.RoomID {
	t.Helper()
	f.users.EXPECT().FindByID(gomock.Any()).Return(domain.User{}, nil).Times(4)

	roomID, err := f.orchestrator.RequestRoom(context.Background(), connA,
		domain.CreateRoomPayload{SenderID: 7, ReceiverID: 3})
	require.NoError(t, err)
	sameID, err := f.orchestrator.RequestRoom(context.Background(), connB,
		domain.CreateRoomPayload{SenderID: 3, ReceiverID: 7})
	require.NoError(t, err)
	require.Equal(t, roomID, sameID)
	return roomID
}

func eventNames(sink *recordingSink) []string {
	return lo.Map(sink.events, func(e event.DomainEvent, _ int) string { return e.EventName() })
}

func TestRequestRoom_Unknown_User_Creates_Nothing(t *testing.T) {
	req := require.New(t)

	// Given a requester whose peer does not exist
	f := newOrchestratorFixture(t)
	connID, _ := f.connect()
	f.users.EXPECT().FindByID(int64(7)).Return(domain.User{ID: 7}, nil)
	f.users.EXPECT().FindByID(int64(99)).Return(domain.User{}, errors.ErrUnknownUser)

	// When the pairing is requested
	_, err := f.orchestrator.RequestRoom(context.Background(), connID,
		domain.CreateRoomPayload{SenderID: 7, ReceiverID: 99})

	// Then the request fails closed and no room exists
	req.ErrorIs(err, errors.ErrUnknownUser)
	req.Equal(0, f.orchestrator.Directory().Len())
}

func TestRequestRoom_Both_Directions_Share_A_Room(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	connB, _ := f.connect()

	roomID := f.pairUp(t, connA, connB)

	req.Equal(1, f.orchestrator.Directory().Len())
	req.True(f.registry.IsJoined(connA, roomID))
	req.True(f.registry.IsJoined(connB, roomID))
}

func TestRequestRoom_Second_Tab_Keeps_The_Room(t *testing.T) {
	req := require.New(t)

	// Given a paired room
	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	connB, _ := f.connect()
	roomID := f.pairUp(t, connA, connB)

	// When the same user opens a second connection for the same peer
	f.users.EXPECT().FindByID(gomock.Any()).Return(domain.User{}, nil).Times(2)
	tab2, _ := f.connect()
	sameID, err := f.orchestrator.RequestRoom(context.Background(), tab2,
		domain.CreateRoomPayload{SenderID: 7, ReceiverID: 3})
	req.NoError(err)

	// Then the room is reused and the slot now belongs to the new tab
	req.Equal(roomID, sameID)
	room, ok := f.orchestrator.Directory().Room(roomID)
	req.True(ok)
	req.Equal(tab2, room.Slots[7])
}

func TestSendMessage_Relays_To_Peer_With_Chat_Id(t *testing.T) {
	req := require.New(t)

	// Given a paired room and a store that assigns id 42
	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)
	f.messages.EXPECT().Append(gomock.Any()).Return(uint64(42), nil)

	// When user 7 sends a message
	sent, err := f.orchestrator.SendMessage(context.Background(), connA, domain.MessagePayload{
		RoomID: roomID, SenderID: 7, ReceiverID: 3, Message: "hello", Kind: domain.KindText,
	})
	req.NoError(err)

	// Then the stored id travels back in the payload
	req.EqualValues(42, sent.ChatID)

	// And only the peer hears newMessage, carrying the id
	req.Empty(sinkA.events)
	req.Equal([]string{"newMessage"}, eventNames(sinkB))
	relayed := sinkB.events[0].(event.NewMessage)
	req.EqualValues(42, relayed.Message.ChatID)
	req.Equal("hello", relayed.Message.Message)
}

func TestSendMessage_Store_Failure_Broadcasts_Nothing(t *testing.T) {
	req := require.New(t)

	// Given a paired room whose message store is down
	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)
	f.messages.EXPECT().Append(gomock.Any()).Return(uint64(0), context.DeadlineExceeded)

	// When user 7 sends a message
	_, err := f.orchestrator.SendMessage(context.Background(), connA, domain.MessagePayload{
		RoomID: roomID, SenderID: 7, ReceiverID: 3, Message: "hello",
	})

	// Then the failure surfaces and the peer hears nothing
	req.ErrorIs(err, errors.ErrPersistenceFailed)
	req.Empty(sinkB.events)
}

func TestSendMessage_Requires_Room_Membership(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	connB, _ := f.connect()
	roomID := f.pairUp(t, connA, connB)

	stranger, _ := f.connect()
	_, err := f.orchestrator.SendMessage(context.Background(), stranger, domain.MessagePayload{
		RoomID: roomID, SenderID: 5, ReceiverID: 3, Message: "hi",
	})
	req.ErrorIs(err, errors.ErrNotBoundToRoom)
}

func TestReadMessage_Stamps_And_Relays_Receipt(t *testing.T) {
	req := require.New(t)

	// Given a paired room
	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)
	f.messages.EXPECT().
		MarkSeenUpTo(int64(3), int64(7), uint64(42), gomock.AssignableToTypeOf(time.Time{})).
		Return(nil)

	// When user 3 acknowledges everything up to message 42
	err := f.orchestrator.ReadMessage(context.Background(), connB, domain.ReadPayload{
		RoomID: roomID, SenderID: 3, ReceiverID: 7, ChatID: 42,
	})
	req.NoError(err)

	// Then only the peer hears the receipt
	req.Empty(sinkB.events)
	req.Equal([]string{"seenMessage"}, eventNames(sinkA))
}

func TestReadMessage_Without_Chat_Id_Still_Relays(t *testing.T) {
	req := require.New(t)

	// Given a paired room; no MarkSeenUpTo expectation is set
	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, _ := f.connect()
	roomID := f.pairUp(t, connA, connB)

	// When the receipt names no message id
	err := f.orchestrator.ReadMessage(context.Background(), connB, domain.ReadPayload{
		RoomID: roomID, SenderID: 3, ReceiverID: 7,
	})
	req.NoError(err)

	// Then the receipt still reaches the peer
	req.Equal([]string{"seenMessage"}, eventNames(sinkA))
}

func TestTyping_Excludes_The_Sender(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)

	err := f.orchestrator.Typing(context.Background(), connA,
		domain.TypingPayload{RoomID: roomID, SenderID: 7})
	req.NoError(err)
	err = f.orchestrator.RemoveTyping(context.Background(), connA,
		domain.TypingPayload{RoomID: roomID, SenderID: 7})
	req.NoError(err)

	req.Empty(sinkA.events)
	req.Equal([]string{"DisplayTyping", "removeTyping"}, eventNames(sinkB))
}

func TestSetOnline_Pushes_Globally_Except_Emitter(t *testing.T) {
	req := require.New(t)

	// Given three connections, one of them unrelated to the pair
	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	_, sinkB := f.connect()
	_, sinkC := f.connect()
	f.users.EXPECT().SetOnline(int64(7), true).Return(nil)

	// When user 7 declares themselves online
	err := f.orchestrator.SetOnline(context.Background(), connA, domain.StatusPayload{SenderID: 7})
	req.NoError(err)

	// Then everyone but the emitter hears statusOnline
	req.Empty(sinkA.events)
	req.Equal([]string{"statusOnline"}, eventNames(sinkB))
	req.Equal([]string{"statusOnline"}, eventNames(sinkC))
	pushed := sinkB.events[0].(event.StatusOnline)
	req.True(pushed.IsOnline)
	req.EqualValues(7, pushed.SenderID)
}

func TestSetOnline_Store_Failure_Is_Returned(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	_, sinkB := f.connect()
	f.users.EXPECT().SetOnline(int64(7), true).Return(context.DeadlineExceeded)

	err := f.orchestrator.SetOnline(context.Background(), connA, domain.StatusPayload{SenderID: 7})

	req.ErrorIs(err, errors.ErrPersistenceFailed)
	req.Empty(sinkB.events)
}

func TestQueryOnline_Answers_The_Room_Including_Requester(t *testing.T) {
	req := require.New(t)

	// Given a paired room and an unrelated third connection
	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)
	_, sinkC := f.connect()
	f.users.EXPECT().FindByID(int64(3)).Return(domain.User{ID: 3, IsOnline: true}, nil)

	// When user 7 polls the peer's status
	err := f.orchestrator.QueryOnline(context.Background(), connA, domain.OnlineQueryPayload{
		SenderID: 7, ReceiverID: 3, RoomID: roomID,
	})
	req.NoError(err)

	// Then the answer reaches the whole room, requester included,
	// and never leaves it
	req.Equal([]string{"statusOnline"}, eventNames(sinkA))
	req.Equal([]string{"statusOnline"}, eventNames(sinkB))
	req.Empty(sinkC.events)
}

func TestQueryOnline_Unknown_User_Is_Silence(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	connB, sinkB := f.connect()
	roomID := f.pairUp(t, connA, connB)
	f.users.EXPECT().FindByID(int64(99)).Return(domain.User{}, errors.ErrUnknownUser)

	err := f.orchestrator.QueryOnline(context.Background(), connA, domain.OnlineQueryPayload{
		SenderID: 7, ReceiverID: 99, RoomID: roomID,
	})

	req.NoError(err)
	req.Empty(sinkA.events)
	req.Empty(sinkB.events)
}

func TestDisconnectExplicit_Announces_Offline_Globally(t *testing.T) {
	req := require.New(t)

	f := newOrchestratorFixture(t)
	connA, sinkA := f.connect()
	_, sinkB := f.connect()
	f.users.EXPECT().SetOnline(int64(7), false).Return(nil)

	err := f.orchestrator.DisconnectExplicit(context.Background(), connA,
		domain.DisconnectPayload{SenderID: 7})
	req.NoError(err)

	req.Empty(sinkA.events)
	req.Equal([]string{"statusOnline"}, eventNames(sinkB))
	pushed := sinkB.events[0].(event.StatusOnline)
	req.False(pushed.IsOnline)
}

func TestReleaseConnection_Reconciles_Every_Room(t *testing.T) {
	req := require.New(t)

	// Given user 7 paired against two peers from one connection
	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	peer3, sink3 := f.connect()
	peer5, sink5 := f.connect()
	f.users.EXPECT().FindByID(gomock.Any()).Return(domain.User{}, nil).AnyTimes()

	room3, err := f.orchestrator.RequestRoom(context.Background(), connA,
		domain.CreateRoomPayload{SenderID: 7, ReceiverID: 3})
	req.NoError(err)
	_, err = f.orchestrator.RequestRoom(context.Background(), peer3,
		domain.CreateRoomPayload{SenderID: 3, ReceiverID: 7})
	req.NoError(err)
	room5, err := f.orchestrator.RequestRoom(context.Background(), connA,
		domain.CreateRoomPayload{SenderID: 7, ReceiverID: 5})
	req.NoError(err)
	_, err = f.orchestrator.RequestRoom(context.Background(), peer5,
		domain.CreateRoomPayload{SenderID: 5, ReceiverID: 7})
	req.NoError(err)

	f.users.EXPECT().SetOnline(int64(7), false).Return(nil).Times(2)

	// When the connection drops abruptly
	f.orchestrator.ReleaseConnection(context.Background(), connA)

	// Then each peer hears exactly one offline and one typing-cancel
	req.Equal([]string{"statusOnline", "removeTyping"}, eventNames(sink3))
	req.Equal([]string{"statusOnline", "removeTyping"}, eventNames(sink5))

	// And the slots and registry entry are gone
	room, _ := f.orchestrator.Directory().Room(room3)
	req.Empty(room.Slots[7])
	room, _ = f.orchestrator.Directory().Room(room5)
	req.Empty(room.Slots[7])
	req.False(f.registry.IsJoined(connA, room3))
	req.Equal(2, f.registry.Len())
}

func TestReleaseConnection_Without_Rooms_Only_Drops_Registry(t *testing.T) {
	req := require.New(t)

	// Given a connection that never paired
	f := newOrchestratorFixture(t)
	connA, _ := f.connect()
	_, sinkB := f.connect()

	// When it drops
	f.orchestrator.ReleaseConnection(context.Background(), connA)

	// Then no event fires and the registry entry is gone anyway
	req.Empty(sinkB.events)
	req.Equal(1, f.registry.Len())
}
