package services

import (
	"context"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/runtime"

	"github.com/google/uuid"
)

// ChatService is the thin facade the transport layer talks to.
// All semantics live in the runtime orchestrator.
type ChatService struct {
	orchestrator *runtime.Orchestrator
}

var _ contract.IChatService = (*ChatService)(nil)

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) RequestRoom(ctx context.Context, connID uuid.UUID, p domain.CreateRoomPayload) (domain.RoomID, error) {
	return s.orchestrator.RequestRoom(ctx, connID, p)
}

func (s *ChatService) SetOnline(ctx context.Context, connID uuid.UUID, p domain.StatusPayload) error {
	return s.orchestrator.SetOnline(ctx, connID, p)
}

func (s *ChatService) QueryOnline(ctx context.Context, connID uuid.UUID, p domain.OnlineQueryPayload) error {
	return s.orchestrator.QueryOnline(ctx, connID, p)
}

func (s *ChatService) Typing(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error {
	return s.orchestrator.Typing(ctx, connID, p)
}

func (s *ChatService) RemoveTyping(ctx context.Context, connID uuid.UUID, p domain.TypingPayload) error {
	return s.orchestrator.RemoveTyping(ctx, connID, p)
}

func (s *ChatService) SendMessage(ctx context.Context, connID uuid.UUID, p domain.MessagePayload) (domain.MessagePayload, error) {
	return s.orchestrator.SendMessage(ctx, connID, p)
}

func (s *ChatService) ReadMessage(ctx context.Context, connID uuid.UUID, p domain.ReadPayload) error {
	return s.orchestrator.ReadMessage(ctx, connID, p)
}

func (s *ChatService) DisconnectExplicit(ctx context.Context, connID uuid.UUID, p domain.DisconnectPayload) error {
	return s.orchestrator.DisconnectExplicit(ctx, connID, p)
}

func (s *ChatService) ReleaseConnection(ctx context.Context, connID uuid.UUID) {
	s.orchestrator.ReleaseConnection(ctx, connID)
}
