//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"

	"github.com/google/uuid"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/runtime"
)

type IChatService interface {
	Connect(ctx context.Context, identity string, connID uuid.UUID, sink contract.EventSink) error
	Disconnect(ctx context.Context, identity string, connID uuid.UUID)
	SendMessage(ctx context.Context, identity, recipient, content string) (domain.Message, error)
	History(ctx context.Context, identity, contact string) (event.HistoryFetched, error)
}

// ChatService is the transport-facing facade over the router. Handlers talk
// to this interface; the router stays free of wire concerns.
type ChatService struct {
	router *runtime.Router
}

func NewChatService(router *runtime.Router) *ChatService {
	return &ChatService{router: router}
}

func (s *ChatService) Connect(ctx context.Context, identity string, connID uuid.UUID, sink contract.EventSink) error {
	return s.router.Connect(ctx, identity, connID, sink)
}

func (s *ChatService) Disconnect(ctx context.Context, identity string, connID uuid.UUID) {
	s.router.Disconnect(ctx, identity, connID)
}

func (s *ChatService) SendMessage(ctx context.Context, identity, recipient, content string) (domain.Message, error) {
	return s.router.SendMessage(ctx, identity, recipient, content)
}

func (s *ChatService) History(ctx context.Context, identity, contact string) (event.HistoryFetched, error) {
	return s.router.History(ctx, identity, contact)
}
