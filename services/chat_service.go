package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
)

type IChatService interface {
	Connect(ctx context.Context, conn contract.Connection) (*Session, error)
	Users() []domain.User
	User(id domain.UserID) (domain.User, bool)
	Online(ctx context.Context) ([]domain.OnlineUser, error)
	Stats(ctx context.Context) (domain.RelayStats, error)
}

var _ IChatService = (*ChatService)(nil)

// ChatService is the entry point of the transports into the relay.
type ChatService struct {
	log           *slog.Logger
	orchestrator  contract.IOrchestrator
	users         repositories.IUserRepository
	enforceSender bool
}

func NewChatService(log *slog.Logger, o contract.IOrchestrator,
	users repositories.IUserRepository, enforceSender bool) *ChatService {
	return &ChatService{log: log, orchestrator: o, users: users, enforceSender: enforceSender}
}

// Connect hands the connection to the relay and returns its unbound session.
func (s *ChatService) Connect(ctx context.Context, conn contract.Connection) (*Session, error) {
	if err := s.orchestrator.Dispatch(ctx, contract.ConnectCommand{Connection: conn}); err != nil {
		return nil, fmt.Errorf("connect %s: %w", conn.ID(), err)
	}
	s.log.Debug("Session opened", "conn_id", conn.ID())
	return NewSession(conn.ID(), s.orchestrator, s.enforceSender), nil
}

// Users lists the directory, sorted by id.
func (s *ChatService) Users() []domain.User {
	return s.users.All()
}

func (s *ChatService) User(id domain.UserID) (domain.User, bool) {
	return s.users.Get(id)
}

func (s *ChatService) Online(ctx context.Context) ([]domain.OnlineUser, error) {
	stats, err := s.orchestrator.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return stats.OnlineUsers, nil
}

func (s *ChatService) Stats(ctx context.Context) (domain.RelayStats, error) {
	return s.orchestrator.Stats(ctx)
}
