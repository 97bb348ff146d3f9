package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_Connect(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	conn := mocks.NewMockConnection(ctrl)
	conn.EXPECT().ID().Return(domain.ConnID("c1")).AnyTimes()
	svc := NewChatService(log, orchestrator, mocks.NewMockIUserRepository(ctrl), false)
	ctx := context.Background()

	t.Run("should hand the connection to the relay and return an unbound session", func(t *testing.T) {
		req := require.New(t)
		orchestrator.EXPECT().Dispatch(ctx, contract.ConnectCommand{Connection: conn}).Return(nil)

		session, err := svc.Connect(ctx, conn)

		req.NoError(err)
		req.Equal(domain.ConnID("c1"), session.ConnID())
		req.Equal(Unbound, session.State())
	})

	t.Run("should fail when the relay is stopped", func(t *testing.T) {
		req := require.New(t)
		orchestrator.EXPECT().Dispatch(ctx, gomock.Any()).Return(errors.ErrRelayStopped)

		session, err := svc.Connect(ctx, conn)

		req.ErrorIs(err, errors.ErrRelayStopped)
		req.Nil(session)
	})
}

func TestChatService_Directory_And_Presence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	svc := NewChatService(log, orchestrator, users, false)
	ctx := context.Background()

	users.EXPECT().All().Return([]domain.User{alisha, john})
	users.EXPECT().Get(domain.UserID(2)).Return(john, true)
	online := []domain.OnlineUser{{User: alisha, ConnID: "c1"}}
	orchestrator.EXPECT().Stats(ctx).Return(domain.RelayStats{Connections: 1, OnlineUsers: online}, nil)

	req.Equal([]domain.User{alisha, john}, svc.Users())
	user, ok := svc.User(2)
	req.True(ok)
	req.Equal(john, user)

	res, err := svc.Online(ctx)
	req.NoError(err)
	req.Equal(online, res)
}
