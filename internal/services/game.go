package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gamerepo "github.com/yungbote/homework-backend/internal/data/repos/game"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/apierr"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// GameService covers the game persistence area. No gameplay loop exists;
// server rows are created and torn down by ops tooling.
type GameService interface {
	CreateServer(ctx context.Context, name string) (*types.Server, error)
	DeleteServer(ctx context.Context, id uuid.UUID) (*types.Server, error)
}

type gameService struct {
	log     *logger.Logger
	servers gamerepo.ServerRepo
}

func NewGameService(log *logger.Logger, servers gamerepo.ServerRepo) GameService {
	return &gameService{
		log:     log.With("service", "GameService"),
		servers: servers,
	}
}

func (s *gameService) CreateServer(ctx context.Context, name string) (*types.Server, error) {
	if name == "" {
		return nil, apierr.New(400, "name_required", fmt.Errorf("%w: server name required", apierr.ErrInvalidArgument))
	}
	now := time.Now()
	server := &types.Server{Name: name, StartedAt: &now}
	if err := s.servers.Create(dbctx.Context{Ctx: ctx}, server); err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	return server, nil
}

func (s *gameService) DeleteServer(ctx context.Context, id uuid.UUID) (*types.Server, error) {
	dbc := dbctx.Context{Ctx: ctx}
	server, err := s.servers.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load server: %w", err)
	}
	if server == nil {
		return nil, apierr.NotFound("server_not_found", fmt.Errorf("server %s", id))
	}
	if err := s.servers.Delete(dbc, id); err != nil {
		return nil, fmt.Errorf("delete server: %w", err)
	}
	return server, nil
}
