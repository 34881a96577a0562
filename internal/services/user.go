package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	userrepo "github.com/yungbote/homework-backend/internal/data/repos/user"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/apierr"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

type CreateUserInput struct {
	AuthUserID string `json:"auth_user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*types.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	GetUserByAuthUserID(ctx context.Context, authUserID string) (*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users userrepo.UserRepo
}

func NewUserService(log *logger.Logger, users userrepo.UserRepo) UserService {
	return &userService{
		log:   log.With("service", "UserService"),
		users: users,
	}
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*types.User, error) {
	if in.AuthUserID == "" {
		return nil, apierr.New(400, "auth_user_id_required", fmt.Errorf("%w: auth_user_id required", apierr.ErrInvalidArgument))
	}
	u := &types.User{
		AuthUserID: in.AuthUserID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
	}
	if err := s.users.Create(dbctx.Context{Ctx: ctx}, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user %s", id))
	}
	return u, nil
}

func (s *userService) GetUserByAuthUserID(ctx context.Context, authUserID string) (*types.User, error) {
	u, err := s.users.GetByAuthUserID(dbctx.Context{Ctx: ctx}, authUserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("auth user id %q", authUserID))
	}
	return u, nil
}
