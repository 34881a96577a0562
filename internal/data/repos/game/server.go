package game

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

type ServerRepo interface {
	Create(dbc dbctx.Context, s *types.Server) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Server, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type serverRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewServerRepo(db *gorm.DB, baseLog *logger.Logger) ServerRepo {
	return &serverRepo{
		db:  db,
		log: baseLog.With("repo", "ServerRepo"),
	}
}

func (r *serverRepo) Create(dbc dbctx.Context, s *types.Server) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if s == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(s).Error
}

func (r *serverRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Server, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var s types.Server
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serverRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Server{}).Error
}
