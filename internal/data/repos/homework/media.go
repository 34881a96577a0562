package homework

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

type MediaRepo interface {
	Create(dbc dbctx.Context, media *types.Media) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Media, error)
	// FirstByRun returns the oldest media row attached to the run, or
	// (nil, nil) when the run has none.
	FirstByRun(dbc dbctx.Context, runID uuid.UUID) (*types.Media, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type mediaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	return &mediaRepo{
		db:  db,
		log: baseLog.With("repo", "MediaRepo"),
	}
}

func (r *mediaRepo) Create(dbc dbctx.Context, media *types.Media) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if media == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(media).Error
}

func (r *mediaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Media, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var media types.Media
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepo) FirstByRun(dbc dbctx.Context, runID uuid.UUID) (*types.Media, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if runID == uuid.Nil {
		return nil, nil
	}
	var media types.Media
	err := transaction.WithContext(dbc.Ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Media{}).
		Where("id = ?", id).
		Updates(updates).Error
}
