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

type RunRepo interface {
	Create(dbc dbctx.Context, run *types.HomeworkAssistanceRun) error
	// GetByID loads the run with its steps. Returns (nil, nil) when the run
	// does not exist; callers decide whether that is an error.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HomeworkAssistanceRun, error)
	GetSteps(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkAssistanceRunStep, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateStepFields(dbc dbctx.Context, stepID uuid.UUID, updates map[string]interface{}) error
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{
		db:  db,
		log: baseLog.With("repo", "RunRepo"),
	}
}

func (r *runRepo) Create(dbc dbctx.Context, run *types.HomeworkAssistanceRun) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(run).Error
}

func (r *runRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HomeworkAssistanceRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.HomeworkAssistanceRun
	err := transaction.WithContext(dbc.Ctx).
		Preload("Steps").
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) GetSteps(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkAssistanceRunStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.HomeworkAssistanceRunStep
	if runID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.HomeworkAssistanceRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *runRepo) UpdateStepFields(dbc dbctx.Context, stepID uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if stepID == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.HomeworkAssistanceRunStep{}).
		Where("id = ?", stepID).
		Updates(updates).Error
}
