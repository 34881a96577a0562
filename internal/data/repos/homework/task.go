package homework

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, task *types.HomeworkTask) error
	ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkTask, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{
		db:  db,
		log: baseLog.With("repo", "TaskRepo"),
	}
}

func (r *taskRepo) Create(dbc dbctx.Context, task *types.HomeworkTask) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if task == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(task).Error
}

func (r *taskRepo) ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.HomeworkTask
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
