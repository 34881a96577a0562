package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
)

// Placeholder until a real classification call lands here; the label set is
// what the rest of the product currently keys off.
var fixedHomeworkLabels = []string{"fractions", "multiplication", "grade 5 math"}

type labelingLogic struct {
	core
}

func NewLabeling(deps Deps) Logic {
	return &labelingLogic{core: core{
		deps: deps,
		log:  deps.Log.With("step", string(types.StepNameLabeling)),
	}}
}

func (l *labelingLogic) StepName() types.StepName { return types.StepNameLabeling }

func (l *labelingLogic) Run(ctx context.Context, runID uuid.UUID) {
	l.execute(ctx, runID, l.StepName(), l.assignLabels)
}

func (l *labelingLogic) assignLabels(ctx context.Context, runID uuid.UUID) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}

	run, err := l.deps.Runs.GetByID(dbc, runID)
	if err != nil {
		return false, err
	}
	if run == nil {
		return false, fmt.Errorf("run %s not found", runID)
	}

	if err := l.markStarted(ctx, runID, l.StepName()); err != nil {
		return false, err
	}

	raw, err := json.Marshal(fixedHomeworkLabels)
	if err != nil {
		return false, err
	}
	if err := l.deps.Runs.UpdateFields(dbc, runID, map[string]interface{}{
		"labels": datatypes.JSON(raw),
	}); err != nil {
		return false, err
	}
	return true, nil
}
