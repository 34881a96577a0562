package homework

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/data/repos/testutil"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
)

func TestRunRepoCreateAndGetByID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	run := &types.HomeworkAssistanceRun{
		OwnerUserID: uuid.New(),
		State:       types.RunStateStarted,
		Steps: []types.HomeworkAssistanceRunStep{
			{StepName: types.StepNameLabeling, State: types.StepStatePending},
			{StepName: types.StepNameExtractTasks, State: types.StepStatePending},
		},
	}
	if err := repo.Create(dbc, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("Create did not populate run id")
	}

	got, err := repo.GetByID(dbc, run.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID: run not found")
	}
	if len(got.Steps) != 2 {
		t.Fatalf("steps preloaded: want=2 got=%d", len(got.Steps))
	}
	if got.State != types.RunStateStarted {
		t.Fatalf("state: want=%s got=%s", types.RunStateStarted, got.State)
	}
}

func TestRunRepoGetByIDMissingIsNilNil(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	got, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByID: want=nil got=%+v", got)
	}
}

func TestRunRepoUpdateStepFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	run := &types.HomeworkAssistanceRun{
		OwnerUserID: uuid.New(),
		State:       types.RunStateStarted,
		Steps: []types.HomeworkAssistanceRunStep{
			{StepName: types.StepNameLabeling, State: types.StepStatePending},
		},
	}
	if err := repo.Create(dbc, run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stepID := run.Steps[0].ID
	if err := repo.UpdateStepFields(dbc, stepID, map[string]interface{}{
		"state": types.StepStateSucceeded,
	}); err != nil {
		t.Fatalf("UpdateStepFields: %v", err)
	}

	steps, err := repo.GetSteps(dbc, run.ID)
	if err != nil {
		t.Fatalf("GetSteps: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("steps: want=1 got=%d", len(steps))
	}
	if steps[0].State != types.StepStateSucceeded {
		t.Fatalf("step state: want=%s got=%s", types.StepStateSucceeded, steps[0].State)
	}
}
