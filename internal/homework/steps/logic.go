package steps

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	hwrepo "github.com/yungbote/homework-backend/internal/data/repos/homework"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/homework"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/localmedia"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// Logic is one step's business logic, keyed by step name.
//
// Run never returns an error and never panics out: phase 1 executes the
// business logic and reports success, phase 2 (the shared post-run hook)
// always runs afterwards and records the terminal step state. Callers
// observe outcomes through the store, not through Run.
type Logic interface {
	StepName() types.StepName
	Run(ctx context.Context, runID uuid.UUID)
}

// BlobStore is the subset of the bucket service the steps need.
type BlobStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

// ChatStreamer is the subset of the model client the steps need.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []openai.Message, onDelta func(delta string)) (string, error)
}

// Notifier receives best-effort step/run state events.
type Notifier interface {
	StepStateChanged(ctx context.Context, runID uuid.UUID, stepName types.StepName, state types.StepState)
	RunSucceeded(ctx context.Context, runID uuid.UUID)
}

// Deps carries everything a step logic may touch. Each logic uses a subset.
type Deps struct {
	Runs   hwrepo.RunRepo
	Tasks  hwrepo.TaskRepo
	Media  hwrepo.MediaRepo
	Blob   BlobStore
	AI     ChatStreamer
	Tools  localmedia.Tools
	Notify Notifier
	Log    *logger.Logger
}

type core struct {
	deps Deps
	log  *logger.Logger
}

// execute is the fixed two-phase wrapper shared by every logic. Phase 1
// may return false or an error or panic; all three count as failure. The
// post-run hook runs unconditionally.
func (c *core) execute(ctx context.Context, runID uuid.UUID, name types.StepName, phaseOne func(ctx context.Context, runID uuid.UUID) (bool, error)) {
	ok := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				c.log.Error("step logic panicked",
					"run_id", runID,
					"step", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		var err error
		ok, err = phaseOne(ctx, runID)
		if err != nil {
			ok = false
			c.log.Error("step logic failed", "run_id", runID, "step", name, "error", err)
		}
	}()
	c.postRun(ctx, runID, name, ok)
}

// postRun reloads the run in a fresh session and records the terminal step
// state. A run deleted between scheduling and execution is a silent no-op.
// A failed step never marks the run FAILED; the run is promoted to
// SUCCEEDED only once every step has succeeded.
func (c *core) postRun(ctx context.Context, runID uuid.UUID, name types.StepName, succeeded bool) {
	dbc := dbctx.Context{Ctx: ctx}

	run, err := c.deps.Runs.GetByID(dbc, runID)
	if err != nil {
		c.log.Error("post-run reload failed", "run_id", runID, "step", name, "error", err)
		return
	}
	if run == nil {
		c.log.Debug("post-run: run no longer exists", "run_id", runID, "step", name)
		return
	}

	step := run.FindStep(name)
	if step == nil {
		c.log.Warn("post-run: step not found on run", "run_id", runID, "step", name)
		return
	}

	newState := types.StepStateFailed
	if succeeded {
		newState = types.StepStateSucceeded
	}
	if err := c.deps.Runs.UpdateStepFields(dbc, step.ID, map[string]interface{}{"state": newState}); err != nil {
		c.log.Error("post-run: step state update failed", "run_id", runID, "step", name, "error", err)
		return
	}
	step.State = newState
	homework.StepsCompleted.WithLabelValues(string(name), string(newState)).Inc()
	if c.deps.Notify != nil {
		c.deps.Notify.StepStateChanged(ctx, runID, name, newState)
	}

	if newState == types.StepStateSucceeded && run.Finished() {
		if err := c.deps.Runs.UpdateFields(dbc, runID, map[string]interface{}{"state": types.RunStateSucceeded}); err != nil {
			c.log.Error("post-run: run promotion failed", "run_id", runID, "error", err)
			return
		}
		if c.deps.Notify != nil {
			c.deps.Notify.RunSucceeded(ctx, runID)
		}
	}
}

// markStarted flips this logic's own step to STARTED before long work.
func (c *core) markStarted(ctx context.Context, runID uuid.UUID, name types.StepName) error {
	dbc := dbctx.Context{Ctx: ctx}
	run, err := c.deps.Runs.GetByID(dbc, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	step := run.FindStep(name)
	if step == nil {
		return fmt.Errorf("run %s has no %s step", runID, name)
	}
	if err := c.deps.Runs.UpdateStepFields(dbc, step.ID, map[string]interface{}{"state": types.StepStateStarted}); err != nil {
		return err
	}
	if c.deps.Notify != nil {
		c.deps.Notify.StepStateChanged(ctx, runID, name, types.StepStateStarted)
	}
	return nil
}
