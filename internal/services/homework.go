package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	hwrepo "github.com/yungbote/homework-backend/internal/data/repos/homework"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/homework"
	"github.com/yungbote/homework-backend/internal/homework/steps"
	"github.com/yungbote/homework-backend/internal/platform/apierr"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// runStepSet is the fixed step set every new run is created with.
var runStepSet = []types.StepName{
	types.StepNameLabeling,
	types.StepNameExtractTasks,
}

// StepStatus is one step's name and current state, for polling UIs.
type StepStatus struct {
	Name  types.StepName  `json:"name"`
	State types.StepState `json:"state"`
}

type HomeworkService interface {
	// CreateRun persists a STARTED run with the fixed step set, each step
	// PENDING. Scheduling is a separate call so it can happen strictly
	// after the creating transaction has committed.
	CreateRun(ctx context.Context, ownerUserID uuid.UUID, fileID *uuid.UUID) (*types.HomeworkAssistanceRun, error)
	// ScheduleSteps resolves each step's logic and submits it to the
	// background dispatcher. A step name with no registered logic is a
	// configuration error; already-resolved siblings are still submitted.
	ScheduleSteps(ctx context.Context, run *types.HomeworkAssistanceRun) error
	GetRun(ctx context.Context, runID uuid.UUID) (*types.HomeworkAssistanceRun, error)
	GetStepStates(ctx context.Context, runID uuid.UUID) ([]StepStatus, error)
	ListTasks(ctx context.Context, runID uuid.UUID) ([]*types.HomeworkTask, error)
	// UploadHomework accepts a file, creates the media row and the run,
	// schedules the steps, then uploads the bytes. An upload failure is
	// returned to the caller but the already-scheduled run is kept.
	UploadHomework(ctx context.Context, ownerUserID uuid.UUID, filename string, data []byte) (*types.HomeworkAssistanceRun, error)
	// ChatStream forwards the conversation verbatim to the model and emits
	// each token as it arrives. A mid-stream failure is emitted as one
	// final "\n[ERROR]: ..." chunk; ChatStream itself never fails.
	ChatStream(ctx context.Context, runID uuid.UUID, messages []openai.Message, emit func(chunk string))
}

type homeworkService struct {
	log        *logger.Logger
	runs       hwrepo.RunRepo
	tasks      hwrepo.TaskRepo
	media      hwrepo.MediaRepo
	bucket     BucketService
	ai         openai.Client
	registry   *steps.Registry
	dispatcher *homework.Dispatcher
}

func NewHomeworkService(
	log *logger.Logger,
	runs hwrepo.RunRepo,
	tasks hwrepo.TaskRepo,
	media hwrepo.MediaRepo,
	bucket BucketService,
	ai openai.Client,
	registry *steps.Registry,
	dispatcher *homework.Dispatcher,
) HomeworkService {
	return &homeworkService{
		log:        log.With("service", "HomeworkService"),
		runs:       runs,
		tasks:      tasks,
		media:      media,
		bucket:     bucket,
		ai:         ai,
		registry:   registry,
		dispatcher: dispatcher,
	}
}

func (s *homeworkService) CreateRun(ctx context.Context, ownerUserID uuid.UUID, fileID *uuid.UUID) (*types.HomeworkAssistanceRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, apierr.New(400, "owner_required", fmt.Errorf("%w: owner user id required", apierr.ErrInvalidArgument))
	}

	run := &types.HomeworkAssistanceRun{
		OwnerUserID: ownerUserID,
		FileID:      fileID,
		State:       types.RunStateStarted,
	}
	for _, name := range runStepSet {
		run.Steps = append(run.Steps, types.HomeworkAssistanceRunStep{
			StepName: name,
			State:    types.StepStatePending,
		})
	}

	if err := s.runs.Create(dbctx.Context{Ctx: ctx}, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	homework.RunsCreated.Inc()
	s.log.Info("run created", "run_id", run.ID, "owner_user_id", ownerUserID)
	return run, nil
}

func (s *homeworkService) ScheduleSteps(ctx context.Context, run *types.HomeworkAssistanceRun) error {
	var firstErr error
	for i := range run.Steps {
		step := run.Steps[i]
		logic, err := s.registry.Resolve(step.StepName)
		if err != nil {
			s.log.Error("step not schedulable", "run_id", run.ID, "step", step.StepName, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		runID := run.ID
		s.dispatcher.Submit("step:"+string(step.StepName), func(ctx context.Context) {
			logic.Run(ctx, runID)
		})
	}
	return firstErr
}

func (s *homeworkService) GetRun(ctx context.Context, runID uuid.UUID) (*types.HomeworkAssistanceRun, error) {
	run, err := s.runs.GetByID(dbctx.Context{Ctx: ctx}, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if run == nil {
		return nil, apierr.NotFound("run_not_found", fmt.Errorf("run %s", runID))
	}
	return run, nil
}

func (s *homeworkService) GetStepStates(ctx context.Context, runID uuid.UUID) ([]StepStatus, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]StepStatus, 0, len(run.Steps))
	for i := range run.Steps {
		out = append(out, StepStatus{Name: run.Steps[i].StepName, State: run.Steps[i].State})
	}
	return out, nil
}

func (s *homeworkService) ListTasks(ctx context.Context, runID uuid.UUID) ([]*types.HomeworkTask, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByRun(dbctx.Context{Ctx: ctx}, runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *homeworkService) UploadHomework(ctx context.Context, ownerUserID uuid.UUID, filename string, data []byte) (run *types.HomeworkAssistanceRun, err error) {
	if ownerUserID == uuid.Nil {
		return nil, apierr.New(400, "owner_required", fmt.Errorf("%w: owner user id required", apierr.ErrInvalidArgument))
	}
	if filename == "" || len(data) == 0 {
		return nil, apierr.New(400, "file_required", fmt.Errorf("%w: filename and file bytes required", apierr.ErrInvalidArgument))
	}

	dbc := dbctx.Context{Ctx: ctx}
	media := &types.Media{
		StoragePath:  HomeworkObjectKey(ownerUserID, filename),
		OriginalName: filename,
		UploadState:  types.MediaUploadPending,
	}
	if cErr := s.media.Create(dbc, media); cErr != nil {
		return nil, fmt.Errorf("create media: %w", cErr)
	}

	// Media is finalized on every path, including the early error returns
	// below; the run is never rolled back once scheduled.
	var uploadErr error
	defer func() {
		state := types.MediaUploadSuccess
		if err != nil || uploadErr != nil {
			state = types.MediaUploadFailed
		}
		if uErr := s.media.UpdateFields(dbc, media.ID, map[string]interface{}{"upload_state": state}); uErr != nil {
			s.log.Error("media finalize failed", "media_id", media.ID, "error", uErr)
		}
		homework.UploadsFinished.WithLabelValues(string(state)).Inc()
	}()

	run, err = s.CreateRun(ctx, ownerUserID, &media.ID)
	if err != nil {
		return nil, err
	}
	if uErr := s.media.UpdateFields(dbc, media.ID, map[string]interface{}{"run_id": run.ID}); uErr != nil {
		err = fmt.Errorf("attach media to run: %w", uErr)
		return nil, err
	}

	if sErr := s.ScheduleSteps(ctx, run); sErr != nil {
		err = sErr
		return nil, err
	}

	if uploadErr = s.bucket.UploadFile(ctx, media.StoragePath, bytes.NewReader(data)); uploadErr != nil {
		err = apierr.New(500, "upload_failed", fmt.Errorf("upload %q: %w", media.StoragePath, uploadErr))
		return run, err
	}
	return run, nil
}

func (s *homeworkService) ChatStream(ctx context.Context, runID uuid.UUID, messages []openai.Message, emit func(chunk string)) {
	_, err := s.ai.StreamChat(ctx, messages, emit)
	if err != nil {
		s.log.Warn("chat stream failed", "run_id", runID, "error", err)
		emit(fmt.Sprintf("\n[ERROR]: %s", err.Error()))
	}
}
