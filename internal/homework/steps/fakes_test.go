package steps

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
)

type fakeRunRepo struct {
	mu sync.Mutex

	run *types.HomeworkAssistanceRun

	getErr     error
	runUpdates []map[string]interface{}
}

func newFakeRunRepo(run *types.HomeworkAssistanceRun) *fakeRunRepo {
	return &fakeRunRepo{run: run}
}

func (f *fakeRunRepo) Create(dbc dbctx.Context, run *types.HomeworkAssistanceRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.run = run
	return nil
}

func (f *fakeRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HomeworkAssistanceRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.run == nil || f.run.ID != id {
		return nil, nil
	}
	cp := *f.run
	cp.Steps = append([]types.HomeworkAssistanceRunStep(nil), f.run.Steps...)
	return &cp, nil
}

func (f *fakeRunRepo) GetSteps(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkAssistanceRunStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.HomeworkAssistanceRunStep
	if f.run == nil || f.run.ID != runID {
		return out, nil
	}
	for i := range f.run.Steps {
		cp := f.run.Steps[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil || f.run.ID != id {
		return errors.New("run not found")
	}
	f.runUpdates = append(f.runUpdates, updates)
	if v, ok := updates["state"]; ok {
		f.run.State = v.(types.RunState)
	}
	if v, ok := updates["labels"].(datatypes.JSON); ok {
		f.run.Labels = v
	}
	if v, ok := updates["explanation"].(string); ok {
		f.run.Explanation = v
	}
	if v, ok := updates["extracted_tasks_raw"].(string); ok {
		f.run.ExtractedTasksRaw = v
	}
	return nil
}

func (f *fakeRunRepo) UpdateStepFields(dbc dbctx.Context, stepID uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run == nil {
		return errors.New("run not found")
	}
	for i := range f.run.Steps {
		if f.run.Steps[i].ID == stepID {
			if v, ok := updates["state"]; ok {
				f.run.Steps[i].State = v.(types.StepState)
			}
			return nil
		}
	}
	return errors.New("step not found")
}

func (f *fakeRunRepo) stepState(name types.StepName) types.StepState {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.run.Steps {
		if f.run.Steps[i].StepName == name {
			return f.run.Steps[i].State
		}
	}
	return ""
}

func (f *fakeRunRepo) runState() types.RunState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.run.State
}

type fakeTaskRepo struct {
	mu      sync.Mutex
	created []*types.HomeworkTask
	err     error
}

func (f *fakeTaskRepo) Create(dbc dbctx.Context, task *types.HomeworkTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, task)
	return nil
}

func (f *fakeTaskRepo) ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.HomeworkTask(nil), f.created...), nil
}

type fakeMediaRepo struct {
	media *types.Media
}

func (f *fakeMediaRepo) Create(dbc dbctx.Context, media *types.Media) error { return nil }

func (f *fakeMediaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Media, error) {
	return f.media, nil
}

func (f *fakeMediaRepo) FirstByRun(dbc dbctx.Context, runID uuid.UUID) (*types.Media, error) {
	return f.media, nil
}

func (f *fakeMediaRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeBlob struct {
	data []byte
	err  error
}

func (f *fakeBlob) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	return f.data, f.err
}

type fakeChatStreamer struct {
	chunks      []string
	err         error
	gotMessages []openai.Message
}

func (f *fakeChatStreamer) StreamChat(ctx context.Context, messages []openai.Message, onDelta func(delta string)) (string, error) {
	f.gotMessages = messages
	var full strings.Builder
	for _, c := range f.chunks {
		full.WriteString(c)
		if onDelta != nil {
			onDelta(c)
		}
	}
	return full.String(), f.err
}

type fakeNotifier struct {
	mu           sync.Mutex
	stepEvents   int
	runSucceeded int
}

func (f *fakeNotifier) StepStateChanged(ctx context.Context, runID uuid.UUID, stepName types.StepName, state types.StepState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepEvents++
}

func (f *fakeNotifier) RunSucceeded(ctx context.Context, runID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runSucceeded++
}
