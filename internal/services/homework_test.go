package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/homework"
	"github.com/yungbote/homework-backend/internal/homework/steps"
	"github.com/yungbote/homework-backend/internal/platform/apierr"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type memRunRepo struct {
	runs map[uuid.UUID]*types.HomeworkAssistanceRun
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{runs: map[uuid.UUID]*types.HomeworkAssistanceRun{}}
}

func (m *memRunRepo) Create(dbc dbctx.Context, run *types.HomeworkAssistanceRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	for i := range run.Steps {
		if run.Steps[i].ID == uuid.Nil {
			run.Steps[i].ID = uuid.New()
		}
		run.Steps[i].RunID = run.ID
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HomeworkAssistanceRun, error) {
	return m.runs[id], nil
}

func (m *memRunRepo) GetSteps(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkAssistanceRunStep, error) {
	run := m.runs[runID]
	if run == nil {
		return nil, nil
	}
	var out []*types.HomeworkAssistanceRunStep
	for i := range run.Steps {
		out = append(out, &run.Steps[i])
	}
	return out, nil
}

func (m *memRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (m *memRunRepo) UpdateStepFields(dbc dbctx.Context, stepID uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type memTaskRepo struct {
	tasks []*types.HomeworkTask
}

func (m *memTaskRepo) Create(dbc dbctx.Context, task *types.HomeworkTask) error {
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *memTaskRepo) ListByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.HomeworkTask, error) {
	var out []*types.HomeworkTask
	for _, task := range m.tasks {
		if task.RunID == runID {
			out = append(out, task)
		}
	}
	return out, nil
}

type memMediaRepo struct {
	media  map[uuid.UUID]*types.Media
	states []types.MediaUploadState
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{media: map[uuid.UUID]*types.Media{}}
}

func (m *memMediaRepo) Create(dbc dbctx.Context, media *types.Media) error {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	m.media[media.ID] = media
	return nil
}

func (m *memMediaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Media, error) {
	return m.media[id], nil
}

func (m *memMediaRepo) FirstByRun(dbc dbctx.Context, runID uuid.UUID) (*types.Media, error) {
	for _, media := range m.media {
		if media.RunID != nil && *media.RunID == runID {
			return media, nil
		}
	}
	return nil, nil
}

func (m *memMediaRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	media := m.media[id]
	if media == nil {
		return errors.New("media not found")
	}
	if v, ok := updates["upload_state"].(types.MediaUploadState); ok {
		media.UploadState = v
		m.states = append(m.states, v)
	}
	if v, ok := updates["run_id"].(uuid.UUID); ok {
		media.RunID = &v
	}
	return nil
}

type memBucket struct {
	uploaded map[string][]byte
	err      error
}

func newMemBucket() *memBucket { return &memBucket{uploaded: map[string][]byte{}} }

func (b *memBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	if b.err != nil {
		return b.err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.uploaded[key] = data
	return nil
}

func (b *memBucket) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	return b.uploaded[key], nil
}

func (b *memBucket) DeleteFile(ctx context.Context, key string) error { return nil }
func (b *memBucket) GetPublicURL(key string) string                   { return "https://cdn.test/" + key }

type scriptedAI struct {
	chunks []string
	err    error
}

func (a *scriptedAI) StreamChat(ctx context.Context, messages []openai.Message, onDelta func(string)) (string, error) {
	var full strings.Builder
	for _, c := range a.chunks {
		full.WriteString(c)
		if onDelta != nil {
			onDelta(c)
		}
	}
	return full.String(), a.err
}

type noopLogic struct {
	name types.StepName
}

func (l *noopLogic) StepName() types.StepName              { return l.name }
func (l *noopLogic) Run(ctx context.Context, id uuid.UUID) {}

func noopRegistry() *steps.Registry {
	return steps.NewRegistry(
		&noopLogic{name: types.StepNameLabeling},
		&noopLogic{name: types.StepNameExtractTasks},
	)
}

func newTestService(t *testing.T, bucket *memBucket, ai openai.Client) (HomeworkService, *memRunRepo, *memMediaRepo) {
	t.Helper()
	log := testLogger(t)
	runs := newMemRunRepo()
	media := newMemMediaRepo()
	svc := NewHomeworkService(log, runs, &memTaskRepo{}, media, bucket, ai, noopRegistry(), homework.NewDispatcher(log))
	return svc, runs, media
}

func TestCreateRunInitializesStepSet(t *testing.T) {
	svc, _, _ := newTestService(t, newMemBucket(), &scriptedAI{})

	run, err := svc.CreateRun(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.State != types.RunStateStarted {
		t.Fatalf("run state: want=%s got=%s", types.RunStateStarted, run.State)
	}
	if len(run.Steps) != 2 {
		t.Fatalf("steps: want=2 got=%d", len(run.Steps))
	}
	if run.FindStep(types.StepNameLabeling) == nil || run.FindStep(types.StepNameExtractTasks) == nil {
		t.Fatalf("step set incomplete: %+v", run.Steps)
	}
	for i := range run.Steps {
		if run.Steps[i].State != types.StepStatePending {
			t.Fatalf("step %s state: want=%s got=%s", run.Steps[i].StepName, types.StepStatePending, run.Steps[i].State)
		}
	}
}

func TestCreateRunRejectsMissingOwner(t *testing.T) {
	svc, _, _ := newTestService(t, newMemBucket(), &scriptedAI{})

	_, err := svc.CreateRun(context.Background(), uuid.Nil, nil)
	if err == nil {
		t.Fatal("CreateRun: expected error")
	}
	if got := apierr.StatusOf(err); got != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, newMemBucket(), &scriptedAI{})

	_, err := svc.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("GetRun: want not-found, got %v", err)
	}
	if got := apierr.StatusOf(err); got != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", got)
	}
}

func TestScheduleStepsFailsOnUnregisteredName(t *testing.T) {
	log := testLogger(t)
	svc := NewHomeworkService(log, newMemRunRepo(), &memTaskRepo{}, newMemMediaRepo(), newMemBucket(), &scriptedAI{}, steps.NewRegistry(), homework.NewDispatcher(log))

	run := &types.HomeworkAssistanceRun{
		ID:    uuid.New(),
		Steps: []types.HomeworkAssistanceRunStep{{StepName: types.StepNameLabeling}},
	}
	err := svc.ScheduleSteps(context.Background(), run)
	if !errors.Is(err, apierr.ErrConfiguration) {
		t.Fatalf("ScheduleSteps: want configuration error, got %v", err)
	}
}

func TestChatStreamForwardsTokensInOrder(t *testing.T) {
	ai := &scriptedAI{chunks: []string{"Hel", "lo", " there"}}
	svc, _, _ := newTestService(t, newMemBucket(), ai)

	var got []string
	svc.ChatStream(context.Background(), uuid.New(), []openai.Message{{Role: "user", Content: "hi"}}, func(chunk string) {
		got = append(got, chunk)
	})

	if strings.Join(got, "") != "Hello there" {
		t.Fatalf("stream: want=%q got=%q", "Hello there", strings.Join(got, ""))
	}
}

func TestChatStreamErrorBecomesInlineMarker(t *testing.T) {
	ai := &scriptedAI{chunks: []string{"partial "}, err: errors.New("upstream exploded")}
	svc, _, _ := newTestService(t, newMemBucket(), ai)

	var got []string
	svc.ChatStream(context.Background(), uuid.New(), []openai.Message{{Role: "user", Content: "hi"}}, func(chunk string) {
		got = append(got, chunk)
	})

	if len(got) < 2 {
		t.Fatalf("chunks: want>=2 got=%d", len(got))
	}
	if got[0] != "partial " {
		t.Fatalf("first chunk: want=%q got=%q", "partial ", got[0])
	}
	last := got[len(got)-1]
	if last != "\n[ERROR]: upstream exploded" {
		t.Fatalf("final chunk: want=%q got=%q", "\n[ERROR]: upstream exploded", last)
	}
}

func TestUploadHomeworkSuccess(t *testing.T) {
	bucket := newMemBucket()
	svc, _, media := newTestService(t, bucket, &scriptedAI{})
	owner := uuid.New()

	run, err := svc.UploadHomework(context.Background(), owner, "sheet.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("UploadHomework: %v", err)
	}
	if run == nil || run.FileID == nil {
		t.Fatal("run missing file reference")
	}

	m := media.media[*run.FileID]
	if m == nil {
		t.Fatal("media row not created")
	}
	if m.UploadState != types.MediaUploadSuccess {
		t.Fatalf("media state: want=%s got=%s", types.MediaUploadSuccess, m.UploadState)
	}
	if m.RunID == nil || *m.RunID != run.ID {
		t.Fatal("media not attached to run")
	}
	if !strings.HasPrefix(m.StoragePath, owner.String()+"/homeworks/") || !strings.HasSuffix(m.StoragePath, "_sheet.pdf") {
		t.Fatalf("storage path: got=%q", m.StoragePath)
	}
	if _, ok := bucket.uploaded[m.StoragePath]; !ok {
		t.Fatal("bytes not uploaded under the media storage path")
	}
}

func TestUploadHomeworkBlobFailureKeepsRunMarksMediaFailed(t *testing.T) {
	bucket := newMemBucket()
	bucket.err = errors.New("gcs unavailable")
	svc, runs, media := newTestService(t, bucket, &scriptedAI{})

	run, err := svc.UploadHomework(context.Background(), uuid.New(), "sheet.pdf", []byte("pdf-bytes"))
	if err == nil {
		t.Fatal("UploadHomework: expected error")
	}
	if got := apierr.StatusOf(err); got != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", got)
	}

	// The run and its steps were committed and scheduled before the upload;
	// they are not rolled back.
	if run == nil {
		t.Fatal("run should be returned despite upload failure")
	}
	stored := runs.runs[run.ID]
	if stored == nil {
		t.Fatal("run row missing after upload failure")
	}
	if len(stored.Steps) != 2 {
		t.Fatalf("steps: want=2 got=%d", len(stored.Steps))
	}

	m := media.media[*run.FileID]
	if m.UploadState != types.MediaUploadFailed {
		t.Fatalf("media state: want=%s got=%s", types.MediaUploadFailed, m.UploadState)
	}
}
