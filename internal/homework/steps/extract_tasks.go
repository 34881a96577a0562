package steps

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/homework"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
	"github.com/yungbote/homework-backend/internal/platform/localmedia"
)

const extractTasksPrompt = `You are given a photo of a homework sheet. List every exercise you can find on it.
Respond with nothing but a sequence of <task> elements, one per exercise, in this exact shape:
<task><exercise-identifier>short identifier, e.g. "Aufgabe 2"</exercise-identifier><exercise-description>full text of the exercise</exercise-description><exercise-concepts><concept>one concept</concept><concept>another concept</concept></exercise-concepts></task>
Emit at least one <concept> per task. Do not wrap the output in markdown or code fences.`

type extractTasksLogic struct {
	core
}

func NewExtractTasks(deps Deps) Logic {
	return &extractTasksLogic{core: core{
		deps: deps,
		log:  deps.Log.With("step", string(types.StepNameExtractTasks)),
	}}
}

func (e *extractTasksLogic) StepName() types.StepName { return types.StepNameExtractTasks }

func (e *extractTasksLogic) Run(ctx context.Context, runID uuid.UUID) {
	e.execute(ctx, runID, e.StepName(), e.extract)
}

func (e *extractTasksLogic) extract(ctx context.Context, runID uuid.UUID) (bool, error) {
	if err := e.markStarted(ctx, runID, e.StepName()); err != nil {
		return false, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	media, err := e.deps.Media.FirstByRun(dbc, runID)
	if err != nil {
		return false, err
	}
	if media == nil {
		return false, fmt.Errorf("run %s has no media to extract from", runID)
	}

	raw, err := e.deps.Blob.DownloadFile(ctx, media.StoragePath)
	if err != nil {
		return false, fmt.Errorf("download %q: %w", media.StoragePath, err)
	}

	pageBytes, err := e.firstPageAsPNG(ctx, media, raw)
	if err != nil {
		return false, err
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pageBytes)

	parser := newTaskStream(e.log)
	var persistErr error
	onDelta := func(delta string) {
		if persistErr != nil {
			return
		}
		for _, pt := range parser.Feed(delta) {
			task := &types.HomeworkTask{
				RunID:       runID,
				Key:         pt.Key,
				Description: pt.Description,
			}
			task.SetConcepts(pt.Concepts)
			if err := e.deps.Tasks.Create(dbc, task); err != nil {
				persistErr = fmt.Errorf("persist task %q: %w", pt.Key, err)
				return
			}
			homework.TasksExtracted.Inc()
		}
	}

	messages := []openai.Message{{
		Role:    "user",
		Content: extractTasksPrompt,
		Images:  []openai.ImageInput{{ImageURL: dataURL, Detail: "high"}},
	}}
	_, streamErr := e.deps.AI.StreamChat(ctx, messages, onDelta)

	// Trailing unclosed output is kept verbatim so nothing the model said
	// is lost, even when the stream errored mid-answer.
	if rem := parser.Remainder(); strings.TrimSpace(rem) != "" {
		if err := e.deps.Runs.UpdateFields(dbc, runID, map[string]interface{}{
			"extracted_tasks_raw": rem,
		}); err != nil {
			e.log.Error("storing raw extraction remainder failed", "run_id", runID, "error", err)
		}
	}

	if persistErr != nil {
		return false, persistErr
	}
	if streamErr != nil {
		return false, fmt.Errorf("extraction stream: %w", streamErr)
	}
	return true, nil
}

// firstPageAsPNG normalizes the uploaded document to a single PNG page:
// PDFs are rasterized at page 1, images are decoded and re-encoded.
func (e *extractTasksLogic) firstPageAsPNG(ctx context.Context, media *types.Media, raw []byte) ([]byte, error) {
	if isPDFPath(media.OriginalName) || isPDFPath(media.StoragePath) {
		pdfPath, cleanup, err := e.deps.Tools.WriteTempFile(ctx, raw, ".pdf")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		outDir, err := os.MkdirTemp("", "homework-pages-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(outDir)

		pagePath, err := e.deps.Tools.RenderPDFPage(ctx, pdfPath, outDir, 1, localmedia.PDFRenderOptions{Format: "png"})
		if err != nil {
			return nil, fmt.Errorf("rasterize first page: %w", err)
		}
		return os.ReadFile(pagePath)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode uploaded image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isPDFPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".pdf")
}
