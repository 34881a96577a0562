package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/dbctx"
)

const exampleHomework = `
Aufgabe 2 - Sachaufgabe:
Ein Schulbus bringt jeden Tag 38 Kinder zur Schule.
Wie viele Kinder bringt der Bus in 5 Tagen zur Schule?

Rechnung:
Antwortsatz:
`

// explanationLogic is built and tested but not part of DefaultRegistry;
// runs are not created with an EXPLANATION step yet.
type explanationLogic struct {
	core
}

func NewExplanation(deps Deps) Logic {
	return &explanationLogic{core: core{
		deps: deps,
		log:  deps.Log.With("step", string(types.StepNameExplanation)),
	}}
}

func (l *explanationLogic) StepName() types.StepName { return types.StepNameExplanation }

func (l *explanationLogic) Run(ctx context.Context, runID uuid.UUID) {
	l.execute(ctx, runID, l.StepName(), l.explain)
}

func (l *explanationLogic) explain(ctx context.Context, runID uuid.UUID) (bool, error) {
	if err := l.markStarted(ctx, runID, l.StepName()); err != nil {
		return false, err
	}

	messages := []openai.Message{{
		Role:    "user",
		Content: fmt.Sprintf("USE MARKDOWN! - Explain the following Homework Assignment, what is to do, which concepts are important to understand?: %s", exampleHomework),
	}}
	full, err := l.deps.AI.StreamChat(ctx, messages, nil)
	if err != nil {
		return false, fmt.Errorf("explanation stream: %w", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if err := l.deps.Runs.UpdateFields(dbc, runID, map[string]interface{}{
		"explanation": rewriteMathDelimiters(full),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// rewriteMathDelimiters converts LaTeX-style display and inline math
// delimiters to the dollar forms the frontend renderer understands.
func rewriteMathDelimiters(s string) string {
	r := strings.NewReplacer(
		`\[`, "$$",
		`\]`, "$$",
		`\(`, "$",
		`\)`, "$",
	)
	return r.Replace(s)
}
