package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestFinishedRequiresEverySucceededStep(t *testing.T) {
	run := &HomeworkAssistanceRun{
		Steps: []HomeworkAssistanceRunStep{
			{StepName: StepNameLabeling, State: StepStateSucceeded},
			{StepName: StepNameExtractTasks, State: StepStateStarted},
		},
	}
	if run.Finished() {
		t.Fatal("Finished: want=false with a non-succeeded step")
	}

	run.Steps[1].State = StepStateSucceeded
	if !run.Finished() {
		t.Fatal("Finished: want=true when all steps succeeded")
	}
}

func TestFinishedIsVacuouslyTrueWithoutSteps(t *testing.T) {
	run := &HomeworkAssistanceRun{}
	if !run.Finished() {
		t.Fatal("Finished: want=true for a run with no steps")
	}
}

func TestFindStepReturnsFirstMatchOrNil(t *testing.T) {
	run := &HomeworkAssistanceRun{
		Steps: []HomeworkAssistanceRunStep{
			{ID: uuid.New(), StepName: StepNameLabeling},
			{ID: uuid.New(), StepName: StepNameExtractTasks},
		},
	}
	step := run.FindStep(StepNameExtractTasks)
	if step == nil || step.ID != run.Steps[1].ID {
		t.Fatalf("FindStep: wrong step: %+v", step)
	}
	if run.FindStep(StepNameExplanation) != nil {
		t.Fatal("FindStep: want=nil for absent step name")
	}
}

func TestLabelListRoundTripAndMalformedColumn(t *testing.T) {
	run := &HomeworkAssistanceRun{}
	if got := run.LabelList(); got != nil {
		t.Fatalf("LabelList on empty column: want=nil got=%v", got)
	}

	run.SetLabels([]string{"fractions", "multiplication"})
	got := run.LabelList()
	if len(got) != 2 || got[0] != "fractions" || got[1] != "multiplication" {
		t.Fatalf("LabelList: got=%v", got)
	}

	run.Labels = []byte(`{"not": "a list"`)
	if got := run.LabelList(); got != nil {
		t.Fatalf("LabelList on malformed column: want=nil got=%v", got)
	}
}

func TestTaskConceptsRoundTrip(t *testing.T) {
	task := &HomeworkTask{}
	task.SetConcepts(nil)
	if got := task.ConceptList(); len(got) != 0 {
		t.Fatalf("ConceptList after SetConcepts(nil): want=[] got=%v", got)
	}
	task.SetConcepts([]string{"fractions"})
	got := task.ConceptList()
	if len(got) != 1 || got[0] != "fractions" {
		t.Fatalf("ConceptList: got=%v", got)
	}
}
