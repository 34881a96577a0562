package steps

import (
	"testing"

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

func TestTaskStreamDoesNotFireOnPartialClosingTag(t *testing.T) {
	s := newTaskStream(testLogger(t))

	first := `<task><exercise-identifier>Ex1</exercise-identifier><exercise-description>desc</exercise-description><exercise-concepts><concept>fractions</concept></exercise-concepts></`
	if got := s.Feed(first); len(got) != 0 {
		t.Fatalf("tasks after partial closing tag: want=0 got=%d", len(got))
	}

	got := s.Feed("task>")
	if len(got) != 1 {
		t.Fatalf("tasks after closing tag completes: want=1 got=%d", len(got))
	}
	if got[0].Key != "Ex1" {
		t.Fatalf("key: want=%q got=%q", "Ex1", got[0].Key)
	}
	if got[0].Description != "desc" {
		t.Fatalf("description: want=%q got=%q", "desc", got[0].Description)
	}
	if len(got[0].Concepts) != 1 || got[0].Concepts[0] != "fractions" {
		t.Fatalf("concepts: want=[fractions] got=%v", got[0].Concepts)
	}
	if s.Remainder() != "" {
		t.Fatalf("remainder: want empty got=%q", s.Remainder())
	}
}

func TestTaskStreamParsesMultipleTasksInOneChunk(t *testing.T) {
	s := newTaskStream(testLogger(t))

	chunk := `<task><exercise-identifier>A</exercise-identifier><exercise-description>a</exercise-description><exercise-concepts><concept>x</concept></exercise-concepts></task>` +
		`<task><exercise-identifier>B</exercise-identifier><exercise-description>b</exercise-description><exercise-concepts><concept>y</concept><concept>z</concept></exercise-concepts></task>`
	got := s.Feed(chunk)
	if len(got) != 2 {
		t.Fatalf("tasks: want=2 got=%d", len(got))
	}
	if got[0].Key != "A" || got[1].Key != "B" {
		t.Fatalf("keys: want=[A B] got=[%s %s]", got[0].Key, got[1].Key)
	}
	if len(got[1].Concepts) != 2 {
		t.Fatalf("second task concepts: want=2 got=%d", len(got[1].Concepts))
	}
}

func TestTaskStreamDiscardsMalformedFragmentAndContinues(t *testing.T) {
	s := newTaskStream(testLogger(t))

	chunk := `<task><exercise-identifier>broken</task>` +
		`<task><exercise-identifier>B</exercise-identifier><exercise-description>b</exercise-description><exercise-concepts><concept>y</concept></exercise-concepts></task>`
	got := s.Feed(chunk)
	if len(got) != 1 {
		t.Fatalf("tasks: want=1 got=%d", len(got))
	}
	if got[0].Key != "B" {
		t.Fatalf("key: want=%q got=%q", "B", got[0].Key)
	}
}

func TestTaskStreamRemainderKeepsTrailingContent(t *testing.T) {
	s := newTaskStream(testLogger(t))

	chunk := `intro prose <task><exercise-identifier>A</exercise-identifier><exercise-description>a</exercise-description><exercise-concepts><concept>x</concept></exercise-concepts></task>Here are more: <task><exercise-iden`
	got := s.Feed(chunk)
	if len(got) != 1 {
		t.Fatalf("tasks: want=1 got=%d", len(got))
	}
	want := "Here are more: <task><exercise-iden"
	if s.Remainder() != want {
		t.Fatalf("remainder: want=%q got=%q", want, s.Remainder())
	}
}
