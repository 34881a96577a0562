package steps

import (
	"encoding/xml"
	"strings"

	"github.com/yungbote/homework-backend/internal/platform/logger"
)

const (
	taskOpenTag  = "<task>"
	taskCloseTag = "</task>"
)

// ParsedTask is one exercise record decoded from the model's output.
type ParsedTask struct {
	Key         string
	Description string
	Concepts    []string
}

type taskElement struct {
	Identifier  string   `xml:"exercise-identifier"`
	Description string   `xml:"exercise-description"`
	Concepts    []string `xml:"exercise-concepts>concept"`
}

// taskStream is an online parser over an arbitrarily chunked token stream.
// Feed appends a chunk and returns every task whose closing tag arrived
// with it; a partial closing tag never fires. Consumed spans, including
// any prose before them, are dropped from the buffer, so Remainder is
// exactly the trailing content no complete task was parsed from.
type taskStream struct {
	log *logger.Logger
	buf strings.Builder
}

func newTaskStream(log *logger.Logger) *taskStream {
	return &taskStream{log: log}
}

func (s *taskStream) Feed(chunk string) []ParsedTask {
	if chunk == "" {
		return nil
	}
	s.buf.WriteString(chunk)

	var out []ParsedTask
	working := s.buf.String()
	for {
		start := strings.Index(working, taskOpenTag)
		if start < 0 {
			break
		}
		end := strings.Index(working[start:], taskCloseTag)
		if end < 0 {
			break
		}
		segEnd := start + end + len(taskCloseTag)
		segment := working[start:segEnd]
		working = working[segEnd:]

		var el taskElement
		if err := xml.Unmarshal([]byte(segment), &el); err != nil {
			s.log.Warn("discarding malformed task fragment", "error", err, "fragment", segment)
			continue
		}
		out = append(out, ParsedTask{
			Key:         strings.TrimSpace(el.Identifier),
			Description: strings.TrimSpace(el.Description),
			Concepts:    el.Concepts,
		})
	}

	s.buf.Reset()
	s.buf.WriteString(working)
	return out
}

// Remainder returns the unconsumed trailing buffer content.
func (s *taskStream) Remainder() string {
	return s.buf.String()
}
