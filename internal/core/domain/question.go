package domain

import (
	"fmt"
	"strings"
)

// FormatHint declares the expected shape of a final answer.
type FormatHint string

// Recognised format hints.
const (
	FormatNumber FormatHint = "number"
	FormatList   FormatHint = "list"
	FormatText   FormatHint = "text"
)

// ParseFormatHint validates a raw hint string against the closed set.
func ParseFormatHint(s string) (FormatHint, error) {
	switch FormatHint(strings.ToLower(strings.TrimSpace(s))) {
	case FormatNumber:
		return FormatNumber, nil
	case FormatList:
		return FormatList, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format_hint %q", ErrInvalidInput, s)
	}
}

// Question is one input question from a batch. Immutable once read.
type Question struct {
	// ID uniquely identifies the question within its batch.
	ID string `json:"id"`

	// Question is the natural-language question text.
	Question string `json:"question"`

	// FormatHint is the expected answer shape.
	FormatHint FormatHint `json:"format_hint"`
}

// Validate checks the required fields of a parsed question.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: question id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question text is required (id=%s)", ErrInvalidInput, q.ID)
	}
	if _, err := ParseFormatHint(string(q.FormatHint)); err != nil {
		return fmt.Errorf("question %s: %w", q.ID, err)
	}
	return nil
}

// FailedAnswer is the sentinel final_answer emitted when the repair loop
// exhausts its attempts. A failed question still produces a full record;
// the batch never loses an output line.
const FailedAnswer = "unanswered"

// AnswerRecord is the emitted output for one question, immutable once
// produced. Field names match the JSONL output contract.
type AnswerRecord struct {
	// ID echoes the question ID.
	ID string `json:"id"`

	// Question echoes the question text.
	Question string `json:"question"`

	// FinalAnswer is the answer value. A string for text/number hints,
	// a []string for list hints, or the FailedAnswer sentinel.
	FinalAnswer any `json:"final_answer"`

	// Citations lists the chunk IDs the answer is grounded on.
	// Always present in output, empty for pure SQL answers.
	Citations []string `json:"citations"`

	// Confidence is the synthesizer's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Explanation describes how the answer was derived, or the last
	// validation failure for a failed record.
	Explanation string `json:"explanation"`

	// Trace is the ordered record of every stage transition.
	Trace []TraceEntry `json:"trace"`
}
