package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// maxRowsInPayload bounds how many result rows reach the synthesis
// prompt. Aggregation questions rarely need more.
const maxRowsInPayload = 5

// Synthesizer merges retrieved text and query results into a draft
// answer. The generation is an external model call; this service builds
// the evidence payload and parses the model's structured output into
// the typed draft shape.
type Synthesizer struct {
	model driven.AnswerSynthesizer
}

// NewSynthesizer creates a synthesizer over a model call.
func NewSynthesizer(model driven.AnswerSynthesizer) *Synthesizer {
	return &Synthesizer{model: model}
}

// Draft produces a draft answer for the current state. An output that
// cannot be parsed into the draft shape returns domain.ErrSynthesisParse,
// which the repair loop treats as a format failure.
func (s *Synthesizer) Draft(ctx context.Context, state *domain.WorkflowState, repairInstruction string) (domain.Draft, error) {
	in := driven.SynthesisInput{
		Question:          state.Question.Question,
		FormatHint:        state.Question.FormatHint,
		Retrieved:         state.Retrieved,
		SQL:               state.GeneratedQuery,
		Rows:              renderRows(state),
		RepairInstruction: repairInstruction,
	}

	raw, err := s.model.Synthesize(ctx, in)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("synthesize: %w", err)
	}

	draft, err := parseDraft(raw)
	if err != nil {
		logger.Warn("Synthesizer: unparseable output: %v", err)
		return domain.Draft{}, err
	}
	return draft, nil
}

// renderRows renders the query outcome for the synthesis payload.
func renderRows(state *domain.WorkflowState) string {
	switch {
	case state.QueryErr != nil:
		return "SQL Error: " + state.QueryErr.RawMessage
	case state.QueryResult != nil:
		rows := state.QueryResult.Rows
		if len(rows) > maxRowsInPayload {
			rows = rows[:maxRowsInPayload]
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "SQL results unavailable."
		}
		return string(data)
	default:
		return ""
	}
}

// rawDraft mirrors the synthesis output contract with untrusted field
// types: models return citations as arrays or comma strings and
// confidence as numbers or strings.
type rawDraft struct {
	FinalAnswer any    `json:"final_answer"`
	Citations   any    `json:"citations"`
	Confidence  any    `json:"confidence"`
	Explanation string `json:"explanation"`
}

// parseDraft decodes the model's raw output into a typed draft.
func parseDraft(raw string) (domain.Draft, error) {
	obj := jsonObjectSpan(raw)
	if obj == "" {
		return domain.Draft{}, fmt.Errorf("%w: no JSON object in output", domain.ErrSynthesisParse)
	}

	var rd rawDraft
	if err := json.Unmarshal([]byte(obj), &rd); err != nil {
		return domain.Draft{}, fmt.Errorf("%w: %v", domain.ErrSynthesisParse, err)
	}

	answer, err := coerceAnswer(rd.FinalAnswer)
	if err != nil {
		return domain.Draft{}, err
	}

	return domain.Draft{
		Answer:      answer,
		Citations:   coerceCitations(rd.Citations),
		Confidence:  coerceConfidence(rd.Confidence),
		Explanation: strings.TrimSpace(rd.Explanation),
	}, nil
}

// coerceAnswer normalizes final_answer into a string or []string.
func coerceAnswer(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, fmt.Sprint(item))
		}
		return items, nil
	case nil:
		return nil, fmt.Errorf("%w: final_answer missing", domain.ErrSynthesisParse)
	default:
		return nil, fmt.Errorf("%w: final_answer has unsupported type %T", domain.ErrSynthesisParse, v)
	}
}

// coerceCitations accepts either a JSON array or a comma-separated
// string; entries without the chunk ID separator are dropped.
func coerceCitations(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if strings.Contains(part, "::") {
				out = append(out, part)
			}
		}
	}
	return out
}

// coerceConfidence accepts a number or numeric string, clamped to [0,1].
// Anything else falls back to 0.5, the neutral midpoint.
func coerceConfidence(v any) float64 {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0.5
		}
		c = parsed
	default:
		return 0.5
	}

	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// jsonObjectSpan returns the outermost {...} span of s, or "".
func jsonObjectSpan(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
