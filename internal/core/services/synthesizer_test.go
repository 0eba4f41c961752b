package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

func TestSynthesizerDraft(t *testing.T) {
	model := &stubSynthesizer{outputs: []string{
		`{"final_answer": "4567.89", "citations": [], "confidence": 0.9, "explanation": "Summed orders.amount."}`,
	}}
	synth := NewSynthesizer(model)
	state := domain.NewWorkflowState(domain.Question{
		ID:         "q1",
		Question:   "What is the total revenue?",
		FormatHint: domain.FormatNumber,
	})
	state.Mode = domain.ModeSQL
	state.GeneratedQuery = "SELECT SUM(amount) FROM orders"
	state.QueryResult = &domain.QueryResult{Rows: []map[string]any{{"total": 4567.89}}}

	draft, err := synth.Draft(context.Background(), state, "")

	require.NoError(t, err)
	assert.Equal(t, "4567.89", draft.Answer)
	assert.Empty(t, draft.Citations)
	assert.InDelta(t, 0.9, draft.Confidence, 0.001)
	assert.Equal(t, "Summed orders.amount.", draft.Explanation)

	require.Len(t, model.inputs, 1)
	in := model.inputs[0]
	assert.Equal(t, "What is the total revenue?", in.Question)
	assert.Equal(t, "SELECT SUM(amount) FROM orders", in.SQL)
	assert.Contains(t, in.Rows, "4567.89")
	assert.Empty(t, in.RepairInstruction)
}

func TestSynthesizerDraftPassesRepairInstruction(t *testing.T) {
	model := &stubSynthesizer{outputs: []string{
		`{"final_answer": "ok", "citations": [], "confidence": 0.5, "explanation": "x"}`,
	}}
	synth := NewSynthesizer(model)
	state := domain.NewWorkflowState(domain.Question{ID: "q1", Question: "q", FormatHint: domain.FormatText})

	_, err := synth.Draft(context.Background(), state, "final_answer list is empty")

	require.NoError(t, err)
	require.Len(t, model.inputs, 1)
	assert.Equal(t, "final_answer list is empty", model.inputs[0].RepairInstruction)
}

func TestSynthesizerDraftModelFailure(t *testing.T) {
	boom := errors.New("connection refused")
	synth := NewSynthesizer(&stubSynthesizer{errs: []error{boom}})
	state := domain.NewWorkflowState(domain.Question{ID: "q1", Question: "q", FormatHint: domain.FormatText})

	_, err := synth.Draft(context.Background(), state, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want func(t *testing.T, d domain.Draft)
	}{
		{
			name: "object embedded in prose",
			raw: "Here is the answer:\n" +
				`{"final_answer": "12", "citations": ["returns_policy::chunk2"], "confidence": 0.8, "explanation": "x"}` +
				"\nLet me know if you need more.",
			want: func(t *testing.T, d domain.Draft) {
				assert.Equal(t, "12", d.Answer)
				assert.Equal(t, []string{"returns_policy::chunk2"}, d.Citations)
			},
		},
		{
			name: "numeric final_answer normalized to string",
			raw:  `{"final_answer": 4567.89, "confidence": 1}`,
			want: func(t *testing.T, d domain.Draft) {
				assert.Equal(t, "4567.89", d.Answer)
				assert.InDelta(t, 1.0, d.Confidence, 0.001)
			},
		},
		{
			name: "list final_answer",
			raw:  `{"final_answer": ["Boots", "Sandals"], "citations": ["catalog::chunk1"], "confidence": 0.7}`,
			want: func(t *testing.T, d domain.Draft) {
				assert.Equal(t, []string{"Boots", "Sandals"}, d.Answer)
			},
		},
		{
			name: "citations as comma string",
			raw:  `{"final_answer": "x", "citations": "a::chunk1, b::chunk2, not a citation", "confidence": 0.5}`,
			want: func(t *testing.T, d domain.Draft) {
				assert.Equal(t, []string{"a::chunk1", "b::chunk2"}, d.Citations)
			},
		},
		{
			name: "confidence as string clamped",
			raw:  `{"final_answer": "x", "confidence": "1.4"}`,
			want: func(t *testing.T, d domain.Draft) {
				assert.InDelta(t, 1.0, d.Confidence, 0.001)
			},
		},
		{
			name: "missing confidence defaults to midpoint",
			raw:  `{"final_answer": "x"}`,
			want: func(t *testing.T, d domain.Draft) {
				assert.InDelta(t, 0.5, d.Confidence, 0.001)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := parseDraft(tt.raw)
			require.NoError(t, err)
			tt.want(t, draft)
		})
	}
}

func TestParseDraftRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no JSON object", "I cannot answer that."},
		{"malformed JSON", `{"final_answer": "x",`},
		{"missing final_answer", `{"citations": [], "confidence": 0.5}`},
		{"object final_answer", `{"final_answer": {"value": 3}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDraft(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSynthesisParse)
		})
	}
}

func TestRenderRows(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		state := domain.NewWorkflowState(domain.Question{ID: "q1"})
		state.QueryErr = &domain.QueryError{Reason: domain.QueryReasonExecution, RawMessage: "no such table"}

		assert.Equal(t, "SQL Error: no such table", renderRows(state))
	})

	t.Run("rows truncated", func(t *testing.T) {
		state := domain.NewWorkflowState(domain.Question{ID: "q1"})
		rows := make([]map[string]any, 0, maxRowsInPayload+3)
		for i := range maxRowsInPayload + 3 {
			rows = append(rows, map[string]any{"sku": fmt.Sprintf("SKU-%d", i)})
		}
		state.QueryResult = &domain.QueryResult{Rows: rows}

		rendered := renderRows(state)
		assert.Contains(t, rendered, fmt.Sprintf("SKU-%d", maxRowsInPayload-1))
		assert.NotContains(t, rendered, fmt.Sprintf("SKU-%d", maxRowsInPayload))
		assert.Equal(t, maxRowsInPayload, strings.Count(rendered, "sku"))
	})

	t.Run("no query ran", func(t *testing.T) {
		state := domain.NewWorkflowState(domain.Question{ID: "q1"})

		assert.Empty(t, renderRows(state))
	})
}
