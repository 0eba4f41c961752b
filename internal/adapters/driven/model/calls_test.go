package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
)

// stubLLM implements driven.LLMService with canned output.
type stubLLM struct {
	output  string
	err     error
	prompts []string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.output, s.err
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

// TestClassify_FirstToken tests label extraction from padded model output
func TestClassify_FirstToken(t *testing.T) {
	for output, want := range map[string]string{
		"sql":                        "sql",
		"  Hybrid.\n":                "hybrid",
		"rag, because the question":  "rag",
		"\"sql\" is the right mode":  "sql",
	} {
		llm := &stubLLM{output: output}
		calls := NewCalls(llm, WithCallRate(1000))

		label, err := calls.Classify(context.Background(), "What is the return window?")
		require.NoError(t, err, "output %q", output)
		assert.Equal(t, want, label, "output %q", output)
	}
}

// TestClassify_PropagatesBackendError tests transport failure passthrough
func TestClassify_PropagatesBackendError(t *testing.T) {
	llm := &stubLLM{err: errors.New("connection refused")}
	calls := NewCalls(llm, WithCallRate(1000))

	_, err := calls.Classify(context.Background(), "q")
	assert.Error(t, err)
}

// TestGenerateQuery_IncludesGrounding tests prompt assembly
func TestGenerateQuery_IncludesGrounding(t *testing.T) {
	llm := &stubLLM{output: "SELECT 1"}
	calls := NewCalls(llm, WithCallRate(1000))

	sql, err := calls.GenerateQuery(context.Background(),
		"total revenue?", "date_range: 2024-11-01..2024-11-30", "Table: orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sql)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "date_range: 2024-11-01..2024-11-30")
	assert.Contains(t, llm.prompts[0], "Table: orders")
	assert.Contains(t, llm.prompts[0], "total revenue?")
}

// TestExtractConstraints_ParsesJSON tests decoding of a fenced JSON reply
func TestExtractConstraints_ParsesJSON(t *testing.T) {
	llm := &stubLLM{output: "Here you go:\n```json\n" +
		`{"date_start":"2024-11-01","date_end":"2024-11-30","kpi_formula":"AOV = revenue/orders","discount_tier":"","policy_threshold":"0.15"}` +
		"\n```"}
	calls := NewCalls(llm, WithCallRate(1000))

	raw, err := calls.ExtractConstraints(context.Background(), "some chunk text")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-01", raw.DateStart)
	assert.Equal(t, "AOV = revenue/orders", raw.KPIFormula)
	assert.Equal(t, "0.15", raw.PolicyThreshold)
}

// TestExtractConstraints_NoJSON tests the malformed-output error
func TestExtractConstraints_NoJSON(t *testing.T) {
	llm := &stubLLM{output: "I could not find any constraints, sorry."}
	calls := NewCalls(llm, WithCallRate(1000))

	_, err := calls.ExtractConstraints(context.Background(), "text")
	assert.Error(t, err)
}

// TestSynthesize_PayloadTagging tests that chunks are tagged with their
// citation IDs and the repair instruction is surfaced
func TestSynthesize_PayloadTagging(t *testing.T) {
	llm := &stubLLM{output: `{"final_answer":"x","citations":[],"confidence":0.5,"explanation":"e"}`}
	calls := NewCalls(llm, WithCallRate(1000))

	_, err := calls.Synthesize(context.Background(), driven.SynthesisInput{
		Question:          "What is the return window?",
		FormatHint:        domain.FormatNumber,
		Retrieved:         []domain.RetrievedChunk{{ChunkID: "product_policy::chunk3", Text: "Returns within 30 days."}},
		SQL:               "SELECT 1",
		Rows:              `[{"n": 1}]`,
		RepairInstruction: "final_answer must parse as a number",
	})
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "[product_policy::chunk3]")
	assert.Contains(t, prompt, "Returns within 30 days.")
	assert.Contains(t, prompt, "final_answer must parse as a number")
	assert.Contains(t, prompt, "number")
}

// TestFirstJSONObject tests the lenient JSON span finder
func TestFirstJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, firstJSONObject(`noise {"a":1} trailing`))
	assert.Equal(t, "", firstJSONObject("no braces here"))
	assert.Equal(t, "", firstJSONObject("} reversed {"))
}
