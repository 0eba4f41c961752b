package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseFormatHint_Recognised tests the three valid hints
func TestParseFormatHint_Recognised(t *testing.T) {
	for raw, want := range map[string]FormatHint{
		"number": FormatNumber,
		"list":   FormatList,
		"text":   FormatText,
		"Number": FormatNumber,
		" text ": FormatText,
	} {
		got, err := ParseFormatHint(raw)
		require.NoError(t, err, "hint %q", raw)
		assert.Equal(t, want, got)
	}
}

// TestParseFormatHint_Unknown tests rejection of unknown hints
func TestParseFormatHint_Unknown(t *testing.T) {
	_, err := ParseFormatHint("float")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestQuestion_Validate tests required field checks
func TestQuestion_Validate(t *testing.T) {
	valid := Question{ID: "q1", Question: "What is AOV?", FormatHint: FormatText}
	assert.NoError(t, valid.Validate())

	cases := map[string]Question{
		"missing id":       {Question: "x", FormatHint: FormatText},
		"missing question": {ID: "q1", FormatHint: FormatText},
		"bad hint":         {ID: "q1", Question: "x", FormatHint: "csv"},
		"blank question":   {ID: "q1", Question: "   ", FormatHint: FormatText},
	}
	for name, q := range cases {
		err := q.Validate()
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

// TestAnswerRecord_JSONShape tests the wire field names of the output record
func TestAnswerRecord_JSONShape(t *testing.T) {
	rec := AnswerRecord{
		ID:          "q1",
		Question:    "What is the total revenue?",
		FinalAnswer: "4567.89",
		Citations:   []string{},
		Confidence:  0.9,
		Explanation: "summed order totals",
		Trace:       []TraceEntry{},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{"id", "question", "final_answer", "citations", "confidence", "explanation", "trace"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "4567.89", m["final_answer"])
}

// TestChunkID_Format tests the citation identifier contract
func TestChunkID_Format(t *testing.T) {
	assert.Equal(t, "kpi_definitions::chunk1", ChunkID("kpi_definitions", 1))
	assert.Equal(t, "catalog::chunk12", ChunkID("catalog", 12))
}
