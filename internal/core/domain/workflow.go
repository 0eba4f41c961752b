package domain

import (
	"strings"
	"time"
)

// Mode is the evidence-source strategy chosen for a question.
type Mode string

// Recognised modes. ModeUnset is the zero state before routing.
const (
	ModeUnset  Mode = ""
	ModeRAG    Mode = "rag"
	ModeSQL    Mode = "sql"
	ModeHybrid Mode = "hybrid"
)

// ParseMode validates a classifier label against the closed mode set.
// Unrecognised labels return ErrInvalidMode; callers fall back to
// ModeHybrid rather than aborting.
func ParseMode(label string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(label))) {
	case ModeRAG:
		return ModeRAG, nil
	case ModeSQL:
		return ModeSQL, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return ModeUnset, ErrInvalidMode
	}
}

// NeedsRetrieval reports whether the mode consults the document corpus.
func (m Mode) NeedsRetrieval() bool {
	return m == ModeRAG || m == ModeHybrid
}

// NeedsQuery reports whether the mode consults the structured store.
func (m Mode) NeedsQuery() bool {
	return m == ModeSQL || m == ModeHybrid
}

// TraceEntry records one stage transition of a workflow.
type TraceEntry struct {
	// Stage is the stage name (router, retriever, planner, query,
	// synthesizer, validator, repair).
	Stage string `json:"stage"`

	// Input is a short summary of the stage input.
	Input string `json:"input"`

	// Output is a short summary of the stage output.
	Output string `json:"output"`

	// Timestamp is when the transition completed.
	Timestamp time.Time `json:"timestamp"`
}

// QueryResult holds the rows returned by the query executor.
type QueryResult struct {
	// Columns are the result column names in select order.
	Columns []string

	// Rows are the result rows as column-name keyed maps.
	Rows []map[string]any
}

// Draft is a synthesized answer before validation.
type Draft struct {
	// Answer is the proposed final answer (string or []string).
	Answer any

	// Citations are the chunk IDs the synthesizer claims to have used.
	Citations []string

	// Confidence is clamped to [0,1] at parse time.
	Confidence float64

	// Explanation describes the derivation.
	Explanation string
}

// WorkflowState is the mutable record threaded through the orchestrator
// for one question. Exactly one question is in flight per instance, so
// no synchronisation is needed within it.
type WorkflowState struct {
	// Question is the immutable input.
	Question Question

	// Mode is the routing decision.
	Mode Mode

	// Retrieved holds the top-k retrieval hits, in rank order.
	Retrieved []RetrievedChunk

	// Constraints are the planner's normalized extraction results.
	Constraints Constraints

	// GeneratedQuery is the SQL produced by the query stage, if any.
	GeneratedQuery string

	// QueryResult holds executor rows on success.
	QueryResult *QueryResult

	// QueryErr holds the wrapped executor failure, if any. The
	// validator treats its presence as a hard failure.
	QueryErr *QueryError

	// Draft is the current synthesized answer.
	Draft Draft

	// Attempts counts repair attempts (0 on first-pass acceptance).
	Attempts int

	// Trace is the append-only transition log.
	Trace []TraceEntry
}

// NewWorkflowState creates the state for one question.
func NewWorkflowState(q Question) *WorkflowState {
	return &WorkflowState{Question: q}
}

// AddTrace appends a transition record with the current time.
func (s *WorkflowState) AddTrace(stage, input, output string) {
	s.Trace = append(s.Trace, TraceEntry{
		Stage:     stage,
		Input:     input,
		Output:    output,
		Timestamp: time.Now().UTC(),
	})
}

// CitedChunkExists reports whether a citation ID matches a retrieved chunk.
func (s *WorkflowState) CitedChunkExists(id string) bool {
	for _, rc := range s.Retrieved {
		if rc.ChunkID == id {
			return true
		}
	}
	return false
}
