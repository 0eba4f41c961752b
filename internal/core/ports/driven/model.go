package driven

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// Classifier decides the evidence-source strategy for a question.
// The returned label is untrusted: core validates it against the closed
// mode set and falls back to hybrid when it does not fit.
type Classifier interface {
	Classify(ctx context.Context, question string) (string, error)
}

// QueryGenerator produces a SQL query string for a question.
// Grounding is the planner's constraint text (KPI formulas, date ranges)
// plus any repair feedback; schema is the executor's schema summary.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, question, grounding, schema string) (string, error)
}

// RawConstraints are the unvalidated fields returned by the constraint
// extraction model call. The planner normalizes them into
// domain.Constraints and discards anything malformed.
type RawConstraints struct {
	// DateStart and DateEnd bound a date range, free-form.
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`

	// KPIFormula is a documented KPI formula, free-form.
	KPIFormula string `json:"kpi_formula"`

	// DiscountTier names a discount tier, free-form.
	DiscountTier string `json:"discount_tier"`

	// PolicyThreshold is a numeric policy cutoff, free-form.
	PolicyThreshold string `json:"policy_threshold"`
}

// ConstraintExtractor pulls structured facts out of retrieved text.
type ConstraintExtractor interface {
	ExtractConstraints(ctx context.Context, text string) (RawConstraints, error)
}

// SynthesisInput is the payload for the answer synthesis model call.
// Core builds it; the adapter renders it into a prompt.
type SynthesisInput struct {
	// Question is the original question text.
	Question string

	// FormatHint is the expected answer shape.
	FormatHint domain.FormatHint

	// Retrieved holds the retrieval hits, each tagged with its
	// citation ID when rendered.
	Retrieved []domain.RetrievedChunk

	// SQL is the executed query, empty when no query ran.
	SQL string

	// Rows is the JSON-rendered query result, or an error/absence note.
	Rows string

	// RepairInstruction describes prior validation failures on repair
	// attempts; empty on the first pass.
	RepairInstruction string
}

// AnswerSynthesizer produces a draft answer from all evidence sources.
// The return value is the model's raw output; parsing it into a
// domain.Draft is core's responsibility, not the adapter's.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (string, error)
}
