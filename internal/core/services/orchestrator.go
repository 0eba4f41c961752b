package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Workflow bounds.
const (
	// DefaultTopK is the retrieval depth per question.
	DefaultTopK = 4

	// MaxRepairAttempts is the repair ceiling: 2 repairs, 3 total
	// attempts including the first.
	MaxRepairAttempts = 2
)

// Orchestrator wires the stages into the per-question workflow:
// route, then conditionally retrieve+plan and/or query, then synthesize,
// then validate with bounded repair. It owns no business logic beyond
// conditional dispatch and trace aggregation; two runs over identical
// external-call outputs produce identical records.
type Orchestrator struct {
	router      *Router
	retriever   driven.Retriever
	planner     *Planner
	queryStage  *QueryStage
	synthesizer *Synthesizer
	validator   *Validator
	topK        int
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithTopK sets the retrieval depth.
func WithTopK(k int) OrchestratorOption {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// NewOrchestrator creates the workflow over its stages.
func NewOrchestrator(
	router *Router,
	retriever driven.Retriever,
	planner *Planner,
	queryStage *QueryStage,
	synthesizer *Synthesizer,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		router:      router,
		retriever:   retriever,
		planner:     planner,
		queryStage:  queryStage,
		synthesizer: synthesizer,
		validator:   NewValidator(),
		topK:        DefaultTopK,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one question through the workflow to a terminal record.
// It always returns a record; failures terminate in a sentinel answer,
// never in an error or a missing output line.
func (o *Orchestrator) Process(ctx context.Context, q domain.Question) domain.AnswerRecord {
	logger.Section("Question " + q.ID)
	logger.Info("Processing %q (hint=%s)", preview(q.Question, 80), q.FormatHint)

	state := domain.NewWorkflowState(q)

	// Route. An unrecognised label or classifier failure falls back to
	// hybrid, the safest superset of evidence sources.
	mode, err := o.router.Route(ctx, q.Question)
	if err != nil {
		logger.Warn("Routing failed (%v), falling back to hybrid", err)
		mode = domain.ModeHybrid
	}
	state.Mode = mode
	state.AddTrace("router", preview(q.Question, 100), "mode="+string(mode))

	// Retrieval and constraint planning.
	if mode.NeedsRetrieval() {
		hits, err := o.retriever.Retrieve(ctx, q.Question, o.topK)
		if err != nil {
			logger.Warn("Retrieval failed: %v", err)
			hits = nil
		}
		state.Retrieved = hits
		state.AddTrace("retriever", preview(q.Question, 100),
			fmt.Sprintf("%d chunks: %s", len(hits), chunkIDs(hits)))

		state.Constraints = o.planner.Plan(ctx, hits)
		state.AddTrace("planner", fmt.Sprintf("%d chunks", len(hits)),
			state.Constraints.GroundingText())
	}

	// Query generation and execution.
	if mode.NeedsQuery() {
		o.queryStage.Run(ctx, state)
		state.AddTrace("query", state.Constraints.GroundingText(), queryOutcome(state))
	}

	// Synthesize, validate, repair.
	instruction := ""
	for {
		draft, err := o.synthesizer.Draft(ctx, state, instruction)
		if err != nil {
			state.Draft = domain.Draft{}
			state.AddTrace("synthesizer", instruction, "error: "+err.Error())
			issues := []Issue{{
				Check:  "synthesis",
				Detail: err.Error(),
				Target: RepairSynthesis,
			}}
			if done, record := o.finishOrRepair(ctx, state, issues, &instruction); done {
				return record
			}
			continue
		}

		state.Draft = draft
		state.AddTrace("synthesizer", instruction,
			fmt.Sprintf("confidence=%.2f citations=%d", draft.Confidence, len(draft.Citations)))

		issues := o.validator.Validate(state)
		if len(issues) == 0 {
			state.AddTrace("validator", "", "accepted")
			logger.Info("Accepted after %d repair(s)", state.Attempts)
			return o.acceptedRecord(state)
		}
		state.AddTrace("validator", "", "failed: "+repairInstruction(issues))

		if done, record := o.finishOrRepair(ctx, state, issues, &instruction); done {
			return record
		}
	}
}

// finishOrRepair applies the repair transition. It returns the terminal
// failed record when the ceiling is exhausted; otherwise it increments
// the attempt count, re-runs the query stage when that is the target,
// and updates the instruction for the next synthesis.
func (o *Orchestrator) finishOrRepair(
	ctx context.Context,
	state *domain.WorkflowState,
	issues []Issue,
	instruction *string,
) (bool, domain.AnswerRecord) {
	if state.Attempts >= MaxRepairAttempts {
		logger.Warn("Repair ceiling reached, emitting failed record")
		return true, o.failedRecord(state, issues)
	}

	state.Attempts++
	*instruction = repairInstruction(issues)

	target := repairTarget(issues)
	if target == RepairQuery {
		state.AddTrace("repair", *instruction, "re-running query stage")
		o.queryStage.Run(ctx, state)
		state.AddTrace("query", "repair attempt", queryOutcome(state))
	} else {
		state.AddTrace("repair", *instruction, "re-running synthesizer")
	}

	return false, domain.AnswerRecord{}
}

// acceptedRecord builds the terminal record for an accepted draft.
func (o *Orchestrator) acceptedRecord(state *domain.WorkflowState) domain.AnswerRecord {
	explanation := state.Draft.Explanation
	if explanation == "" {
		explanation = "Answer synthesized from the available evidence."
	}

	citations := state.Draft.Citations
	if citations == nil {
		citations = []string{}
	}

	return domain.AnswerRecord{
		ID:          state.Question.ID,
		Question:    state.Question.Question,
		FinalAnswer: state.Draft.Answer,
		Citations:   citations,
		Confidence:  state.Draft.Confidence,
		Explanation: explanation,
		Trace:       state.Trace,
	}
}

// failedRecord builds the terminal record for an exhausted repair loop.
// The batch never aborts on one question; the sentinel answer and the
// last failure reasons are the user-visible outcome.
func (o *Orchestrator) failedRecord(state *domain.WorkflowState, issues []Issue) domain.AnswerRecord {
	return domain.AnswerRecord{
		ID:          state.Question.ID,
		Question:    state.Question.Question,
		FinalAnswer: domain.FailedAnswer,
		Citations:   []string{},
		Confidence:  0,
		Explanation: fmt.Sprintf("validation failed after %d attempts: %s",
			state.Attempts+1, repairInstruction(issues)),
		Trace: state.Trace,
	}
}

// queryOutcome summarises the query stage result for the trace.
func queryOutcome(state *domain.WorkflowState) string {
	if state.QueryErr != nil {
		return "error: " + state.QueryErr.Error()
	}
	if state.QueryResult == nil {
		return "no result"
	}
	return fmt.Sprintf("%d rows", len(state.QueryResult.Rows))
}

// chunkIDs renders retrieval hits as a compact ID list.
func chunkIDs(hits []domain.RetrievedChunk) string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	return strings.Join(ids, ",")
}

// preview truncates s for trace and log summaries.
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
