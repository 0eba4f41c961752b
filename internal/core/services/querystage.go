package services

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// QueryStage generates a SQL query for the question and executes it.
// Generation is an external model call seeded with the question and the
// planner's constraints; execution failures are captured on the state
// as *domain.QueryError, never propagated as engine errors.
type QueryStage struct {
	generator driven.QueryGenerator
	executor  driven.QueryExecutor
}

// NewQueryStage creates a query stage over a generator and executor.
func NewQueryStage(generator driven.QueryGenerator, executor driven.QueryExecutor) *QueryStage {
	return &QueryStage{generator: generator, executor: executor}
}

// Run generates and executes a query, recording the outcome on the
// state. On repair attempts the previous failure is fed back into the
// grounding text so the generator can fix the query.
func (qs *QueryStage) Run(ctx context.Context, state *domain.WorkflowState) {
	grounding := state.Constraints.GroundingText()
	if state.QueryErr != nil {
		grounding += " Previous SQL failed with: " + state.QueryErr.RawMessage + ". Fix the SQL."
	}

	schema, err := qs.executor.SchemaSummary(ctx)
	if err != nil {
		logger.Warn("QueryStage: schema summary unavailable: %v", err)
	}

	sql, err := qs.generator.GenerateQuery(ctx, state.Question.Question, grounding, schema)
	if err != nil {
		state.GeneratedQuery = ""
		state.QueryResult = nil
		state.QueryErr = &domain.QueryError{
			Reason:     domain.QueryReasonGeneration,
			RawMessage: err.Error(),
		}
		return
	}

	sql = stripCodeFences(sql)
	state.GeneratedQuery = sql
	logger.Debug("QueryStage: generated %q", sql)

	result, err := qs.executor.Execute(ctx, sql)
	if err != nil {
		state.QueryResult = nil
		state.QueryErr = asQueryError(err)
		logger.Warn("QueryStage: execution failed: %v", state.QueryErr)
		return
	}

	state.QueryResult = result
	state.QueryErr = nil
	logger.Debug("QueryStage: %d rows", len(result.Rows))
}

// asQueryError coerces an executor failure into *domain.QueryError.
// Executors return that type already; anything else gets wrapped so the
// validator only ever sees one failure shape.
func asQueryError(err error) *domain.QueryError {
	var qerr *domain.QueryError
	if errors.As(err, &qerr) {
		return qerr
	}
	return &domain.QueryError{
		Reason:     domain.QueryReasonExecution,
		RawMessage: err.Error(),
	}
}

// stripCodeFences removes markdown fencing that models wrap SQL in.
func stripCodeFences(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimPrefix(sql, "```sql")
	sql = strings.TrimPrefix(sql, "```")
	sql = strings.TrimSuffix(sql, "```")
	return strings.TrimSpace(sql)
}
