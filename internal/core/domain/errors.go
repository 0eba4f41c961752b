package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrEmptyCorpus indicates index building produced no chunks.
	// This is fatal: the batch run aborts before processing questions.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidMode indicates the classifier returned a label outside
	// {rag, sql, hybrid}. Recovered locally by falling back to hybrid.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrSynthesisParse indicates the synthesizer's raw output could not
	// be parsed into a draft answer. Recovered via the repair loop.
	ErrSynthesisParse = errors.New("synthesis output unparseable")

	// ErrInvalidInput indicates malformed batch input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM backend is not reachable.
	// Detected at startup via Ping; fatal before any question runs.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// QueryError reason codes.
const (
	// QueryReasonRejected means the query never reached the engine
	// (non-SELECT statement, empty query).
	QueryReasonRejected = "rejected"

	// QueryReasonExecution means the engine refused or failed the query
	// (syntax error, unknown column or table).
	QueryReasonExecution = "execution"

	// QueryReasonTimeout means the per-call deadline expired.
	QueryReasonTimeout = "timeout"

	// QueryReasonGeneration means the query generator itself failed, so
	// there was no SQL to execute.
	QueryReasonGeneration = "generation"
)

// QueryError wraps a query-execution failure. The repair loop inspects
// it to decide whether to regenerate the query; the engine's native
// error type never crosses this boundary.
type QueryError struct {
	// Reason is one of the QueryReason constants.
	Reason string

	// RawMessage is the underlying engine message, fed back to the
	// query generator on repair attempts.
	RawMessage string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error (%s): %s", e.Reason, e.RawMessage)
}
