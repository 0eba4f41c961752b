package services

import (
	"context"
	"sync"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
)

// Deterministic stand-ins for the model-call and storage ports. Scripted
// stubs return their n-th response on the n-th call and hold the last
// response once the script runs out. All stubs are safe for concurrent
// use since batch processing fans questions out over workers.

type stubClassifier struct {
	mu    sync.Mutex
	label string
	err   error
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.label, s.err
}

type stubRetriever struct {
	mu    sync.Mutex
	hits  []domain.RetrievedChunk
	err   error
	calls int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.hits, s.err
}

type stubExtractor struct {
	mu       sync.Mutex
	raw      driven.RawConstraints
	err      error
	calls    int
	lastText string
}

func (s *stubExtractor) ExtractConstraints(_ context.Context, text string) (driven.RawConstraints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastText = text
	return s.raw, s.err
}

type stubGenerator struct {
	mu         sync.Mutex
	queries    []string
	err        error
	calls      int
	groundings []string
	schemas    []string
}

func (s *stubGenerator) GenerateQuery(_ context.Context, _, grounding, schema string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groundings = append(s.groundings, grounding)
	s.schemas = append(s.schemas, schema)
	out := scripted(s.queries, s.calls)
	s.calls++
	return out, s.err
}

type stubExecutor struct {
	mu        sync.Mutex
	results   []*domain.QueryResult
	errs      []error
	schema    string
	schemaErr error
	calls     int
	executed  []string
}

func (s *stubExecutor) Execute(_ context.Context, query string) (*domain.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, query)
	result := scripted(s.results, s.calls)
	err := scripted(s.errs, s.calls)
	s.calls++
	return result, err
}

func (s *stubExecutor) SchemaSummary(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema, s.schemaErr
}

func (s *stubExecutor) Close() error { return nil }

type stubSynthesizer struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
	inputs  []driven.SynthesisInput
}

func (s *stubSynthesizer) Synthesize(_ context.Context, in driven.SynthesisInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, in)
	out := scripted(s.outputs, s.calls)
	err := scripted(s.errs, s.calls)
	s.calls++
	return out, err
}

// scripted returns the n-th scripted value, sticking on the last one.
func scripted[T any](script []T, n int) T {
	var zero T
	if len(script) == 0 {
		return zero
	}
	if n >= len(script) {
		return script[len(script)-1]
	}
	return script[n]
}
