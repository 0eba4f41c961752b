package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driving"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// DefaultConcurrency is the batch worker count when none is configured.
const DefaultConcurrency = 4

// Copilot is the driving-side entry point. It delegates single questions
// to the orchestrator and fans batches out over a bounded worker pool,
// keeping results in input order regardless of completion order.
type Copilot struct {
	orchestrator *Orchestrator
	concurrency  int
}

var _ driving.CopilotService = (*Copilot)(nil)

// CopilotOption configures the copilot.
type CopilotOption func(*Copilot)

// WithConcurrency sets the batch worker count.
func WithConcurrency(n int) CopilotOption {
	return func(c *Copilot) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCopilot creates the service over an orchestrator.
func NewCopilot(orchestrator *Orchestrator, opts ...CopilotOption) *Copilot {
	c := &Copilot{
		orchestrator: orchestrator,
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process answers a single question.
func (c *Copilot) Process(ctx context.Context, q domain.Question) domain.AnswerRecord {
	return c.orchestrator.Process(ctx, q)
}

// ProcessBatch answers every question concurrently and returns one
// record per question, in input order. A panic or a cancelled context
// still yields a record for the affected questions; the batch never
// loses an output line.
func (c *Copilot) ProcessBatch(ctx context.Context, questions []domain.Question) []domain.AnswerRecord {
	runID := uuid.NewString()
	logger.Section("Batch " + runID)
	logger.Info("Processing %d questions with %d workers", len(questions), c.concurrency)

	results := make([]domain.AnswerRecord, len(questions))

	pool, err := ants.NewPool(c.concurrency)
	if err != nil {
		logger.Warn("Worker pool unavailable (%v), processing sequentially", err)
		for i, q := range questions {
			results[i] = c.processSafely(ctx, q)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, q := range questions {
		if ctx.Err() != nil {
			results[i] = cancelledRecord(q, ctx.Err())
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = c.processSafely(ctx, q)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = cancelledRecord(q, submitErr)
		}
	}
	wg.Wait()

	logger.Info("Batch %s complete", runID)
	return results
}

// processSafely runs one question, converting a panic in any stage into
// a failed record instead of killing the whole batch.
func (c *Copilot) processSafely(ctx context.Context, q domain.Question) (record domain.AnswerRecord) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Question %s panicked: %v", q.ID, r)
			record = domain.AnswerRecord{
				ID:          q.ID,
				Question:    q.Question,
				FinalAnswer: domain.FailedAnswer,
				Citations:   []string{},
				Confidence:  0,
				Explanation: fmt.Sprintf("internal error: %v", r),
				Trace:       []domain.TraceEntry{},
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return cancelledRecord(q, err)
	}
	return c.orchestrator.Process(ctx, q)
}

// cancelledRecord is the sentinel output for a question that never ran.
func cancelledRecord(q domain.Question, err error) domain.AnswerRecord {
	return domain.AnswerRecord{
		ID:          q.ID,
		Question:    q.Question,
		FinalAnswer: domain.FailedAnswer,
		Citations:   []string{},
		Confidence:  0,
		Explanation: "not processed: " + err.Error(),
		Trace:       []domain.TraceEntry{},
	}
}
