package driving

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// CopilotService answers retail analytics questions.
type CopilotService interface {
	// Process runs one question through the full workflow. It always
	// returns a record: a question that exhausts its repair attempts
	// yields a failed record, never an error.
	Process(ctx context.Context, q domain.Question) domain.AnswerRecord

	// ProcessBatch runs a batch of independent questions and returns
	// one record per question, in input order.
	ProcessBatch(ctx context.Context, questions []domain.Question) []domain.AnswerRecord
}
