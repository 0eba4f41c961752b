package cli

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/adapters/driven/search/tfidf"
	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// stubCopilot is a deterministic CopilotService for command tests.
type stubCopilot struct {
	record domain.AnswerRecord
}

func (s *stubCopilot) Process(_ context.Context, q domain.Question) domain.AnswerRecord {
	record := s.record
	record.ID = q.ID
	record.Question = q.Question
	return record
}

func (s *stubCopilot) ProcessBatch(ctx context.Context, questions []domain.Question) []domain.AnswerRecord {
	records := make([]domain.AnswerRecord, len(questions))
	for i, q := range questions {
		records[i] = s.Process(ctx, q)
	}
	return records
}

// setupTestServices injects stub services and returns a cleanup that
// restores the unwired state.
func setupTestServices() func() {
	copilotService = &stubCopilot{
		record: domain.AnswerRecord{
			FinalAnswer: "42",
			Citations:   []string{},
			Confidence:  0.9,
			Explanation: "stubbed",
			Trace:       []domain.TraceEntry{},
		},
	}

	idx, err := tfidf.Build([]domain.Document{
		{Name: "returns_policy", Content: "Returns are accepted within 30 days.\n\nRefunds are issued to the original payment method."},
		{Name: "kpi_definitions", Content: "AOV is revenue divided by order count."},
	})
	if err != nil {
		panic(err)
	}
	searchIndex = idx

	return func() {
		copilotService = nil
		searchIndex = nil
	}
}
