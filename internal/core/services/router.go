package services

import (
	"context"
	"fmt"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Router decides the evidence-source strategy for a question. The
// classification itself is an external model call; this service only
// validates the returned label against the closed mode set.
type Router struct {
	classifier driven.Classifier
}

// NewRouter creates a mode router over a classifier.
func NewRouter(classifier driven.Classifier) *Router {
	return &Router{classifier: classifier}
}

// Route classifies a question into rag, sql, or hybrid. A label outside
// the closed set returns domain.ErrInvalidMode; callers (the
// orchestrator) fall back to hybrid rather than aborting, since hybrid
// is the safest superset.
func (r *Router) Route(ctx context.Context, question string) (domain.Mode, error) {
	label, err := r.classifier.Classify(ctx, question)
	if err != nil {
		return domain.ModeUnset, fmt.Errorf("classify: %w", err)
	}

	mode, err := domain.ParseMode(label)
	if err != nil {
		logger.Warn("Router: classifier returned unrecognised label %q", label)
		return domain.ModeUnset, fmt.Errorf("label %q: %w", label, err)
	}

	logger.Debug("Router: mode=%s", mode)
	return mode, nil
}
