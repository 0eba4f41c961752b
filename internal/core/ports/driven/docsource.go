package driven

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// DocumentSource loads the policy/KPI document corpus at startup.
//
// The returned order must be stable across runs: chunk IDs, and
// therefore citations, are derived from document order.
type DocumentSource interface {
	Load(ctx context.Context) ([]domain.Document, error)
}
