package driven

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// Retriever scores corpus chunks against a query and returns the top k.
//
// Implementations must be deterministic: results are sorted by
// descending score with ties broken by ascending chunk ID, a query
// sharing no vocabulary with the corpus yields an empty result (not an
// error), and the underlying index is never mutated. The index is built
// once at startup and is safe for unsynchronised concurrent reads.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}
