package driven

import (
	"context"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// QueryExecutor runs a generated query string against the retail
// database. Execution is read-only in this domain.
//
// Failures are returned as *domain.QueryError so the repair loop can
// inspect the reason; the engine's native error types never escape the
// adapter. Core knows nothing of the storage schema beyond the column
// names returned in rows and the schema summary it passes to the query
// generator.
type QueryExecutor interface {
	// Execute runs one query and returns its rows.
	Execute(ctx context.Context, query string) (*domain.QueryResult, error)

	// SchemaSummary describes tables and columns for prompt grounding.
	SchemaSummary(ctx context.Context) (string, error)

	// Close releases the underlying connection.
	Close() error
}
