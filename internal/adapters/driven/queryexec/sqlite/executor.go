// Package sqlite provides the query execution adapter over the retail
// SQLite database.
//
// Execution is strictly read-only: anything that is not a SELECT (or a
// WITH-prefixed select) is rejected before it reaches the engine. Engine
// failures never escape as driver errors; they are wrapped into
// *domain.QueryError so the repair loop can inspect them.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Ensure Executor implements the port.
var _ driven.QueryExecutor = (*Executor)(nil)

// Executor runs generated SELECT statements against a SQLite database.
type Executor struct {
	db   *sql.DB
	path string
}

// NewExecutor opens the database read-only and verifies it is reachable.
// A missing or unreadable database file fails here, at startup, rather
// than on the first question.
func NewExecutor(dbPath string) (*Executor, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	return &Executor{db: db, path: dbPath}, nil
}

// Execute runs one query and returns its rows. Failures are returned as
// *domain.QueryError with a coarse reason code.
func (e *Executor) Execute(ctx context.Context, query string) (*domain.QueryResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &domain.QueryError{
			Reason:     domain.QueryReasonRejected,
			RawMessage: "empty query",
		}
	}
	if !isSelect(q) {
		logger.Warn("Rejected non-SELECT query: %.80s", q)
		return nil, &domain.QueryError{
			Reason:     domain.QueryReasonRejected,
			RawMessage: "only SELECT statements are allowed",
		}
	}

	logger.Debug("Executing query: %s", q)

	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapEngineError(ctx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrapEngineError(ctx, err)
	}

	result := &domain.QueryResult{Columns: columns, Rows: []map[string]any{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapEngineError(ctx, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normaliseValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapEngineError(ctx, err)
	}

	logger.Debug("Query returned %d rows", len(result.Rows))
	return result, nil
}

// SchemaSummary lists tables and their columns for prompt grounding.
func (e *Executor) SchemaSummary(ctx context.Context) (string, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("listing tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}

	var b strings.Builder
	for _, table := range tables {
		b.WriteString("Table: " + table + "\n")

		cols, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return "", fmt.Errorf("describing table %s: %w", table, err)
		}
		for cols.Next() {
			var (
				cid       int
				name, typ string
				notnull   int
				dflt      sql.NullString
				pk        int
			)
			if err := cols.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
				cols.Close()
				return "", fmt.Errorf("describing table %s: %w", table, err)
			}
			fmt.Fprintf(&b, "  - %s (%s)\n", name, typ)
		}
		if err := cols.Err(); err != nil {
			cols.Close()
			return "", fmt.Errorf("describing table %s: %w", table, err)
		}
		cols.Close()
		b.WriteString("\n")
	}

	return b.String(), nil
}

// Close closes the database connection.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Path returns the database file path.
func (e *Executor) Path() string {
	return e.path
}

// isSelect reports whether the statement is a read query. WITH covers
// common-table-expression selects produced by the query generator.
func isSelect(q string) bool {
	upper := strings.ToUpper(q)
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}

// wrapEngineError converts driver failures into *domain.QueryError.
func wrapEngineError(ctx context.Context, err error) *domain.QueryError {
	reason := domain.QueryReasonExecution
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = domain.QueryReasonTimeout
	}
	return &domain.QueryError{Reason: reason, RawMessage: err.Error()}
}

// normaliseValue converts driver-specific values into JSON-friendly ones.
func normaliseValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
