// Package duckdb executes validated SQL against a DuckDB warehouse file
// and exposes its catalog for schema ingestion.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/askdb/askdb/internal/domain"
)

// Warehouse wraps a DuckDB database handle.
type Warehouse struct {
	db      *sql.DB
	dataset string
}

// Open opens the DuckDB file at path. An empty path opens an in-memory
// database. dataset is the schema whose tables the catalog lists.
func Open(path, dataset string) (*Warehouse, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if dataset == "" {
		dataset = "main"
	}
	return &Warehouse{db: db, dataset: dataset}, nil
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sql.DB, dataset string) *Warehouse {
	if dataset == "" {
		dataset = "main"
	}
	return &Warehouse{db: db, dataset: dataset}
}

// Ping checks warehouse availability.
func (w *Warehouse) Ping(ctx context.Context) error {
	if err := w.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping warehouse: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Execute runs the statement and materializes all rows.
func (w *Warehouse) Execute(ctx context.Context, sqlText string) (domain.ResultSet, error) {
	rows, err := w.db.QueryContext(ctx, sqlText)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("query columns: %w", err)
	}

	result := domain.ResultSet{Columns: columns, Rows: make([]domain.Row, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return domain.ResultSet{}, fmt.Errorf("scan row: %w", err)
		}

		row := make(domain.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultSet{}, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Tables lists the dataset's tables with their columns in ordinal order.
func (w *Warehouse) Tables(ctx context.Context) ([]domain.TableSchema, error) {
	const q = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = ?
ORDER BY table_name, ordinal_position`

	rows, err := w.db.QueryContext(ctx, q, w.dataset)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		tables  []domain.TableSchema
		current *domain.TableSchema
	)
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if current == nil || current.Name != tableName {
			tables = append(tables, domain.TableSchema{Name: tableName})
			current = &tables[len(tables)-1]
		}
		current.Columns = append(current.Columns, domain.ColumnSchema{Name: columnName, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return tables, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}
