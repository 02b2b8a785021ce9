package ingest

import (
	"context"

	"github.com/askdb/askdb/internal/domain"
)

// Catalog lists the warehouse tables to index.
type Catalog interface {
	Tables(ctx context.Context) ([]domain.TableSchema, error)
}

// Index rebuilds the vector index from schema documents.
type Index interface {
	Rebuild(ctx context.Context, docs []domain.SchemaDocument) error
}
