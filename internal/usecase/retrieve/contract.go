package retrieve

import (
	"context"

	"github.com/askdb/askdb/internal/domain"
)

// Index is the vector index surface used for retrieval.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.SchemaDocument, error)
	SearchByText(ctx context.Context, text string, k int) ([]domain.SchemaDocument, error)
	NativeTextSearch() bool
}

// Embedder vectorizes the question when the index cannot search by text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
