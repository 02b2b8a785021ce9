package query

import (
	"context"

	"github.com/askdb/askdb/internal/domain"
)

// Cache is the question-keyed answer cache.
type Cache interface {
	Get(ctx context.Context, question string) (domain.CacheEntry, bool)
	Set(ctx context.Context, question string, entry domain.CacheEntry)
}

// Retriever selects schema documents relevant to the question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]domain.SchemaDocument, error)
}

// Synthesizer drafts SQL from the question and its schema context.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, docs []domain.SchemaDocument) (domain.GeneratedQuery, error)
}

// Executor runs validated SQL against the warehouse.
type Executor interface {
	Execute(ctx context.Context, sql string) (domain.ResultSet, error)
}
