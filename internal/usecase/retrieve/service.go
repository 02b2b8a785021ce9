// Package retrieve selects the schema documents most relevant to a question.
package retrieve

import (
	"context"
	"fmt"

	"github.com/askdb/askdb/internal/domain"
)

// DefaultTopK is used when the caller does not request a document count.
const DefaultTopK = 5

// Service retrieves schema context for a question.
type Service struct {
	index Index
	embed Embedder
	topK  int
}

// New creates a retrieval service. topK <= 0 falls back to DefaultTopK.
func New(index Index, embed Embedder, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{index: index, embed: embed, topK: topK}
}

// Retrieve returns up to k schema documents relevant to the question,
// most similar first. k <= 0 uses the configured default.
//
// The retrieval path is chosen up front from the index capability:
// text-capable indexes search directly, all others get the question
// embedded here.
func (s *Service) Retrieve(ctx context.Context, question string, k int) ([]domain.SchemaDocument, error) {
	if k <= 0 {
		k = s.topK
	}

	if s.index.NativeTextSearch() {
		docs, err := s.index.SearchByText(ctx, question, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
		}
		return docs, nil
	}

	vector, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("vectorize question: %w", err)
	}

	docs, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	return docs, nil
}
