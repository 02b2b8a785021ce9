// Package ingest builds the schema index from the warehouse catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/schemadoc"
)

// Service reads the warehouse catalog and rebuilds the vector index.
type Service struct {
	catalog Catalog
	index   Index
	mode    schemadoc.Mode
	logger  *zap.Logger
}

// New creates an ingestion service.
func New(catalog Catalog, index Index, mode schemadoc.Mode, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, index: index, mode: mode, logger: logger}
}

// Ingest renders all catalog tables into schema documents and rebuilds
// the index. Returns the number of indexed documents.
func (s *Service) Ingest(ctx context.Context) (int, error) {
	tables, err := s.catalog.Tables(ctx)
	if err != nil {
		return 0, fmt.Errorf("read warehouse catalog: %w", err)
	}
	if len(tables) == 0 {
		return 0, errors.New("warehouse catalog has no tables")
	}

	docs := schemadoc.Build(tables, s.mode)

	if err := s.index.Rebuild(ctx, docs); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	s.logger.Info("schema ingested",
		zap.Int("tables", len(tables)),
		zap.Int("documents", len(docs)),
		zap.String("doc_mode", string(s.mode)),
	)
	return len(docs), nil
}
