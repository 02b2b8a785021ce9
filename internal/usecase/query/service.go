// Package query orchestrates the question-to-answer pipeline: cache
// lookup, schema retrieval, SQL synthesis, safety validation, warehouse
// execution and cache write-back.
package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/domain"
	"github.com/askdb/askdb/internal/logger"
	"github.com/askdb/askdb/internal/metrics"
	"github.com/askdb/askdb/internal/sqlcheck"
)

// Service answers natural-language questions with SQL results.
type Service struct {
	cache Cache
	ret   Retriever
	synth Synthesizer
	exec  Executor
}

// New creates the query service.
func New(cache Cache, ret Retriever, synth Synthesizer, exec Executor) *Service {
	return &Service{cache: cache, ret: ret, synth: synth, exec: exec}
}

// Answer runs the full pipeline for a question. A cache hit short-circuits
// everything: no retrieval, no generation, no warehouse query.
func (s *Service) Answer(ctx context.Context, question string) (domain.Answer, error) {
	log := logger.FromContext(ctx)

	if entry, ok := s.cache.Get(ctx, question); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		log.Debug("answer served from cache", zap.String("question", question))
		return domain.Answer{SQL: entry.SQL, Rows: entry.Rows}, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	docs, err := s.ret.Retrieve(ctx, question, 0)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve schema context: %w", err)
	}
	if len(docs) == 0 {
		return domain.Answer{}, fmt.Errorf("%w: no documents matched the question", domain.ErrNoSchemaContext)
	}

	generated, err := s.synth.Synthesize(ctx, question, docs)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("synthesize sql: %w", err)
	}

	if verdict := sqlcheck.Validate(generated.SQL); !verdict.Valid {
		metrics.UnsafeQueriesTotal.Inc()
		log.Warn("generated sql rejected",
			zap.String("question", question),
			zap.String("sql", generated.SQL),
			zap.String("reason", verdict.Reason),
		)
		return domain.Answer{}, domain.NewUnsafeQuery(verdict.Reason)
	}

	start := time.Now()
	result, err := s.exec.Execute(ctx, generated.SQL)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrExecutionFailed, err)
	}
	metrics.WarehouseQueryDuration.Observe(time.Since(start).Seconds())

	// Write-back is best-effort: the cache logs its own failures.
	s.cache.Set(ctx, question, domain.CacheEntry{SQL: generated.SQL, Rows: result.Rows})

	log.Info("question answered",
		zap.String("question", question),
		zap.String("sql", generated.SQL),
		zap.Int("rows", len(result.Rows)),
		zap.Int("context_docs", len(docs)),
	)
	return domain.Answer{SQL: generated.SQL, Rows: result.Rows}, nil
}
