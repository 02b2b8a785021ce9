package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/config"
	dbRedis "github.com/askdb/askdb/internal/db/redis"
	"github.com/askdb/askdb/internal/domain"
	"github.com/askdb/askdb/internal/embedding"
	logpkg "github.com/askdb/askdb/internal/logger"
	"github.com/askdb/askdb/internal/metrics"
	"github.com/askdb/askdb/internal/repository/localindex"
	"github.com/askdb/askdb/internal/repository/schemaindex"
	"github.com/askdb/askdb/internal/schemadoc"
	ingestuc "github.com/askdb/askdb/internal/usecase/ingest"
	"github.com/askdb/askdb/internal/version"
	duckwarehouse "github.com/askdb/askdb/internal/warehouse/duckdb"
)

// askdb-ingest reads the warehouse catalog, embeds the schema documents
// and atomically rebuilds the configured vector index.
func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting schema ingestion",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("index_backend", cfg.Index.Backend),
		zap.String("doc_mode", cfg.Index.DocMode),
		zap.String("warehouse", cfg.Warehouse.Path),
	)

	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	embedder, err := embedding.NewEmbedder(&cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}

	var index domain.VectorIndex
	switch cfg.Index.Backend {
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}

		index = schemaindex.New(embedder, store, schemaindex.Config{
			IndexName:       "askdb_schema",
			KeyPrefix:       cfg.Index.KeyPrefix,
			HNSWM:           cfg.Index.HNSWM,
			HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		}, logger)
	default:
		index = localindex.New(embedder, cfg.Index.Path, logger)
	}

	warehouse, err := duckwarehouse.Open(cfg.Warehouse.Path, cfg.Warehouse.Dataset)
	if err != nil {
		logger.Fatal("Failed to open warehouse", zap.Error(err))
	}
	defer func() { _ = warehouse.Close() }()

	svc := ingestuc.New(warehouse, index, schemadoc.Mode(cfg.Index.DocMode), logger)

	count, err := svc.Ingest(ctx)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete", zap.Int("documents", count))
}
