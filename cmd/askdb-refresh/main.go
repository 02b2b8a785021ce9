package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/config"
	dbRedis "github.com/askdb/askdb/internal/db/redis"
	logpkg "github.com/askdb/askdb/internal/logger"
	"github.com/askdb/askdb/internal/repository/resultcache"
)

// askdb-refresh deletes cached answers matching a glob pattern.
func main() {
	pattern := flag.String("pattern", "*", "question glob pattern to invalidate")
	flag.Parse()

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

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create redis store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}

	cache := resultcache.New(store, cfg.Cache.KeyPrefix,
		time.Duration(cfg.Cache.TTLSec)*time.Second, logger)

	deleted, err := cache.Invalidate(ctx, *pattern)
	if err != nil {
		logger.Fatal("Cache invalidation failed", zap.Error(err))
	}

	fmt.Printf("deleted %d cached answers\n", deleted)
}
