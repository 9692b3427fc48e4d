package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/driftbox/driftbox/internal/blob"
	"github.com/driftbox/driftbox/internal/config"
	"github.com/driftbox/driftbox/internal/logger"
	"github.com/driftbox/driftbox/internal/queue"
	"github.com/driftbox/driftbox/internal/repository/postgres"
	"github.com/driftbox/driftbox/internal/service/thumbs"
)

func main() {
	cfg := config.LoadWorker()
	log := logger.New("worker", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis ping failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	blobs := blob.New(cfg.StorageRoot)
	jobs := queue.New(rdb)

	worker := thumbs.NewWorker(repo, repo, blobs, jobs, log, thumbs.Options{
		Concurrency: cfg.Concurrency,
		MaxAttempts: cfg.MaxAttempts,
		PollTimeout: cfg.PollTimeout,
	})

	log.Info("worker starting", "concurrency", cfg.Concurrency)
	worker.Run(ctx)
	log.Info("worker stopped")
}
