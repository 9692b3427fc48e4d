package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/driftbox/driftbox/internal/app/migrate"
	"github.com/driftbox/driftbox/internal/blob"
	"github.com/driftbox/driftbox/internal/config"
	httpx "github.com/driftbox/driftbox/internal/http"
	"github.com/driftbox/driftbox/internal/logger"
	"github.com/driftbox/driftbox/internal/queue"
	"github.com/driftbox/driftbox/internal/repository/postgres"
	"github.com/driftbox/driftbox/internal/service/account"
	"github.com/driftbox/driftbox/internal/service/auth"
	"github.com/driftbox/driftbox/internal/service/files"
	"github.com/driftbox/driftbox/internal/session"
	"github.com/driftbox/driftbox/internal/ws"
)

func main() {
	cfg := config.LoadAPI()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
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
	sessions := session.New(rdb, cfg.SessionTTL)
	jobs := queue.New(rdb)
	blobs := blob.New(cfg.StorageRoot)

	authSvc := auth.New(repo, sessions, log)
	accountSvc := account.New(repo, repo, authSvc, jobs, log)
	fileSvc := files.New(repo, blobs, jobs, log, cfg.FileCacheSize, cfg.FileCacheTTL)

	hub := ws.NewHub()
	events, stopEvents, err := jobs.SubscribeEvents(ctx)
	if err != nil {
		log.Error("event subscription failed", "error", err)
		os.Exit(1)
	}
	defer stopEvents()
	go ws.Bridge(hub, events, log)

	var limiter httpx.RateLimiter = httpx.NewMemoryRateLimiter()
	if cfg.RedisRateLimit {
		limiter = httpx.NewRedisRateLimiter(rdb, log)
	}

	router := httpx.NewRouter(log, authSvc, accountSvc, fileSvc, hub, limiter, pool.Ping, sessions.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
