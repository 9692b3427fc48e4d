package config

import "time"

// WorkerConfig holds runtime configuration for the pipeline worker process.
type WorkerConfig struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StorageRoot   string
	Concurrency   int
	MaxAttempts   int
	PollTimeout   time.Duration
}

// LoadWorker constructs a WorkerConfig from environment variables.
func LoadWorker() WorkerConfig {
	return WorkerConfig{
		DatabaseURL:   GetString("DATABASE_URL", "postgres://driftbox:driftbox@db:5432/driftbox?sslmode=disable"),
		RedisAddr:     GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetString("REDIS_PASSWORD", ""),
		RedisDB:       GetInt("REDIS_DB", 0),
		StorageRoot:   GetString("FOLDER_PATH", "/tmp/files_manager"),
		Concurrency:   GetInt("WORKER_CONCURRENCY", 4),
		MaxAttempts:   GetInt("WORKER_MAX_ATTEMPTS", 3),
		PollTimeout:   time.Duration(GetInt("WORKER_POLL_SECONDS", 5)) * time.Second,
	}
}
