package config

import "time"

// APIConfig holds runtime configuration for the API process.
type APIConfig struct {
	Environment    string
	Addr           string
	DatabaseURL    string
	MigrationsDir  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionTTL     time.Duration
	StorageRoot    string
	FileCacheSize  int
	FileCacheTTL   time.Duration
	RedisRateLimit bool
}

// LoadAPI constructs an APIConfig from environment variables.
func LoadAPI() APIConfig {
	return APIConfig{
		Environment:    GetString("APP_ENV", "development"),
		Addr:           GetString("API_ADDR", ":5000"),
		DatabaseURL:    GetString("DATABASE_URL", "postgres://driftbox:driftbox@db:5432/driftbox?sslmode=disable"),
		MigrationsDir:  GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		RedisAddr:      GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  GetString("REDIS_PASSWORD", ""),
		RedisDB:        GetInt("REDIS_DB", 0),
		SessionTTL:     time.Duration(GetInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		StorageRoot:    GetString("FOLDER_PATH", "/tmp/files_manager"),
		FileCacheSize:  GetInt("FILE_CACHE_SIZE", 1024),
		FileCacheTTL:   time.Duration(GetInt("FILE_CACHE_TTL_SECONDS", 30)) * time.Second,
		RedisRateLimit: GetBool("REDIS_RATE_LIMIT", false),
	}
}
