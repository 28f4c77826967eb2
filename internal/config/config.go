package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	LogLevel    string
	LogFile     string
	CORSOrigins []string

	BatchSize          int
	AsyncRowThreshold  int
	AsyncSizeThreshold int64
	MaxFileBytes       int64
	MaxConcurrentRuns  int

	TaskRetention     time.Duration
	TaskSweepSchedule string
	ShutdownTimeout   time.Duration

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
}

func (c Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Load reads the environment, preloading a .env file when one exists.
// Variables already set in the process environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://crm.db"),
		AppEnv:      getEnv("APP_ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		BatchSize:          getEnvAsInt("UPLOAD_BATCH_SIZE", 1000),
		AsyncRowThreshold:  getEnvAsInt("UPLOAD_ASYNC_ROW_THRESHOLD", 5000),
		AsyncSizeThreshold: int64(getEnvAsInt("UPLOAD_ASYNC_SIZE_THRESHOLD_BYTES", 2<<20)),
		MaxFileBytes:       int64(getEnvAsInt("UPLOAD_MAX_FILE_BYTES", 50<<20)),
		MaxConcurrentRuns:  getEnvAsInt("UPLOAD_MAX_CONCURRENT_RUNS", 4),

		TaskRetention:     getEnvDuration("TASK_RETENTION", time.Hour),
		TaskSweepSchedule: getEnv("TASK_SWEEP_SCHEDULE", "@every 5m"),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("UPLOAD_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_BYTES must be positive, got %d", c.MaxFileBytes)
	}
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("UPLOAD_MAX_CONCURRENT_RUNS must be positive, got %d", c.MaxConcurrentRuns)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getEnvAsInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
