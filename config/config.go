package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRedisURL       = "redis://localhost:6379/0"
	defaultAllowedOrigins = "http://localhost:3000"
)

var (
	appOnce   sync.Once
	appConfig *Config
	appErr    error
)

// Config holds everything the server and worker binaries read from the environment.
type Config struct {
	BrokerURL         string
	ResultBackendURL  string
	AllowedOrigins    []string
	ServerAddr        string
	WorkerMetricsAddr string
	WorkerConcurrency int
	TaskMaxRetry      int
	ResultTTL         time.Duration
	MaxUploadBytes    int64
	LogLevel          string
	LogEncoding       string
	LogDir            string
}

// Get loads the configuration once per process. A .env file in the working
// directory (or the file named by ENV_FILE) is applied first; variables already
// present in the environment win.
func Get() (*Config, error) {
	appOnce.Do(func() {
		envPath := getEnv("ENV_FILE", ".env")
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
		}
		appConfig, appErr = Load()
	})
	return appConfig, appErr
}

// Load builds a Config from the current environment.
func Load() (*Config, error) {
	cfg := &Config{
		BrokerURL:         getEnv("CELERY_BROKER_URL", defaultRedisURL),
		ResultBackendURL:  getEnv("CELERY_RESULT_BACKEND", defaultRedisURL),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", defaultAllowedOrigins)),
		ServerAddr:        getEnv("SERVER_ADDR", ":8000"),
		WorkerMetricsAddr: getEnv("WORKER_METRICS_ADDR", ":9091"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogEncoding:       getEnv("LOG_ENCODING", "json"),
		LogDir:            getEnv("LOG_DIR", "logs"),
	}

	var err error
	if cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", 10); err != nil {
		return nil, err
	}
	if cfg.TaskMaxRetry, err = getInt("TASK_MAX_RETRY", 3); err != nil {
		return nil, err
	}
	if cfg.ResultTTL, err = getDuration("RESULT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.WorkerConcurrency <= 0 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", cfg.WorkerConcurrency)
	}
	if cfg.TaskMaxRetry < 0 {
		return nil, fmt.Errorf("TASK_MAX_RETRY must not be negative, got %d", cfg.TaskMaxRetry)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
