package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CELERY_BROKER_URL", "CELERY_RESULT_BACKEND", "ALLOWED_ORIGINS",
		"SERVER_ADDR", "WORKER_METRICS_ADDR", "WORKER_CONCURRENCY",
		"TASK_MAX_RETRY", "RESULT_TTL", "MAX_UPLOAD_BYTES",
		"LOG_LEVEL", "LOG_ENCODING", "LOG_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.BrokerURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.ResultBackendURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
	assert.Equal(t, 3, cfg.TaskMaxRetry)
	assert.Equal(t, 24*time.Hour, cfg.ResultTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CELERY_BROKER_URL", "redis://broker:6379/1")
	t.Setenv("CELERY_RESULT_BACKEND", "redis://backend:6379/2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("RESULT_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://broker:6379/1", cfg.BrokerURL)
	assert.Equal(t, "redis://backend:6379/2", cfg.ResultBackendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 90*time.Minute, cfg.ResultTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric concurrency", "WORKER_CONCURRENCY", "many"},
		{"zero concurrency", "WORKER_CONCURRENCY", "0"},
		{"negative retry", "TASK_MAX_RETRY", "-1"},
		{"bad ttl", "RESULT_TTL", "tomorrow"},
		{"zero upload size", "MAX_UPLOAD_BYTES", "0"},
		{"only separators in origins", "ALLOWED_ORIGINS", " , ,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
