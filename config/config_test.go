package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "arlearn-engine", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "arlearn", cfg.Database.Name)
	assert.True(t, cfg.Database.RunMigrations)
	assert.False(t, cfg.Redis.Disabled)
	assert.True(t, cfg.EventBus.AsyncMode)
	assert.Equal(t, 10, cfg.EventBus.WorkerPoolSize)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("API_KEY_HASHES", "hash-one, hash-two,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, []string{"hash-one", "hash-two"}, cfg.HTTP.APIKeyHashes)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("EVENTBUS_ASYNC", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
	assert.True(t, cfg.EventBus.AsyncMode)
}

func TestValidate_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL or DB_PASSWORD is required in production")
	assert.Contains(t, err.Error(), "API_KEY_HASHES is required in production")
}

func TestValidate_ProductionSatisfied(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/arlearn?sslmode=require")
	t.Setenv("API_KEY_HASHES", "$2a$10$abcdefghijklmnopqrstuv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.App.Debug)
}

func TestValidate_PortRange(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT must be 1-65535")
}

func TestValidate_WorkerPool(t *testing.T) {
	t.Setenv("EVENTBUS_WORKERS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENTBUS_WORKERS must be at least 1")
}
