// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SETTLERS_LISTEN", "")
	t.Setenv("SETTLERS_DATABASE_URL", "")
	t.Setenv("SETTLERS_SQLITE_PATH", "")
	t.Setenv("SETTLERS_LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "settlers.db", cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SETTLERS_LISTEN", ":9999")
	t.Setenv("SETTLERS_DATABASE_URL", "postgres://localhost/settlers")
	t.Setenv("SETTLERS_REDIS_ADDR", "localhost:6379")
	t.Setenv("SETTLERS_LOG_JSON", "true")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "postgres://localhost/settlers", cfg.DatabaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.LogJSON)
}
