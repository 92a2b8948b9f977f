package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenExpiry)
}

func TestLoadDatabaseConfigOverrides(t *testing.T) {
	t.Setenv("APP_DB_HOST", "db.internal")
	t.Setenv("APP_DB_PORT", "6543")
	t.Setenv("APP_DB_MAX_LIFETIME", "90s")

	cfg, err := LoadDatabaseConfig("APP_")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.MaxLifetime)
}

func TestLoadDatabaseConfigRejectsBadPort(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	_, err := LoadDatabaseConfig("")
	assert.Error(t, err)
}
