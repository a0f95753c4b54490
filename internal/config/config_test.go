package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 7*24*60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Logger.Development)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("JWT_EXPIRES_IN_MINUTES", "15")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUTH_RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2.5, cfg.RateLimit.AuthPerSecond)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)
}
