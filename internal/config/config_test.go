package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToStaging(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, "thisIsASecret", cfg.Auth.HashingSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "Pizza Delivery, Inc", cfg.Templates.Globals["companyName"])
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadProductionFromNodeEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "PRODUCTION")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "thisIsAProductionSecret", cfg.Auth.HashingSecret)
	assert.Equal(t, "http://localhost:5000/", cfg.Templates.Globals["baseUrl"])
}

func TestLoadUnknownEnvFallsBackToStaging(t *testing.T) {
	t.Setenv("APP_ENV", "qa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_LISTEN_ADDR", ":8081")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("BASE_URL", "https://pizza.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "https://pizza.example/", cfg.Templates.Globals["baseUrl"])
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_DB_PORT", "abc")
	_, err = Load()
	require.ErrorContains(t, err, "STORE_DB_PORT")
}
