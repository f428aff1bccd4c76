package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

const testDatabaseURL = "postgres://user:pass@db:5432/crashes"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabaseURL, "localhost:5432")
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, domain.CrashLocationsURL, cfg.CrashDataURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 1000, cfg.QueryLimit)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Minute, cfg.QueryCacheTTL)
	assert.Equal(t, 1000, cfg.QueryCacheSize)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "crash-imports", cfg.KafkaImportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", testDatabaseURL)
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("CRASH_DATA_URL", "http://mirror.local/crashes.csv")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("QUERY_LIMIT", "250")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("QUERY_CACHE_TTL", "0s")
	t.Setenv("QUERY_CACHE_SIZE", "64")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_IMPORT_TOPIC", "imports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.Equal(t, "http://mirror.local/crashes.csv", cfg.CrashDataURL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 250, cfg.QueryLimit)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Zero(t, cfg.QueryCacheTTL)
	assert.Equal(t, 64, cfg.QueryCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "imports", cfg.KafkaImportTopic)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"HTTP_TIMEOUT", "bad"},
		{"HTTP_TIMEOUT", "0s"},
		{"QUERY_TIMEOUT", "-5s"},
		{"QUERY_LIMIT", "0"},
		{"QUERY_LIMIT", "5000"},
		{"QUERY_CACHE_TTL", "-1m"},
		{"QUERY_CACHE_SIZE", "none"},
		{"DB_MAX_CONNS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
