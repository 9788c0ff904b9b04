package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "progress")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "rusingacademy")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.AdminRole)
	assert.Equal(t, 50, cfg.Sync.MaxBatchSize)
	assert.Equal(t, 3, cfg.Sync.MaxConflictRetries)
	assert.Equal(t, 2*time.Second, cfg.Sync.BroadcastTimeout)
	assert.Equal(t, 16, cfg.Realtime.ClientBuffer)
	assert.Equal(t, 15*time.Second, cfg.Realtime.HeartbeatInterval)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "progress-events", cfg.Redis.Channel)
	assert.Equal(t, "progress:secret@tcp(localhost:3306)/rusingacademy?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.rusingacademy.ca, ,https://admin.rusingacademy.ca")
	t.Setenv("SYNC_MAX_BATCH_SIZE", "20")
	t.Setenv("BROADCAST_TIMEOUT", "500ms")
	t.Setenv("REDIS_ENABLED", "TRUE")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_CHANNEL", "progress")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.rusingacademy.ca", "https://admin.rusingacademy.ca"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Sync.MaxBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.BroadcastTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6380", cfg.RedisAddr())
	assert.Equal(t, "progress", cfg.Redis.Channel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing DB_HOST", key: "DB_HOST", value: ""},
		{name: "invalid DB_PORT", key: "DB_PORT", value: "abc"},
		{name: "missing DB_PASSWORD", key: "DB_PASSWORD", value: ""},
		{name: "missing JWT_SECRET", key: "JWT_SECRET", value: ""},
		{name: "invalid SERVER_PORT", key: "SERVER_PORT", value: "http"},
		{name: "zero batch size", key: "SYNC_MAX_BATCH_SIZE", value: "0"},
		{name: "invalid broadcast timeout", key: "BROADCAST_TIMEOUT", value: "soon"},
		{name: "invalid heartbeat", key: "SSE_HEARTBEAT_INTERVAL", value: "15"},
		{name: "invalid REDIS_PORT", key: "REDIS_PORT", value: "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "empty", value: "", expected: []string{"*"}},
		{name: "only separators", value: " , ", expected: []string{"*"}},
		{name: "list", value: "https://a.example.com,https://b.example.com", expected: []string{"https://a.example.com", "https://b.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOrigins(tt.value))
		})
	}
}

func TestConfig_HasDatabase(t *testing.T) {
	assert.False(t, (&Config{}).HasDatabase())
	assert.True(t, (&Config{Database: DatabaseConfig{Host: "localhost", Port: 3306, User: "root", DBName: "test"}}).HasDatabase())
}

func TestLoadTestConfig(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "")
		t.Setenv("TEST_DB_PORT", "")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.False(t, cfg.HasDatabase())
	})

	t.Run("database configured", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "127.0.0.1")
		t.Setenv("TEST_DB_PORT", "3307")
		t.Setenv("TEST_DB_USER", "tester")
		t.Setenv("TEST_DB_PASSWORD", "secret")
		t.Setenv("TEST_DB_NAME", "progress_test")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.True(t, cfg.HasDatabase())
		assert.Equal(t, 3307, cfg.Database.Port)
	})

	t.Run("redis defaults", func(t *testing.T) {
		t.Setenv("TEST_REDIS_HOST", "")
		t.Setenv("TEST_REDIS_PORT", "")
		t.Setenv("TEST_REDIS_DB", "")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, 1, cfg.Redis.DB)
	})

	t.Run("redis configured", func(t *testing.T) {
		t.Setenv("TEST_REDIS_HOST", "redis.test")
		t.Setenv("TEST_REDIS_PORT", "6380")
		t.Setenv("TEST_REDIS_DB", "2")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "redis.test:6380", cfg.RedisAddr())
		assert.Equal(t, 2, cfg.Redis.DB)
	})

	t.Run("invalid redis port", func(t *testing.T) {
		t.Setenv("TEST_REDIS_PORT", "abc")

		_, err := LoadTestConfig()

		assert.Error(t, err)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("TEST_DB_PORT", "abc")

		_, err := LoadTestConfig()

		assert.Error(t, err)
	})
}
