// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Sync      SyncConfig
	Realtime  RealtimeConfig
	AdminRole int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret string
}

// SyncConfig holds progress sync settings
type SyncConfig struct {
	MaxBatchSize       int
	MaxConflictRetries int
	BroadcastTimeout   time.Duration
}

// RealtimeConfig holds SSE settings
type RealtimeConfig struct {
	ClientBuffer      int
	HeartbeatInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{}

	var err error
	if cfg.Database, err = loadDatabase("DB_"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intFromEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimitPerMinute, err = intFromEnv("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if cfg.JWT.Secret, err = requiredEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	// Admin role threshold for the admin progress stream
	if cfg.AdminRole, err = intFromEnv("ADMIN_ROLE", 3); err != nil {
		return nil, err
	}

	// Sync configuration
	if cfg.Sync.MaxBatchSize, err = intFromEnv("SYNC_MAX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.Sync.MaxBatchSize < 1 {
		return nil, fmt.Errorf("SYNC_MAX_BATCH_SIZE must be positive")
	}
	if cfg.Sync.MaxConflictRetries, err = intFromEnv("SYNC_MAX_CONFLICT_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.Sync.BroadcastTimeout, err = durationFromEnv("BROADCAST_TIMEOUT", "2s"); err != nil {
		return nil, err
	}

	// Realtime configuration
	if cfg.Realtime.ClientBuffer, err = intFromEnv("SSE_CLIENT_BUFFER", 16); err != nil {
		return nil, err
	}
	if cfg.Realtime.HeartbeatInterval, err = durationFromEnv("SSE_HEARTBEAT_INTERVAL", "15s"); err != nil {
		return nil, err
	}

	// Redis configuration (optional, for fan-out between API instances)
	cfg.Redis.Enabled = strings.EqualFold(os.Getenv("REDIS_ENABLED"), "true")

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Redis.Host = redisHost

	if cfg.Redis.Port, err = intFromEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	if cfg.Redis.DB, err = intFromEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	redisChannel := os.Getenv("REDIS_CHANNEL")
	if redisChannel == "" {
		redisChannel = "progress-events" // default
	}
	cfg.Redis.Channel = redisChannel

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// parseOrigins splits a comma-separated origin list, allowing all origins when nothing valid is given
func parseOrigins(value string) []string {
	if value == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}

	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, origin := range parts {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// loadDatabase reads the connection settings under the given variable prefix; every one is required
func loadDatabase(prefix string) (DatabaseConfig, error) {
	var (
		db  DatabaseConfig
		err error
	)
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"HOST", &db.Host},
		{"USER", &db.User},
		{"PASSWORD", &db.Password},
		{"NAME", &db.DBName},
	} {
		if *field.dst, err = requiredEnv(prefix + field.key); err != nil {
			return DatabaseConfig{}, err
		}
	}

	port, err := requiredEnv(prefix + "PORT")
	if err != nil {
		return DatabaseConfig{}, err
	}
	if db.Port, err = strconv.Atoi(port); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid %sPORT: %w", prefix, err)
	}
	return db, nil
}

func requiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func intFromEnv(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationFromEnv(key, def string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
