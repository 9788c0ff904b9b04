package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig reads TEST_DB_* and TEST_REDIS_* variables for the
// integration suite. When they are absent HasDatabase reports false and
// Redis.Enabled stays false, so the suite falls back to local defaults.
func LoadTestConfig() (*Config, error) {
	// Tests run from their package directory, so look at the repository root too
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")

	var err error
	if cfg.Database.Port, err = intFromEnv("TEST_DB_PORT", 0); err != nil {
		return nil, err
	}

	// Redis is used by the cross-instance event tests; DB 1 keeps them off the default database
	cfg.Redis.Host = os.Getenv("TEST_REDIS_HOST")
	cfg.Redis.Password = os.Getenv("TEST_REDIS_PASSWORD")
	if cfg.Redis.Port, err = intFromEnv("TEST_REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = intFromEnv("TEST_REDIS_DB", 1); err != nil {
		return nil, err
	}
	cfg.Redis.Enabled = cfg.Redis.Host != ""

	return cfg, nil
}

// HasDatabase reports whether the configuration names a reachable database
func (c *Config) HasDatabase() bool {
	db := c.Database
	return db.Host != "" && db.Port != 0 && db.User != "" && db.DBName != ""
}
