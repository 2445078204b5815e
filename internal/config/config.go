package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	DB      DatabaseConfig
	API     APIConfig
	Audit   AuditConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type APIConfig struct {
	RateLimitRPS int
}

type AuditConfig struct {
	WorkerCount   int
	BufferSize    int
	SweepEnabled  bool
	SweepInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/rescue-dispatch.db"),
		},
		API: APIConfig{
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 25),
		},
		Audit: AuditConfig{
			WorkerCount:   getEnvInt("AUDIT_WORKER_COUNT", 2),
			BufferSize:    getEnvInt("AUDIT_BUFFER_SIZE", 64),
			SweepEnabled:  getEnvBool("CONSISTENCY_SWEEP_ENABLED", true),
			SweepInterval: getEnvDuration("CONSISTENCY_SWEEP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.API.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s, got %d", c.API.RateLimitRPS)
	}

	if c.Audit.WorkerCount < 1 {
		return fmt.Errorf("audit worker count must be at least 1, got %d", c.Audit.WorkerCount)
	}

	if c.Audit.SweepEnabled && c.Audit.SweepInterval < 10*time.Second {
		return fmt.Errorf("consistency sweep interval must be at least 10s")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
