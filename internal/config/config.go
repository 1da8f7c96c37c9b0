// Package config provides configuration management for the execution core
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Lease    LeaseConfig
	State    StateConfig
	Games    GamesConfig
	Operator OperatorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds durable store configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// RedisConfig holds the live state / lease backend configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds session token configuration
type SessionConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
	// OperatorKeyHash is the bcrypt hash of the operator API key used on
	// the lifecycle and control endpoints.
	OperatorKeyHash string
}

// LeaseConfig holds the distributed lease tuning knobs
type LeaseConfig struct {
	TTL       time.Duration
	Attempts  int
	RetryBase time.Duration
	RetryCap  time.Duration
}

// StateConfig holds live player-state tuning knobs
type StateConfig struct {
	// IdleAfter is the inactivity window before a record is reconciled to
	// the durable store and evicted.
	IdleAfter     time.Duration
	SweepInterval time.Duration
	RecordTTL     time.Duration
}

// GamesConfig holds catalog configuration
type GamesConfig struct {
	// Dir is the directory of YAML game definitions.
	Dir             string
	DefaultCurrency string
}

// OperatorConfig holds the operator platform client configuration.
// When BaseURL is empty the local durable store is used instead.
type OperatorConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	SiteCode  string
}

// Load loads configuration from environment with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("RGS_PORT", "8080"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: getEnv("RGS_DB_DRIVER", "postgres"),
			DSN:    getEnv("RGS_DB_DSN", "host=localhost dbname=rgs sslmode=disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("RGS_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("RGS_REDIS_PASSWORD", ""),
			DB:       getEnvInt("RGS_REDIS_DB", 0),
		},
		Session: SessionConfig{
			JWTSecret:       getEnv("RGS_JWT_SECRET", "rgs-dev-secret-change-in-production"),
			TokenExpiry:     getEnvDuration("RGS_TOKEN_EXPIRY", 24*time.Hour),
			OperatorKeyHash: getEnv("RGS_OPERATOR_KEY_HASH", ""),
		},
		Lease: LeaseConfig{
			TTL:       getEnvDuration("RGS_LEASE_TTL", 30*time.Second),
			Attempts:  getEnvInt("RGS_LEASE_ATTEMPTS", 10),
			RetryBase: getEnvDuration("RGS_LEASE_RETRY_BASE", 25*time.Millisecond),
			RetryCap:  getEnvDuration("RGS_LEASE_RETRY_CAP", 400*time.Millisecond),
		},
		State: StateConfig{
			IdleAfter:     getEnvDuration("RGS_STATE_IDLE_AFTER", 30*time.Minute),
			SweepInterval: getEnvDuration("RGS_STATE_SWEEP_INTERVAL", time.Minute),
			RecordTTL:     getEnvDuration("RGS_STATE_RECORD_TTL", 24*time.Hour),
		},
		Games: GamesConfig{
			Dir:             getEnv("RGS_GAMES_DIR", "configs/games"),
			DefaultCurrency: getEnv("RGS_CURRENCY", "USD"),
		},
		Operator: OperatorConfig{
			BaseURL:   getEnv("RGS_OPERATOR_URL", ""),
			APIKey:    getEnv("RGS_OPERATOR_API_KEY", ""),
			APISecret: getEnv("RGS_OPERATOR_API_SECRET", ""),
			Timeout:   getEnvDuration("RGS_OPERATOR_TIMEOUT", 10*time.Second),
			SiteCode:  getEnv("RGS_OPERATOR_SITE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
