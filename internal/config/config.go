package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Settlement SettlementConfig
	PayoutRail PayoutRailConfig
	Fraud      FraudConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// SettlementConfig holds the engine's tunables. Retry limits, backoff and
// payout thresholds are configuration inputs, not constants.
type SettlementConfig struct {
	MaxAttempts        int
	BackoffBase        time.Duration
	BackoffMax         time.Duration
	SchedulerInterval  time.Duration
	DispatchInterval   time.Duration
	DispatchBatchSize  int
	ReviewBatchSize    int
	ReconcileBatchSize int
	DueDateGrace       time.Duration
}

// PayoutRailConfig holds the external payout rail endpoint
type PayoutRailConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FraudConfig holds the external fraud predicate endpoint. An empty URL
// enables the permissive static fallback (vendor fraud_flag only).
type FraudConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "settleline"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Settlement: SettlementConfig{
			MaxAttempts:        getEnvAsInt("SETTLE_MAX_ATTEMPTS", 3),
			BackoffBase:        getEnvAsDuration("SETTLE_BACKOFF_BASE", 5*time.Minute),
			BackoffMax:         getEnvAsDuration("SETTLE_BACKOFF_MAX", 6*time.Hour),
			SchedulerInterval:  getEnvAsDuration("SETTLE_SCHEDULER_INTERVAL", 5*time.Minute),
			DispatchInterval:   getEnvAsDuration("SETTLE_DISPATCH_INTERVAL", time.Minute),
			DispatchBatchSize:  getEnvAsInt("SETTLE_DISPATCH_BATCH_SIZE", 50),
			ReviewBatchSize:    getEnvAsInt("SETTLE_REVIEW_BATCH_SIZE", 100),
			ReconcileBatchSize: getEnvAsInt("SETTLE_RECONCILE_BATCH_SIZE", 100),
			DueDateGrace:       getEnvAsDuration("SETTLE_DUE_DATE_GRACE", 48*time.Hour),
		},
		PayoutRail: PayoutRailConfig{
			BaseURL: getEnv("PAYOUT_RAIL_URL", "http://localhost:9090"),
			APIKey:  getEnv("PAYOUT_RAIL_API_KEY", ""),
			Timeout: getEnvAsDuration("PAYOUT_RAIL_TIMEOUT", 15*time.Second),
		},
		Fraud: FraudConfig{
			BaseURL: getEnv("FRAUD_SERVICE_URL", ""),
			Timeout: getEnvAsDuration("FRAUD_SERVICE_TIMEOUT", 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
