// Package config loads the process configuration from TASKFLOW_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// DevJWTSecret is used when TASKFLOW_JWT_SECRET is unset. It is only fit for
// local development.
const DevJWTSecret = "taskflow-dev-secret-change-me"

// Config is the full process configuration.
type Config struct {
	DBPath  string
	DBDebug bool

	RetentionDays    int
	MaxBatchSize     int
	BatchConcurrency int
	DefaultPageSize  int
	MaxPageSize      int

	SweepInterval time.Duration

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	JWTSecret         string
	JWTIssuer         string
	AccessTokenExpiry time.Duration

	AuditCapacity   int
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		DBPath:            "taskflow.db",
		RetentionDays:     30,
		MaxBatchSize:      50,
		BatchConcurrency:  4,
		DefaultPageSize:   20,
		MaxPageSize:       100,
		SweepInterval:     time.Hour,
		CacheTTL:          5 * time.Minute,
		JWTSecret:         DevJWTSecret,
		JWTIssuer:         "taskflow",
		AccessTokenExpiry: 15 * time.Minute,
		AuditCapacity:     1000,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Load reads the configuration from the environment. Invalid values are
// logged and replaced by their defaults.
func Load() Config {
	d := Default()
	return Config{
		DBPath:            getEnv("TASKFLOW_DB_PATH", d.DBPath),
		DBDebug:           getEnvBool("TASKFLOW_DB_DEBUG", d.DBDebug),
		RetentionDays:     getEnvInt("TASKFLOW_RETENTION_DAYS", d.RetentionDays),
		MaxBatchSize:      getEnvInt("TASKFLOW_MAX_BATCH_SIZE", d.MaxBatchSize),
		BatchConcurrency:  getEnvInt("TASKFLOW_BATCH_CONCURRENCY", d.BatchConcurrency),
		DefaultPageSize:   getEnvInt("TASKFLOW_DEFAULT_PAGE_SIZE", d.DefaultPageSize),
		MaxPageSize:       getEnvInt("TASKFLOW_MAX_PAGE_SIZE", d.MaxPageSize),
		SweepInterval:     getEnvDuration("TASKFLOW_SWEEP_INTERVAL", d.SweepInterval),
		RedisAddr:         getEnv("TASKFLOW_REDIS_ADDR", d.RedisAddr),
		RedisPassword:     getEnv("TASKFLOW_REDIS_PASSWORD", d.RedisPassword),
		CacheTTL:          getEnvDuration("TASKFLOW_CACHE_TTL", d.CacheTTL),
		JWTSecret:         getEnv("TASKFLOW_JWT_SECRET", d.JWTSecret),
		JWTIssuer:         getEnv("TASKFLOW_JWT_ISSUER", d.JWTIssuer),
		AccessTokenExpiry: getEnvDuration("TASKFLOW_ACCESS_TOKEN_EXPIRY", d.AccessTokenExpiry),
		AuditCapacity:     getEnvInt("TASKFLOW_AUDIT_CAPACITY", d.AuditCapacity),
		ShutdownTimeout:   getEnvDuration("TASKFLOW_SHUTDOWN_TIMEOUT", d.ShutdownTimeout),
	}
}

// Validate reports every setting the application cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("TASKFLOW_DB_PATH must not be empty"))
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("TASKFLOW_RETENTION_DAYS must be positive, got %d", c.RetentionDays))
	}
	if c.MaxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("TASKFLOW_MAX_BATCH_SIZE must be positive, got %d", c.MaxBatchSize))
	}
	if c.BatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("TASKFLOW_BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency))
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, fmt.Errorf("page sizes must satisfy 0 < default (%d) <= max (%d)", c.DefaultPageSize, c.MaxPageSize))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("TASKFLOW_SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("TASKFLOW_JWT_SECRET must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TASKFLOW_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// CacheEnabled reports whether a Redis address is configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
