// Package config provides application configuration loading from environment
// variables and .env files. It uses viper for flexible configuration
// management with sensible defaults.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment
// variables or a .env file. Priority: environment variables > .env > defaults.
type Config struct {
	AppEnv               string // Application environment (dev, staging, prod)
	HTTPAddr             string // HTTP server bind address (e.g., ":8080")
	MetricsAddr          string // Metrics/pprof server bind address
	ConfigPath           string // Path to the remote-config document file
	WatchConfig          bool   // Reload the config file on change
	StoreType            string // KV storage backend (postgres or memory)
	DatabaseDSN          string // PostgreSQL connection string
	AdminAPIKey          string // Admin API key for config publication
	RolloutSalt          string // Salt for deterministic device bucketing
	LogLevel             string // Minimum log level (debug, info, warn, error)
	DecisionLogSize      int    // Capacity of the in-memory decision ring
	rolloutSaltGenerated bool   // internal: tracks if rollout salt was auto-generated
}

const (
	saltByteSize          = 16 // 16 bytes = 128 bits of entropy
	defaultSaltFallback   = "default-random-salt"
	rolloutSaltWarningMsg = "WARNING: ROLLOUT_SALT not configured. Generated random salt: %s. Device bucket assignments will change on restart. Set ROLLOUT_SALT in production for consistent rollout behavior."
)

// generateRandomSalt creates a cryptographically secure random 16-byte
// hex-encoded salt. Returns a fallback value if random generation fails
// (should never happen in practice).
func generateRandomSalt() string {
	bytes := make([]byte, saltByteSize)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("ERROR: Failed to generate random salt: %v. Using fallback.", err)
		return defaultSaltFallback
	}
	return hex.EncodeToString(bytes)
}

// Load reads configuration from environment variables and .env file (if
// present). Environment variables take precedence over .env file values.
// Use Validate() afterwards to check production-readiness constraints.
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = viperInstance.ReadInConfig()    // Ignore error - .env is optional
	viperInstance.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(viperInstance)
	rolloutSalt, rolloutSaltGenerated := getOrGenerateRolloutSalt(viperInstance)

	return &Config{
		AppEnv:               viperInstance.GetString("APP_ENV"),
		HTTPAddr:             viperInstance.GetString("APP_HTTP_ADDR"),
		MetricsAddr:          viperInstance.GetString("METRICS_ADDR"),
		ConfigPath:           viperInstance.GetString("CONFIG_PATH"),
		WatchConfig:          viperInstance.GetBool("CONFIG_WATCH"),
		StoreType:            viperInstance.GetString("STORE_TYPE"),
		DatabaseDSN:          viperInstance.GetString("DB_DSN"),
		AdminAPIKey:          viperInstance.GetString("ADMIN_API_KEY"),
		RolloutSalt:          rolloutSalt,
		LogLevel:             viperInstance.GetString("LOG_LEVEL"),
		DecisionLogSize:      viperInstance.GetInt("DECISION_LOG_SIZE"),
		rolloutSaltGenerated: rolloutSaltGenerated,
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
// These defaults are suitable for local development but should be overridden
// in production.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("CONFIG_PATH", "flags.json")
	v.SetDefault("CONFIG_WATCH", true)
	v.SetDefault("STORE_TYPE", "memory")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("ADMIN_API_KEY", "admin-123") // Change in production!
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DECISION_LOG_SIZE", 256)
}

// getOrGenerateRolloutSalt retrieves the ROLLOUT_SALT from config or
// generates a random one. Logs a warning when generated, as this causes
// inconsistent device bucketing across server restarts.
func getOrGenerateRolloutSalt(v *viper.Viper) (string, bool) {
	rolloutSalt := v.GetString("ROLLOUT_SALT")
	if rolloutSalt == "" {
		rolloutSalt = generateRandomSalt()
		log.Printf(rolloutSaltWarningMsg, rolloutSalt)
		return rolloutSalt, true
	}
	return rolloutSalt, false
}

// ValidationError represents a configuration validation error with details
// about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is suitable for production use.
// Intended to be called at application startup to fail fast on
// misconfiguration.
func (c *Config) Validate() error {
	if c.StoreType != "memory" && c.StoreType != "postgres" {
		return ValidationError{
			Field:   "STORE_TYPE",
			Message: fmt.Sprintf("must be 'memory' or 'postgres', got '%s'", c.StoreType),
		}
	}

	if c.StoreType == "postgres" && c.DatabaseDSN == "" {
		return ValidationError{
			Field:   "DB_DSN",
			Message: "database DSN is required when STORE_TYPE=postgres",
		}
	}

	if c.HTTPAddr == "" {
		return ValidationError{
			Field:   "APP_HTTP_ADDR",
			Message: "HTTP server address cannot be empty",
		}
	}

	if c.MetricsAddr == "" {
		return ValidationError{
			Field:   "METRICS_ADDR",
			Message: "metrics server address cannot be empty",
		}
	}

	if c.ConfigPath == "" {
		return ValidationError{
			Field:   "CONFIG_PATH",
			Message: "path to the config document cannot be empty",
		}
	}

	if c.DecisionLogSize < 0 {
		return ValidationError{
			Field:   "DECISION_LOG_SIZE",
			Message: "decision log size cannot be negative",
		}
	}

	// Production safety checks
	if c.AppEnv != "dev" {
		if c.AdminAPIKey == "admin-123" {
			return ValidationError{
				Field:   "ADMIN_API_KEY",
				Message: "default admin API key must be changed outside dev",
			}
		}
		if c.rolloutSaltGenerated {
			return ValidationError{
				Field:   "ROLLOUT_SALT",
				Message: "rollout salt must be explicitly configured outside dev",
			}
		}
	}

	return nil
}
