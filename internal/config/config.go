// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	DBPath string

	// Logging
	LogLevel string

	// Auth
	JWTSecret         string
	TokenTTL          time.Duration
	AuthRatePerMinute int
	AuthRateBurst     int

	// Payment processor
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentCurrency      string

	// Worker
	AutosaveInterval time.Duration
}

// Load reads the configuration from the environment. A .env file (or the
// file named by ENV_FILE) is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "./data/tripfund.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 20),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),

		PaymentSecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		AutosaveInterval: getEnvDuration("AUTOSAVE_INTERVAL", time.Hour),
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}
	if c.AuthRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid auth rate %d: must be at least 1 per minute", c.AuthRatePerMinute))
	}
	if c.AuthRateBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid auth burst %d: must be at least 1", c.AuthRateBurst))
	}

	if c.PaymentSecretKey == "" {
		errors = append(errors, "PAYMENT_SECRET_KEY is required")
	}
	if c.PaymentWebhookSecret == "" {
		errors = append(errors, "PAYMENT_WEBHOOK_SECRET is required")
	}
	if len(c.PaymentCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be a 3-letter ISO code", c.PaymentCurrency))
	}

	if c.AutosaveInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at least 1 minute", c.AutosaveInterval))
	} else if c.AutosaveInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at most 24 hours", c.AutosaveInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
