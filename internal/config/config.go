// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	BotToken       string
	BotName        string
	DBPath         string
	SessionTimeout time.Duration
	SweepInterval  time.Duration
	Port           string
	Debug          bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	timeoutMinutes, err := getEnvIntStrict("SESSION_TIMEOUT_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sweepSeconds, err := getEnvIntStrict("SWEEP_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		BotName:        getEnv("BOT_NAME", "Financial Planner Bot"),
		DBPath:         getEnv("DB_PATH", "./data/finbot.db"),
		SessionTimeout: time.Duration(timeoutMinutes) * time.Minute,
		SweepInterval:  time.Duration(sweepSeconds) * time.Second,
		Port:           getEnv("PORT", "8080"),
		Debug:          getEnvBool("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be > 0")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	return nil
}

// TimeoutMinutes returns the session timeout as whole minutes, the unit
// used in user-facing messages.
func (c *Config) TimeoutMinutes() int {
	return int(c.SessionTimeout / time.Minute)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// getEnvIntStrict parses an integer environment variable. A value that is
// set but unparseable is an error, not a fallback.
func getEnvIntStrict(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
