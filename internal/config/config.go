package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"qwen-gateway/internal/qwen"
)

// Config holds all configuration for the application.
type Config struct {
	DashScopeAPIKey    string
	DashScopeAPISecret string
	DashScopeEndpoint  string
	RequestTimeout     time.Duration
	// DBPath is the execution history database. Empty disables history.
	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// HistoryEnabled reports whether item results should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.DBPath != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	// Walk up a few levels so the binary works from subdirectories too
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		// The API key may be absent: every work item then fails with a configuration error.
		DashScopeAPIKey:    getEnv("DASHSCOPE_API_KEY", ""),
		DashScopeAPISecret: getEnv("DASHSCOPE_API_SECRET", ""),
		DashScopeEndpoint:  getEnv("DASHSCOPE_BASE_URL", qwen.DefaultEndpoint),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// DB_PATH set to an empty string disables history; unset uses the default.
	if dbPath, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DBPath = dbPath
	} else {
		cfg.DBPath = "./data/qwen-gateway.db"
	}

	timeout, err := time.ParseDuration(getEnv("QWEN_REQUEST_TIMEOUT", qwen.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("QWEN_REQUEST_TIMEOUT must be a valid duration: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("QWEN_REQUEST_TIMEOUT must be greater than 0")
	}
	cfg.RequestTimeout = timeout

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	port, err := strconv.Atoi(cfg.APIPort)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("API_PORT must be a valid TCP port, got %q", cfg.APIPort)
	}

	// Create the history directory if it doesn't exist
	if cfg.HistoryEnabled() {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
