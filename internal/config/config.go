package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application, read once from the
// environment (optionally seeded from a .env file).
type Config struct {
	// Data source
	DatabaseURL string
	EODHDAPIKey string

	// Logging
	LogLevel  string
	LogFormat string // console or json
}

// Load reads configuration from the given env file (ignored if missing)
// and the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing file is fine: plain environment variables still apply.
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", "postgresql://localhost:5432/stocksim"),
		EODHDAPIKey: getEnv("EODHD_API_KEY", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
