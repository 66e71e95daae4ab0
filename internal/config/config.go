package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Log formats accepted in LOG_FORMAT.
const (
	LogFormatAuto    = "auto"
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Config struct {
	LogLevel  string
	LogFormat string
	// ServerDir is the default dedicated server install, overridden by
	// --dst-server-dir.
	ServerDir string
}

// Load reads the process configuration from the environment. A .env file in
// the working directory is applied first if present; variables already set
// in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", LogFormatAuto),
		ServerDir: getEnv("DST_SERVER_DIR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case LogFormatAuto, LogFormatJSON, LogFormatConsole:
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be %s, %s or %s, got %q", LogFormatAuto, LogFormatJSON, LogFormatConsole, c.LogFormat)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
