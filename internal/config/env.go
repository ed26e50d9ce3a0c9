package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the defaults.
const (
	EnvConfig   = "COMPUTE_WER_CONFIG"
	EnvDB       = "COMPUTE_WER_DB"
	EnvLogLevel = "COMPUTE_WER_LOG_LEVEL"
)

// LoadEnv reads KEY=value pairs from path into the process environment.
// Variables already set win, and a missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ConfigPath returns the config file path from the environment or the default.
func ConfigPath() string {
	return getEnv(EnvConfig, DefaultConfigPath())
}

// DBPath returns the history database path from the environment, the config
// file, or the default, in that order.
func DBPath(file FileConfig) string {
	if v := os.Getenv(EnvDB); v != "" {
		return v
	}
	if file.History.DB != nil && *file.History.DB != "" {
		return *file.History.DB
	}
	return DefaultDBPath()
}

// LogLevel returns the log level from the environment, the config file, or
// "warn".
func LogLevel(file FileConfig) string {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return v
	}
	if file.Log.Level != nil && *file.Log.Level != "" {
		return *file.Log.Level
	}
	return "warn"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
