package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "compute-wer"

// DefaultDBPath returns the default path for the run history database.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, appName, "history.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}
