// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Evaluate EvaluateConfig `toml:"evaluate"`
	History  HistoryConfig  `toml:"history"`
	Log      LogConfig      `toml:"log"`
}

// EvaluateConfig maps evaluation and report settings.
type EvaluateConfig struct {
	Char            *bool    `toml:"char"`
	Sort            *bool    `toml:"sort"`
	CaseSensitive   *bool    `toml:"case-sensitive"`
	RemoveTag       *bool    `toml:"remove-tag"`
	IgnoreFile      *string  `toml:"ignore-file"`
	SplitFile       *string  `toml:"split-file"`
	ClusterFile     *string  `toml:"cluster-file"`
	MaxWER          *float64 `toml:"max-wer"`
	Unicode         *string  `toml:"unicode"`
	Jobs            *int     `toml:"jobs"`
	Verbose         *bool    `toml:"verbose"`
	PaddingSymbol   *string  `toml:"padding-symbol"`
	MaxWordsPerLine *int     `toml:"max-words-per-line"`
	Format          *string  `toml:"format"`
	TopErrors       *int     `toml:"top-errors"`
	Color           *string  `toml:"color"`
	Record          *bool    `toml:"record"`
}

// HistoryConfig maps run history settings.
type HistoryConfig struct {
	DB     *string `toml:"db"`
	Window *int    `toml:"window"`
	Last   *int    `toml:"last"`
	Top    *int    `toml:"top"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
