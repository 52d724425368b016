// Package config loads richclip's YAML configuration file, merging a
// config file with environment overrides on top of built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"richclip/pkg/errors"

	"gopkg.in/yaml.v3"
)

// defaultChunkSize mirrors pkg/x11.DefaultChunkSize; kept as a literal
// here so pkg/config has no dependency on a platform backend package.
const defaultChunkSize = 256 * 1024

// Config is the on-disk schema at $XDG_CONFIG_HOME/richclip/config.yaml.
// A missing file is not an error — every field falls back to its built-in
// default.
type Config struct {
	ChunkSize    int      `yaml:"chunk_size,omitempty"`
	Foreground   bool     `yaml:"foreground,omitempty"`
	OneShotMimes []string `yaml:"one_shot_mimes,omitempty"`
	LogLevel     string   `yaml:"log_level,omitempty"`
}

// Defaults returns the built-in configuration used when no file and no
// environment override is present.
func Defaults() *Config {
	return &Config{
		ChunkSize:    defaultChunkSize,
		Foreground:   false,
		OneShotMimes: nil, // nil means pkg/source.DefaultOneShotMimes
		LogLevel:     "info",
	}
}

// Load reads the config file (if present), then applies RICHCLIP_*
// environment overrides on top of whatever the file set. Precedence is
// flag > env > file > default; flag precedence is applied by the cobra
// command layer, not here.
func Load() (*Config, error) {
	cfg := Defaults()

	path, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}

	if err := mergeFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnvironmentOverrides(cfg)

	return cfg, nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "richclip", "config.yaml"), nil
}

// Save writes cfg to the config file, creating its directory if needed.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeIO, "failed to create config directory", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeIO, "failed to write config file", err)
	}
	return nil
}

func mergeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeIO, "failed to read config file", err)
	}
	file := &Config{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}
	if file.ChunkSize != 0 {
		cfg.ChunkSize = file.ChunkSize
	}
	if file.Foreground {
		cfg.Foreground = true
	}
	if len(file.OneShotMimes) > 0 {
		cfg.OneShotMimes = file.OneShotMimes
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("RICHCLIP_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChunkSize = n
		}
	}
	if v := os.Getenv("RICHCLIP_FOREGROUND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Foreground = b
		}
	}
	if v := os.Getenv("RICHCLIP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
