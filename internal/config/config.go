// Package config loads storyreader settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all storyreader configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
	Reader   ReaderConfig   `yaml:"reader"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the novel store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ClientConfig configures how the reading clients reach the API.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// ReaderConfig holds reading defaults.
type ReaderConfig struct {
	FontSize string `yaml:"font_size"` // Small, Medium or Large
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty = stderr
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: filepath.Join(dataDir(), "novels.db")},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080/",
			Timeout: "10s",
		},
		Reader:  ReaderConfig{FontSize: "Large"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns XDG_CONFIG_HOME/storyreader/config.yaml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "storyreader", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "storyreader", "config.yaml")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "storyreader")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "storyreader")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STORYREADER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORYREADER_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("STORYREADER_BASE_URL"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("STORYREADER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks durations, font size and log level.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Client.Timeout); err != nil {
		return fmt.Errorf("client.timeout: %w", err)
	}
	switch strings.ToLower(c.Reader.FontSize) {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("reader.font_size: unknown size %q", c.Reader.FontSize)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Client.BaseURL == "" {
		return errors.New("client.base_url is required")
	}
	return nil
}

// ClientTimeout returns the parsed client timeout.
func (c *Config) ClientTimeout() time.Duration {
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
