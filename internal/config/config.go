// Package config defines the click counter configuration and its loader.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Default values.
const (
	DefaultName     = "uitest"
	DefaultTitle    = "WeaverDB"
	DefaultLogLevel = "info"
	appDir          = "clickcounter"
)

// Config contains process configuration.
type Config struct {
	// Root is the directory that holds database instances and the log file.
	Root string `koanf:"root"`

	// Name is the database instance the click table lives in.
	Name string `koanf:"name"`

	// Title is the application title shown on the screen.
	Title string `koanf:"title"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Root:     DefaultRoot(),
		Name:     DefaultName,
		Title:    DefaultTitle,
		LogLevel: DefaultLogLevel,
	}
}

// DefaultRoot returns $XDG_DATA_HOME/clickcounter, falling back to
// ~/.local/share/clickcounter and finally ./clickcounter.
func DefaultRoot() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appDir)
	}
	return appDir
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("%w: root must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel. Invalid levels map to Info;
// Validate rejects them first.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
}
