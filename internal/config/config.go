// Package config loads the process configuration from an optional TOML file
// and environment variable overrides.
package config

import (
	"strings"

	"github.com/isseis/go-wisty-fileio/internal/sizegate"
)

// Environment variables recognised by Load.
const (
	EnvConfigPath = "WISTY_FILEIO_CONFIG"
	EnvLogLevel   = "WISTY_FILEIO_LOG_LEVEL"
	EnvLogDir     = "WISTY_FILEIO_LOG_DIR"
	EnvListen     = "WISTY_FILEIO_LISTEN"
)

// Default values for configuration fields
const (
	DefaultLogLevel = "info"
	// UnixListenPrefix selects a unix socket for the host channel.
	UnixListenPrefix = "unix:"
)

// Config is the full configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Limits   LimitsConfig   `toml:"limits"`
	Terminal TerminalConfig `toml:"terminal"`
	IPC      IPCConfig      `toml:"ipc"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Dir enables a JSON log file per run in this directory when set.
	Dir string `toml:"dir"`
}

// LimitsConfig holds the size gate thresholds for the launch file.
type LimitsConfig struct {
	SoftLimitBytes uint64 `toml:"soft_limit_bytes"`
	HardLimitBytes uint64 `toml:"hard_limit_bytes"`
}

// TerminalConfig overrides interactivity detection.
type TerminalConfig struct {
	ForceInteractive    bool `toml:"force_interactive"`
	ForceNonInteractive bool `toml:"force_non_interactive"`
}

// IPCConfig selects the host channel transport.
type IPCConfig struct {
	// Listen is empty for stdio or "unix:<path>" for a unix socket.
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: DefaultLogLevel},
		Limits: LimitsConfig{
			SoftLimitBytes: sizegate.DefaultSoftLimit,
			HardLimitBytes: sizegate.DefaultHardLimit,
		},
	}
}

// applyDefaults fills fields a config file left unset.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Limits.SoftLimitBytes == 0 {
		cfg.Limits.SoftLimitBytes = sizegate.DefaultSoftLimit
	}
	if cfg.Limits.HardLimitBytes == 0 {
		cfg.Limits.HardLimitBytes = sizegate.DefaultHardLimit
	}
}

// UnixSocketPath returns the socket path when the host channel is a unix
// socket, or "" for stdio.
func (c *IPCConfig) UnixSocketPath() string {
	path, ok := strings.CutPrefix(c.Listen, UnixListenPrefix)
	if !ok {
		return ""
	}
	return path
}
