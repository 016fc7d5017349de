package config

import (
	"fmt"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks cfg for values the rest of the program cannot work with.
func Validate(cfg *Config) error {
	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidLogLevel, cfg.Logging.Level, strings.Join(validLogLevels, ", "))
	}
	if cfg.Limits.SoftLimitBytes == 0 || cfg.Limits.HardLimitBytes <= cfg.Limits.SoftLimitBytes {
		return fmt.Errorf("%w: soft limit %d must be positive and below hard limit %d",
			ErrInvalidLimits, cfg.Limits.SoftLimitBytes, cfg.Limits.HardLimitBytes)
	}
	if cfg.Terminal.ForceInteractive && cfg.Terminal.ForceNonInteractive {
		return ErrConflictingTerminalOverrides
	}
	if cfg.IPC.Listen != "" && cfg.IPC.UnixSocketPath() == "" {
		return fmt.Errorf("%w: %q (expected \"\" or \"%s<path>\")", ErrInvalidListen, cfg.IPC.Listen, UnixListenPrefix)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	for _, l := range validLogLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
