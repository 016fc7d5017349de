package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/isseis/go-wisty-fileio/internal/common"
	"github.com/isseis/go-wisty-fileio/internal/safefileio"
)

const maxConfigSize = 1 << 20

// DefaultConfigRelPath is the config location below the user config directory.
var DefaultConfigRelPath = filepath.Join("wisty", "fileio.toml")

// Loader locates and reads the configuration file.
type Loader struct {
	opener        *safefileio.Opener
	fs            common.FileSystem
	userConfigDir func() (string, error)
}

// NewLoader creates a loader that reads from the local disk.
func NewLoader() *Loader {
	return NewLoaderWith(safefileio.NewOpener(), common.NewDefaultFileSystem(), os.UserConfigDir)
}

// NewLoaderWith creates a loader with explicit collaborators.
func NewLoaderWith(opener *safefileio.Opener, fs common.FileSystem, userConfigDir func() (string, error)) *Loader {
	return &Loader{opener: opener, fs: fs, userConfigDir: userConfigDir}
}

// Load returns the effective configuration: the file named by
// WISTY_FILEIO_CONFIG, else the default location if a file exists there,
// else built-in defaults. Environment overrides are applied last and the
// result is validated.
func (l *Loader) Load() (*Config, string, error) {
	path, err := l.locate()
	if err != nil {
		return nil, "", err
	}

	cfg := Default()
	if path != "" {
		cfg, err = l.LoadFile(path)
		if err != nil {
			return nil, path, err
		}
	}

	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// locate returns the config file to read, or "" to use defaults.
func (l *Loader) locate() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	dir, err := l.userConfigDir()
	if err != nil {
		// no home directory; run on defaults
		return "", nil //nolint:nilerr
	}
	path := filepath.Join(dir, DefaultConfigRelPath)
	if _, err := l.fs.Stat(path); err != nil {
		if common.IsNotExist(err) {
			return "", nil
		}
		return "", &LoadError{Path: path, Err: err}
	}
	return path, nil
}

// LoadFile reads and parses a config file. Unset fields get defaults; the
// result is not validated.
func (l *Loader) LoadFile(path string) (*Config, error) {
	file, _, err := l.opener.OpenRegular(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxConfigSize+1))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(content) > maxConfigSize {
		return nil, &LoadError{Path: path, Err: ErrConfigTooLarge}
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes TOML content. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Parse(content []byte) (*Config, error) {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// ApplyEnv overrides cfg with any WISTY_FILEIO_* variables that are set.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogDir); ok {
		cfg.Logging.Dir = v
	}
	if v, ok := os.LookupEnv(EnvListen); ok {
		cfg.IPC.Listen = v
	}
}
