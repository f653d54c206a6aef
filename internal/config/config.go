// Package config provides configuration file parsing for brewpick.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file name inside Dir().
const FileName = "config.toml"

// Defaults applied before the config file is read.
const (
	DefaultBrewPath       = "brew"
	DefaultCacheSize      = 64
	DefaultPreviewTimeout = 60 * time.Second
	DefaultLogLevel       = "warn"
)

// Dir returns the brewpick config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/brewpick if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "brewpick"), nil
}

// Config is the contents of config.toml.
//
//	brew_path = "/opt/homebrew/bin/brew"
//
//	[preview]
//	cache_size = 64
//	timeout = "60s"
//
//	[aliases]
//	rg = "ripgrep"
//
//	[log]
//	level = "info"
//	file = "~/.brewpick/brewpick.log"
type Config struct {
	BrewPath string            `toml:"brew_path"`
	Preview  PreviewConfig     `toml:"preview"`
	Aliases  map[string]string `toml:"aliases"`
	Log      LogConfig         `toml:"log"`
}

// PreviewConfig tunes the preview loader.
type PreviewConfig struct {
	CacheSize int    `toml:"cache_size"`
	Timeout   string `toml:"timeout"`
}

// LogConfig selects the log level and destination.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		BrewPath: DefaultBrewPath,
		Preview: PreviewConfig{
			CacheSize: DefaultCacheSize,
			Timeout:   DefaultPreviewTimeout.String(),
		},
		Aliases: make(map[string]string),
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads the config file at path. If the file does not exist, the
// defaults are returned without an error. Blank aliases are dropped.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.BrewPath) == "" {
		cfg.BrewPath = DefaultBrewPath
	}
	if cfg.Preview.CacheSize < 0 {
		return nil, fmt.Errorf("preview.cache_size must not be negative, got %d", cfg.Preview.CacheSize)
	}
	if _, err := cfg.PreviewTimeout(); err != nil {
		return nil, err
	}

	aliases := make(map[string]string, len(cfg.Aliases))
	for alias, pkg := range cfg.Aliases {
		alias = strings.TrimSpace(alias)
		pkg = strings.TrimSpace(pkg)
		if alias == "" || pkg == "" {
			continue
		}
		aliases[alias] = pkg
	}
	cfg.Aliases = aliases
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// LoadDefault loads config.toml from Dir().
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return Load(filepath.Join(dir, FileName))
}

// PreviewTimeout parses preview.timeout. Empty means the default; "0s"
// disables the timeout.
func (c *Config) PreviewTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Preview.Timeout) == "" {
		return DefaultPreviewTimeout, nil
	}
	d, err := time.ParseDuration(c.Preview.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid preview.timeout %q: %w", c.Preview.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("preview.timeout must not be negative, got %s", d)
	}
	return d, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
