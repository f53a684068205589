package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Format     string            `mapstructure:"format"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the package index cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ManifestConfig configures extraction history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// FindConfig configures the find command.
type FindConfig struct {
	Exclude        []string `mapstructure:"exclude"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
}

// WatchConfig configures package reloads in the TUI.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	OutputDir string `mapstructure:"output_dir"`

	// Workers caps concurrent file writes. Zero sizes the pool from the
	// machine.
	Workers int `mapstructure:"workers"`

	// WithMeta writes each asset's .meta file next to it.
	WithMeta bool   `mapstructure:"with_meta"`
	Format   string `mapstructure:"format"`

	Cache    CacheConfig    `mapstructure:"cache"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Find     FindConfig     `mapstructure:"find"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("workers", 0)
	v.SetDefault("with_meta", false)
	v.SetDefault("format", DefaultFormat)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "") // empty means DefaultCachePath

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", "") // empty means ManifestDir
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("find.exclude", DefaultExclusions)
	v.SetDefault("find.follow_symlinks", false)

	v.SetDefault("watch.debounce", DefaultWatchDebounce)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means DefaultLogPath
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})
}

// Setup points v at the config file and environment. An explicit file
// replaces the search path.
func Setup(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return nil
}

// Load reads the config file (a missing one is fine) and decodes v.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := Setup(v, file); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v and resolves default paths.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.OutputDir, err = ExpandPath(cfg.OutputDir); err != nil {
		return nil, err
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	} else if cfg.Cache.Path, err = ExpandPath(cfg.Cache.Path); err != nil {
		return nil, err
	}

	if cfg.Manifest.Path == "" {
		if cfg.Manifest.Path, err = ManifestDir(); err != nil {
			return nil, err
		}
	} else if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}

	if cfg.Logging.Path != "" {
		if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/unipack, falling back to
// ~/.config/unipack. The environment is read on every call so tests can
// redirect it.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ManifestDir returns the default history directory.
func ManifestDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".manifest"), nil
}

// DataDir returns $XDG_DATA_HOME/unipack.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/unipack, where logs live.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// CacheDir returns $XDG_CACHE_HOME/unipack.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultCachePath returns the badger directory for the index cache.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "index")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), AppName+".log")
}

// EnsureDirs creates the config, data and state directories.
func EnsureDirs() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, DataDir(), StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file unless one exists.
// It returns the path and whether a file was written.
func WriteDefault() (string, bool, error) {
	path, err := ConfigFile()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultFile()), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

func defaultFile() string {
	var b strings.Builder

	fmt.Fprintf(&b, `# unipack configuration

# Directory extract writes into when -o is not given
output_dir: %s

# Concurrent file writes during extraction (0 = size from CPU count)
workers: 0

# Write each asset's .meta file next to it
with_meta: false

# Default list format: pretty, plain, json, jsonl, yaml, table, tsv, csv, markdown
format: %s

# Parsed package index, keyed by path, size and modification time
cache:
  enabled: true
  # empty means $XDG_CACHE_HOME/unipack/index
  path: ""

# Extraction history
manifest:
  enabled: true
  # empty means ~/.config/unipack/.manifest
  path: ""
  retention_days: %d

# Directories skipped by find
find:
  follow_symlinks: false
  exclude:
`, DefaultOutputDir, DefaultFormat, DefaultRetentionDays)

	for _, pattern := range DefaultExclusions {
		fmt.Fprintf(&b, "    - %q\n", pattern)
	}

	fmt.Fprintf(&b, `
# Reload delay for the TUI --watch flag
watch:
  debounce: %s

logging:
  # debug, info, warn, error
  level: info
  # text, json or logfmt
  format: text
  # empty means $XDG_STATE_HOME/unipack/unipack.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
`, DefaultWatchDebounce)

	for _, name := range []string{"archive", "cache", "correlate", "extract", "tui", "watcher"} {
		fmt.Fprintf(&b, "    %s: %s\n", name, DefaultComponentLevels[name])
	}
	return b.String()
}
