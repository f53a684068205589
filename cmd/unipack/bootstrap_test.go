package main

import (
	"os"
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/config"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/spf13/viper"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name: "default values",
			input: config.RotationConfig{
				MaxSize:    "10MB",
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
			expected: logging.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
		},
		{
			name: "custom size in gigabytes",
			input: config.RotationConfig{
				MaxSize:    "1G",
				MaxAge:     7,
				MaxBackups: 3,
			},
			expected: logging.RotationConfig{
				MaxSize:    1024 * 1024 * 1024,
				MaxAge:     7,
				MaxBackups: 3,
			},
		},
		{
			name: "empty max_size uses default",
			input: config.RotationConfig{
				MaxAge:     14,
				MaxBackups: 2,
				Daily:      true,
			},
			expected: logging.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxAge:     14,
				MaxBackups: 2,
				Daily:      true,
			},
		},
		{
			name: "invalid max_size uses default",
			input: config.RotationConfig{
				MaxSize:    "invalid",
				MaxAge:     21,
				MaxBackups: 4,
			},
			expected: logging.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxAge:     21,
				MaxBackups: 4,
			},
		},
		{
			name:  "zero max_size uses default",
			input: config.RotationConfig{MaxSize: "0"},
			expected: logging.RotationConfig{
				MaxSize: 10 * 1024 * 1024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseRotationConfig(tt.input)
			if result != tt.expected {
				t.Errorf("parseRotationConfig() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	c := &config.Config{
		Logging: config.LoggingConfig{
			Level:      "info",
			Format:     "json",
			Components: map[string]string{"extract": "debug"},
		},
	}

	tests := []struct {
		name        string
		verbose     bool
		quiet       bool
		tui         bool
		wantLevel   string
		wantConsole string
	}{
		{name: "default", wantLevel: "info", wantConsole: "warn"},
		{name: "verbose", verbose: true, wantLevel: "debug", wantConsole: "debug"},
		{name: "quiet wins over verbose", verbose: true, quiet: true, wantLevel: "info", wantConsole: "error"},
		{name: "tui", tui: true, wantLevel: "info", wantConsole: "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			viper.Set("verbose", tt.verbose)
			viper.Set("quiet", tt.quiet)

			lc := loggingConfig(c, tt.tui)
			if lc.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", lc.Level, tt.wantLevel)
			}
			if lc.ConsoleLevel != tt.wantConsole {
				t.Errorf("ConsoleLevel = %q, want %q", lc.ConsoleLevel, tt.wantConsole)
			}
			if lc.TUIMode != tt.tui {
				t.Errorf("TUIMode = %v, want %v", lc.TUIMode, tt.tui)
			}
			if lc.Path != config.DefaultLogPath() {
				t.Errorf("Path = %q, want default %q", lc.Path, config.DefaultLogPath())
			}
			if lc.Format != "json" || lc.Components["extract"] != "debug" {
				t.Errorf("format or components not carried over: %+v", lc)
			}
		})
	}
}

func TestInitializeLoggingEnsuresDirectories(t *testing.T) {
	// XDG data and state paths are resolved once at package init, so only the
	// config directory can be redirected here.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	cfg = nil
	t.Cleanup(func() {
		_ = logging.Close()
		viper.Reset()
		cfg = nil
	})

	if err := initializeLogging(nil, nil); err != nil {
		t.Fatalf("initializeLogging() returned error: %v", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		t.Fatalf("failed to get config dir: %v", err)
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("directory was not created: %s", dir)
		}
	}

	if cfg == nil {
		t.Fatal("initializeLogging() did not load the configuration")
	}
	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format = %q, want %q", cfg.Format, config.DefaultFormat)
	}
}

func TestOpenManifestDisabled(t *testing.T) {
	c := &config.Config{Manifest: config.ManifestConfig{Enabled: false, Path: t.TempDir()}}
	if m := openManifest(c); m != nil {
		t.Error("openManifest() returned a manifest while disabled")
	}

	c.Manifest.Enabled = true
	m := openManifest(c)
	if m == nil {
		t.Fatal("openManifest() = nil, want manifest")
	}
	if m.Dir() != c.Manifest.Path {
		t.Errorf("Dir() = %q, want %q", m.Dir(), c.Manifest.Path)
	}
}

func TestOpenCacheDisabled(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	c := &config.Config{Cache: config.CacheConfig{Enabled: false, Path: t.TempDir()}}
	if store := openCache(c); store != nil {
		t.Error("openCache() returned a cache while disabled")
	}

	c.Cache.Enabled = true
	viper.Set("no_cache", true)
	if store := openCache(c); store != nil {
		t.Error("openCache() ignored --no-cache")
	}

	viper.Set("no_cache", false)
	store := openCache(c)
	if store == nil {
		t.Fatal("openCache() = nil, want cache")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
