package main

import (
	"fmt"

	"github.com/jamesainslie/unipack/pkg/unipack/cache"
	"github.com/jamesainslie/unipack/pkg/unipack/config"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/jamesainslie/unipack/pkg/unipack/manifest"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfg is loaded once per process by loadConfig.
var cfg *config.Config

// loadConfig reads the configuration from file, environment and flags.
func loadConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = c
	return cfg, nil
}

// initializeLogging is the PersistentPreRunE hook. It creates the XDG
// directories and starts file logging with console mirroring.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(loggingConfig(c, false)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// initTUILogging switches logging to the ring buffer shown in the TUI log
// panel. Console output would corrupt the alternate screen.
func initTUILogging() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	return logging.Init(loggingConfig(c, true))
}

// loggingConfig maps the application config onto logging.Config.
func loggingConfig(c *config.Config, tuiMode bool) logging.Config {
	lc := logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Format:     c.Logging.Format,
		Rotation:   parseRotationConfig(c.Logging.Rotation),
		Components: c.Logging.Components,
		TUIMode:    tuiMode,
	}
	if lc.Path == "" {
		lc.Path = config.DefaultLogPath()
	}

	switch {
	case getQuiet():
		lc.ConsoleLevel = "error"
	case getVerbose():
		lc.Level = "debug"
		lc.ConsoleLevel = "debug"
	default:
		lc.ConsoleLevel = "warn"
	}
	return lc
}

// parseRotationConfig converts the YAML rotation settings. An empty or
// unparsable max_size falls back to the logging default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	return out
}

// openCache opens the index cache unless it is disabled. Failures are
// logged and the command continues without a cache.
func openCache(c *config.Config) *cache.Cache {
	if !c.Cache.Enabled || viper.GetBool("no_cache") {
		return nil
	}
	store, err := cache.Open(c.Cache.Path)
	if err != nil {
		logging.Get("cli").Warn("cache unavailable", "path", c.Cache.Path, "error", err)
		return nil
	}
	return store
}

// openManifest returns the extraction history, or nil when disabled.
func openManifest(c *config.Config) *manifest.Manifest {
	if !c.Manifest.Enabled {
		return nil
	}
	m, err := manifest.New(c.Manifest.Path)
	if err != nil {
		logging.Get("cli").Warn("history unavailable", "error", err)
		return nil
	}
	return m
}
