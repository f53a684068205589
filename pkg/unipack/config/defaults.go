// Package config loads unipack settings from file, environment and flags.
package config

import (
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/finder"
)

// AppName names the XDG directories and the environment prefix.
const AppName = "unipack"

// EnvPrefix prefixes environment overrides, e.g. UNIPACK_OUTPUT_DIR.
const EnvPrefix = "UNIPACK"

const (
	// DefaultOutputDir is where extract writes when -o is not given.
	DefaultOutputDir = "."

	// DefaultFormat is the list formatter.
	DefaultFormat = "pretty"

	// DefaultRetentionDays is how long manifest entries are kept.
	DefaultRetentionDays = 30

	// DefaultWatchDebounce settles bursts of writes to a watched package.
	DefaultWatchDebounce = 250 * time.Millisecond
)

// DefaultExclusions are the directory globs skipped by find.
var DefaultExclusions = finder.DefaultExclude

// DefaultComponentLevels are the per-component log levels written by
// config init.
var DefaultComponentLevels = map[string]string{
	"archive":   "info",
	"correlate": "info",
	"extract":   "info",
	"cache":     "warn",
	"watcher":   "warn",
	"tui":       "info",
}
