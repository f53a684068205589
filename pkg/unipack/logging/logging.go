// Package logging provides component loggers backed by charmbracelet/log.
//
// Output goes to a rotating file under the XDG state directory, optionally to
// stderr, and to in-process subscribers such as the terminal UI log panel.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	log := logging.Get("extract")
//	log.Info("extraction finished", "written", 12)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lower-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for an unrecognised level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ErrInvalidFormat is returned for an unrecognised file format.
var ErrInvalidFormat = errors.New("invalid log format")

// ParseLevel parses a level name. "warning" is accepted as "warn".
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	for lvl, n := range levelNames {
		if n == name {
			return lvl, nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// parseFormat maps a format name to a charmbracelet formatter.
func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}
}

// Config configures Init.
type Config struct {
	// Level is the default level for every component.
	Level string

	// Path is the log file. Empty uses DefaultLogPath.
	Path string

	// Format selects the file encoding: text, json or logfmt.
	Format string

	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records at or above this level to stderr.
	// Empty disables console output.
	ConsoleLevel string

	// TUIMode suppresses console output and keeps recent records in a ring
	// buffer for the log panel.
	TUIMode bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Format:   "text",
		Rotation: DefaultRotationConfig(),
	}
}

// DefaultLogPath returns $XDG_STATE_HOME/unipack/unipack.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "unipack", "unipack.log")
}

// Entry is one record delivered to subscribers and the ring buffer.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string

	// Fields holds the alternating key/value pairs passed with the record.
	Fields []any
}

// Logger writes records for one component.
type Logger struct {
	component string
	file      *log.Logger
	console   *log.Logger
	fields    []any
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, keyvals ...any) { l.emit(LevelDebug, msg, keyvals) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, keyvals ...any) { l.emit(LevelInfo, msg, keyvals) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, keyvals ...any) { l.emit(LevelWarn, msg, keyvals) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, keyvals ...any) { l.emit(LevelError, msg, keyvals) }

// With returns a logger that adds keyvals to every record.
func (l *Logger) With(keyvals ...any) *Logger {
	child := &Logger{
		component: l.component,
		file:      l.file.With(keyvals...),
		fields:    append(append([]any(nil), l.fields...), keyvals...),
	}
	if l.console != nil {
		child.console = l.console.With(keyvals...)
	}
	return child
}

func (l *Logger) emit(level Level, msg string, keyvals []any) {
	l.file.Log(level.charm(), msg, keyvals...)
	if l.console != nil {
		l.console.Log(level.charm(), msg, keyvals...)
	}

	reg.publish(Entry{
		Time:      time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
		Fields:    append(append([]any(nil), l.fields...), keyvals...),
	})
}

// registry is the process-wide logging state.
type registry struct {
	mu          sync.RWMutex
	ready       bool
	cfg         Config
	level       Level
	components  map[string]Level
	console     *Level
	formatter   log.Formatter
	writer      *RotatingWriter
	loggers     map[string]*Logger
	subscribers map[chan Entry]struct{}
	ring        *Ring
}

var reg = &registry{
	loggers:     make(map[string]*Logger),
	components:  make(map[string]Level),
	subscribers: make(map[chan Entry]struct{}),
}

// Init configures logging. It may be called again to reconfigure; loggers
// already handed out by Get are rebuilt in place.
// Until Init is called every logger discards its output.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	formatter, err := parseFormat(cfg.Format)
	if err != nil {
		return err
	}
	components := make(map[string]Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parse level for component %s: %w", name, err)
		}
		components[name] = parsed
	}
	var console *Level
	if cfg.ConsoleLevel != "" && !cfg.TUIMode {
		parsed, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parse console level: %w", err)
		}
		console = &parsed
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("create log writer: %w", err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.writer != nil {
		_ = reg.writer.Close()
	}
	reg.ready = true
	reg.cfg = cfg
	reg.level = level
	reg.components = components
	reg.console = console
	reg.formatter = formatter
	reg.writer = writer
	reg.ring = nil
	if cfg.TUIMode {
		reg.ring = NewRing(DefaultRingSize)
	}

	for name, l := range reg.loggers {
		*l = *reg.build(name)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	reg.mu.RLock()
	l, ok := reg.loggers[component]
	reg.mu.RUnlock()
	if ok {
		return l
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if l, ok := reg.loggers[component]; ok {
		return l
	}
	l = reg.build(component)
	reg.loggers[component] = l
	return l
}

// build creates a logger. reg.mu must be held.
func (r *registry) build(component string) *Logger {
	level := r.level
	if lvl, ok := r.components[component]; ok {
		level = lvl
	}

	if !r.ready {
		return &Logger{
			component: component,
			file:      log.NewWithOptions(io.Discard, log.Options{Prefix: component}),
		}
	}

	l := &Logger{
		component: component,
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           level.charm(),
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       r.formatter,
		}),
	}
	if r.console != nil {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.console.charm(),
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	}
	return l
}

// Close flushes the log file and detaches every subscriber.
// Loggers keep working afterwards but discard their output.
func Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if !reg.ready {
		return nil
	}
	for ch := range reg.subscribers {
		close(ch)
		delete(reg.subscribers, ch)
	}

	var err error
	if reg.writer != nil {
		err = reg.writer.Close()
		reg.writer = nil
	}
	reg.ready = false
	reg.components = make(map[string]Level)
	reg.console = nil
	for name, l := range reg.loggers {
		*l = *reg.build(name)
	}
	if err != nil {
		return fmt.Errorf("close log writer: %w", err)
	}
	return nil
}

// subscriberBuffer is the channel capacity given to each subscriber.
// Records are dropped for a subscriber whose channel is full.
const subscriberBuffer = 100

// Subscribe returns a channel receiving every record logged after the call.
func Subscribe() <-chan Entry {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ch := make(chan Entry, subscriberBuffer)
	reg.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch. The channel is left open.
func Unsubscribe(ch <-chan Entry) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for sub := range reg.subscribers {
		if sub == ch {
			delete(reg.subscribers, sub)
			return
		}
	}
}

// Buffer returns the TUI ring buffer, or nil outside TUI mode.
func Buffer() *Ring {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.ring
}

func (r *registry) publish(e Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ready {
		return
	}
	if r.ring != nil {
		r.ring.Add(e)
	}
	for ch := range r.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
