package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests share the package-level registry and must not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{in: "debug", want: logging.LevelDebug},
		{in: "INFO", want: logging.LevelInfo},
		{in: "warning", want: logging.LevelWarn},
		{in: " error ", want: logging.LevelError},
		{in: "loud", want: logging.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "unknown", logging.Level(99).String())
}

func TestInitAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "unipack.log")

	before := logging.Get("early")
	before.Info("dropped before init")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("quiet").Debug("hidden debug")
	logging.Get("chatty").Debug("visible debug")
	before.Info("after init", "key", "value")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.NotContains(t, text, "dropped before init")
	assert.NotContains(t, text, "hidden debug")
	assert.Contains(t, text, "visible debug")
	assert.Contains(t, text, "after init")
	assert.Contains(t, text, "key=value")
}

func TestInitErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  logging.Config
	}{
		{name: "bad level", cfg: logging.Config{Level: "nope", Path: filepath.Join(dir, "a.log")}},
		{name: "bad component level", cfg: logging.Config{Level: "info", Path: filepath.Join(dir, "b.log"), Components: map[string]string{"x": "?"}}},
		{name: "bad console level", cfg: logging.Config{Level: "info", Path: filepath.Join(dir, "c.log"), ConsoleLevel: "?"}},
		{name: "bad format", cfg: logging.Config{Level: "info", Path: filepath.Join(dir, "d.log"), Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, logging.Init(tt.cfg))
		})
	}
}

func TestJSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path, Format: "json"}))

	logging.Get("fmt").Info("structured", "n", 3)
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.True(t, strings.HasPrefix(line, "{"), line)
	assert.Contains(t, line, `"msg":"structured"`)
}

func TestSubscribeAndBuffer(t *testing.T) {
	require.NoError(t, logging.Init(logging.Config{
		Level:   "debug",
		Path:    filepath.Join(t.TempDir(), "tui.log"),
		TUIMode: true,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	ch := logging.Subscribe()
	logger := logging.Get("tui").With("pkg", "demo")
	logger.Warn("something odd", "count", 2)

	select {
	case e := <-ch:
		assert.Equal(t, "tui", e.Component)
		assert.Equal(t, logging.LevelWarn, e.Level)
		assert.Equal(t, "something odd", e.Message)
		assert.Equal(t, []any{"pkg", "demo", "count", 2}, e.Fields)
	case <-time.After(time.Second):
		t.Fatal("no entry delivered")
	}
	logging.Unsubscribe(ch)

	buf := logging.Buffer()
	require.NotNil(t, buf)
	assert.Equal(t, 1, buf.Len())
}

func TestCloseWithoutInit(t *testing.T) {
	require.NoError(t, logging.Close())
	assert.Nil(t, logging.Buffer())
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, strings.HasSuffix(cfg.Path, filepath.Join("unipack", "unipack.log")))
	assert.Equal(t, logging.DefaultRotationConfig(), cfg.Rotation)
}
