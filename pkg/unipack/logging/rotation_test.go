package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriterSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	w.nowFunc = func() time.Time { return clock }

	_, err = w.Write([]byte("12345678"))
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	_, err = w.Write([]byte("abcdef"))
	require.NoError(t, err)

	backups := w.backups()
	require.Len(t, backups, 1)
	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(old))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(current))
}

func TestRotatingWriterDaily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, RotationConfig{Daily: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("today"))
	require.NoError(t, err)
	assert.Empty(t, w.backups())

	w.nowFunc = func() time.Time { return time.Now().AddDate(0, 0, 1) }
	_, err = w.Write([]byte("tomorrow"))
	require.NoError(t, err)
	assert.Len(t, w.backups(), 1)
}

func TestRotatingWriterPrune(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, "app."+base.Add(time.Duration(i)*time.Hour).Format(backupLayout)+".log")
		require.NoError(t, os.WriteFile(name, []byte("old"), 0o644))
	}
	ancient := filepath.Join(dir, "app.19990101T000000.log")
	require.NoError(t, os.WriteFile(ancient, []byte("ancient"), 0o644))
	longAgo := time.Now().AddDate(-1, 0, 0)
	require.NoError(t, os.Chtimes(ancient, longAgo, longAgo))

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 2, MaxAge: 30})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	remaining := w.backups()
	require.Len(t, remaining, 2)
	assert.Contains(t, remaining[0], base.Add(3*time.Hour).Format(backupLayout))
	assert.NoFileExists(t, ancient)
}

func TestRotatingWriterClosed(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "x.log"), RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
