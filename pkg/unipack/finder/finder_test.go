package finder_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/finder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.unitypackage"), 10)
	touch(t, filepath.Join(root, "nested", "deep", "B.UnityPackage"), 20)
	touch(t, filepath.Join(root, "nested", "readme.txt"), 5)
	touch(t, filepath.Join(root, "node_modules", "c.unitypackage"), 30)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.unitypackage"), 0o755))

	t.Run("finds packages case-insensitively", func(t *testing.T) {
		result, err := finder.Find(context.Background(), root, finder.Options{})
		require.NoError(t, err)

		require.Len(t, result.Packages, 3)
		assert.Equal(t, filepath.Join(root, "a.unitypackage"), result.Packages[0].Path)
		assert.Equal(t, int64(10), result.Packages[0].Size)
		assert.False(t, result.Packages[0].ModTime.IsZero())
		assert.Positive(t, result.DirsScanned)
	})

	t.Run("honors excludes", func(t *testing.T) {
		result, err := finder.Find(context.Background(), root, finder.Options{Exclude: finder.DefaultExclude})
		require.NoError(t, err)

		var paths []string
		for _, p := range result.Packages {
			paths = append(paths, p.Path)
		}
		assert.Equal(t, []string{
			filepath.Join(root, "a.unitypackage"),
			filepath.Join(root, "nested", "deep", "B.UnityPackage"),
		}, paths)
	})

	t.Run("reports progress", func(t *testing.T) {
		calls := 0
		_, err := finder.Find(context.Background(), root, finder.Options{
			Workers:    1,
			OnProgress: func(finder.Progress) { calls++ },
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, calls, 1)
	})
}

func TestFindErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := finder.Find(context.Background(), filepath.Join(t.TempDir(), "missing"), finder.Options{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "x.unitypackage")
		touch(t, file, 1)

		_, err := finder.Find(context.Background(), file, finder.Options{})
		assert.ErrorContains(t, err, "not a directory")
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := finder.Find(context.Background(), t.TempDir(), finder.Options{Exclude: []string{"[unclosed"}})
		assert.ErrorContains(t, err, "invalid exclude pattern")
	})

	t.Run("cancelled", func(t *testing.T) {
		root := t.TempDir()
		touch(t, filepath.Join(root, "a", "b.unitypackage"), 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := finder.Find(ctx, root, finder.Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
