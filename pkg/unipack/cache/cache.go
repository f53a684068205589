package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
)

// Cache stores one Index per archive, keyed by absolute path.
type Cache struct {
	store *Store
}

// Open opens or creates a cache in dir.
func Open(dir string) (*Cache, error) {
	store, err := OpenStore(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// OpenMemory returns a cache that is discarded on Close.
func OpenMemory() (*Cache, error) {
	store, err := OpenMemoryStore()
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Get returns the index for archivePath. It fails with ErrNotFound when none
// is stored and ErrStale when the archive changed since it was stored; a stale
// entry is removed.
func (c *Cache) Get(archivePath string) (*Index, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", archivePath, err)
	}

	data, err := c.store.Get(MakeKey(abs))
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := idx.Decode(data); err != nil {
		return nil, err
	}

	if err := Validate(&idx, abs); err != nil {
		switch {
		case errors.Is(err, ErrStale):
			logging.Get("cache").Debug("dropping stale index", "path", abs, "reason", err)
			_ = c.store.Delete(MakeKey(abs))
		case errors.Is(err, fs.ErrNotExist):
			logging.Get("cache").Debug("dropping index of missing archive", "path", abs)
			_ = c.store.Delete(MakeKey(abs))
			return nil, fmt.Errorf("%w: %s no longer exists", ErrNotFound, abs)
		}
		return nil, err
	}
	return &idx, nil
}

// Put stores the correlation result for archivePath, stamped with info.
// Take info before reading the archive: a change made during the read then
// leaves the stored index stale.
func (c *Cache) Put(archivePath string, info os.FileInfo, result *correlate.Result) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", archivePath, err)
	}

	data, err := NewIndex(info, result).Encode()
	if err != nil {
		return err
	}
	return c.store.Put(MakeKey(abs), data)
}

// Delete removes the index for archivePath.
func (c *Cache) Delete(archivePath string) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", archivePath, err)
	}
	return c.store.Delete(MakeKey(abs))
}

// Clear removes every index and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	return c.store.DeletePrefix(keyPrefix())
}

// Summary describes one cached index.
type Summary struct {
	Path      string    `json:"path" yaml:"path"`
	Assets    int       `json:"assets" yaml:"assets"`
	Bytes     int64     `json:"bytes" yaml:"bytes"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// List summarizes every stored index, ordered by path.
func (c *Cache) List() ([]Summary, error) {
	var out []Summary
	err := c.store.Scan(keyPrefix(), func(key, value []byte) error {
		var idx Index
		if err := idx.Decode(value); err != nil {
			return err
		}
		out = append(out, Summary{
			Path:      ParseKey(key),
			Assets:    len(idx.Entries),
			Bytes:     idx.TotalSize(),
			CreatedAt: time.Unix(0, idx.CreatedAt),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}
