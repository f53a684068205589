package cache

import (
	"errors"
	"fmt"
	"os"
)

// ErrStale is returned when the archive changed after its index was stored.
var ErrStale = errors.New("cache entry is stale")

// Validate checks idx against the archive on disk. An index matches when the
// format version, size and modification time are all unchanged.
func Validate(idx *Index, archivePath string) error {
	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", archivePath, err)
	}
	return validateInfo(idx, info)
}

func validateInfo(idx *Index, info os.FileInfo) error {
	switch {
	case idx.Version != FormatVersion:
		return fmt.Errorf("%w: format version %d", ErrStale, idx.Version)
	case idx.Size != info.Size():
		return fmt.Errorf("%w: size changed", ErrStale)
	case idx.ModTime != info.ModTime().UnixNano():
		return fmt.Errorf("%w: modification time changed", ErrStale)
	}
	return nil
}
