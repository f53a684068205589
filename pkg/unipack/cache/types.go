// Package cache persists package indexes in Badger so that browsing a
// .unitypackage a second time skips decompressing it.
package cache

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is bumped when the encoded Index layout changes.
// Entries with a different version are treated as stale.
const FormatVersion = 1

// keySeparator splits the namespace from the archive path in keys.
const keySeparator = '\x00'

// indexNamespace prefixes every index key.
const indexNamespace = "index"

// IndexEntry is one resolved asset without its payload.
type IndexEntry struct {
	GUID string `msgpack:"g"`
	Path string `msgpack:"p"`
	Size int64  `msgpack:"s"`
}

// UnresolvedEntry mirrors correlate.Unresolved.
type UnresolvedEntry struct {
	GUID     string `msgpack:"g"`
	Path     string `msgpack:"p,omitempty"`
	HasAsset bool   `msgpack:"a"`
}

// Index is the cached listing of one archive.
type Index struct {
	Version int `msgpack:"v"`

	// Size and ModTime identify the archive revision the index was built from.
	Size    int64 `msgpack:"size"`
	ModTime int64 `msgpack:"mtime"`

	// CreatedAt is when the index was stored, in Unix nanoseconds.
	CreatedAt int64 `msgpack:"created"`

	Entries    []IndexEntry      `msgpack:"entries"`
	Unresolved []UnresolvedEntry `msgpack:"unresolved,omitempty"`
}

// NewIndex captures result for the archive described by info.
func NewIndex(info os.FileInfo, result *correlate.Result) *Index {
	idx := &Index{
		Version:   FormatVersion,
		Size:      info.Size(),
		ModTime:   info.ModTime().UnixNano(),
		CreatedAt: time.Now().UnixNano(),
		Entries:   make([]IndexEntry, len(result.Records)),
	}
	for i, rec := range result.Records {
		idx.Entries[i] = IndexEntry{GUID: rec.GUID, Path: rec.Path, Size: rec.Size}
	}
	for _, u := range result.Unresolved {
		idx.Unresolved = append(idx.Unresolved, UnresolvedEntry{GUID: u.GUID, Path: u.Path, HasAsset: u.HasAsset})
	}
	return idx
}

// Result rebuilds a payload-free correlation result from the index.
func (idx *Index) Result() *correlate.Result {
	res := &correlate.Result{
		Records: make([]correlate.Record, len(idx.Entries)),
	}
	for i, e := range idx.Entries {
		res.Records[i] = correlate.Record{GUID: e.GUID, Path: e.Path, Size: e.Size}
	}
	for _, u := range idx.Unresolved {
		res.Unresolved = append(res.Unresolved, correlate.Unresolved{GUID: u.GUID, Path: u.Path, HasAsset: u.HasAsset})
	}
	return res
}

// TotalSize sums the entry sizes.
func (idx *Index) TotalSize() int64 {
	var total int64
	for _, e := range idx.Entries {
		total += e.Size
	}
	return total
}

// Encode serializes the index with msgpack.
func (idx *Index) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return data, nil
}

// Decode replaces idx with the decoded data.
func (idx *Index) Decode(data []byte) error {
	if err := msgpack.Unmarshal(data, idx); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	return nil
}

// MakeKey returns the store key for an archive path.
func MakeKey(archivePath string) []byte {
	return []byte(indexNamespace + string(keySeparator) + archivePath)
}

// ParseKey returns the archive path stored in key.
func ParseKey(key []byte) string {
	_, path, found := bytes.Cut(key, []byte{keySeparator})
	if !found {
		return ""
	}
	return string(path)
}

// keyPrefix covers every index key.
func keyPrefix() []byte {
	return []byte(indexNamespace + string(keySeparator))
}
