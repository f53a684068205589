// Package correlate joins the members of a .unitypackage stream by GUID.
//
// Each GUID directory holds a "pathname" member with the logical path and an
// "asset" member with the payload. Either may arrive first. A GUID becomes a
// Record only when both halves were seen by the end of the stream.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/archive"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
)

// EntrySource yields archive entries until io.EOF.
type EntrySource interface {
	Next() (*archive.Entry, error)
}

// Record is a fully resolved GUID. Records are read-only once returned.
type Record struct {
	GUID string `json:"guid" yaml:"guid"`

	// Path is the logical, forward-slash separated path.
	Path string `json:"path" yaml:"path"`

	// Size is the payload length in bytes, known even when Payload was not kept.
	Size int64 `json:"size" yaml:"size"`

	// Payload holds the asset bytes. Nil in index-only mode.
	Payload []byte `json:"-" yaml:"-"`

	// Meta holds the asset.meta text when meta collection is enabled.
	Meta []byte `json:"-" yaml:"-"`
}

// Unresolved describes a GUID that was missing one half at end of stream.
type Unresolved struct {
	GUID     string `json:"guid" yaml:"guid"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	HasAsset bool   `json:"has_asset" yaml:"has_asset"`
}

// Result is the outcome of one correlation pass.
type Result struct {
	Records    []Record
	Unresolved []Unresolved

	// Entries counts every regular member read from the stream.
	Entries int64

	// Ignored counts members outside any GUID directory.
	Ignored int64
}

// Paths returns the logical paths of all records.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Records))
	for i, rec := range r.Records {
		paths[i] = rec.Path
	}
	return paths
}

// Option configures a correlation pass.
type Option func(*options)

type options struct {
	keepPayloads bool
	keepMeta     bool
}

// WithoutPayloads counts asset bytes instead of buffering them.
func WithoutPayloads() Option {
	return func(o *options) {
		o.keepPayloads = false
	}
}

// WithMeta keeps asset.meta content on each record.
func WithMeta(enabled bool) Option {
	return func(o *options) {
		o.keepMeta = enabled
	}
}

// partial accumulates the halves of one GUID while the stream is read.
type partial struct {
	path     string
	hasPath  bool
	payload  []byte
	size     int64
	hasAsset bool
	meta     []byte
	hasMeta  bool
}

// Correlate consumes src until io.EOF and resolves every GUID.
// Decode failures from src are returned as is; missing halves are not errors.
func Correlate(ctx context.Context, src EntrySource, opts ...Option) (*Result, error) {
	o := options{keepPayloads: true}
	for _, opt := range opts {
		opt(&o)
	}

	log := logging.Get("correlate")
	partials := make(map[string]*partial)
	result := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		result.Entries++

		guid, suffix, ok := archive.SplitMember(entry.Name)
		if !ok {
			result.Ignored++
			if err := entry.Drain(); err != nil {
				return nil, err
			}
			continue
		}

		p, seen := partials[guid]
		if !seen {
			p = &partial{}
			partials[guid] = p
		}

		if err := p.consume(entry, suffix, o); err != nil {
			return nil, err
		}
	}

	resolve(partials, result)

	log.Debug("correlation complete",
		"entries", result.Entries,
		"records", len(result.Records),
		"unresolved", len(result.Unresolved),
		"ignored", result.Ignored)

	return result, nil
}

// consume reads one member into the partial record.
func (p *partial) consume(entry *archive.Entry, suffix string, o options) error {
	switch suffix {
	case archive.SuffixPathname:
		data, err := io.ReadAll(entry)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name, err)
		}
		if p.hasPath {
			logging.Get("correlate").Debug("duplicate pathname member", "member", entry.Name)
		}
		// an empty pathname cannot be placed in the tree
		p.path = strings.TrimSpace(string(data))
		p.hasPath = p.path != ""

	case archive.SuffixAsset:
		if o.keepPayloads {
			data, err := io.ReadAll(entry)
			if err != nil {
				return fmt.Errorf("read %s: %w", entry.Name, err)
			}
			p.payload = data
			p.size = int64(len(data))
		} else {
			n, err := io.Copy(io.Discard, entry)
			if err != nil {
				return fmt.Errorf("read %s: %w", entry.Name, err)
			}
			p.size = n
		}
		p.hasAsset = true

	case archive.SuffixMeta:
		p.hasMeta = true
		if !o.keepMeta {
			return entry.Drain()
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name, err)
		}
		p.meta = data

	default:
		return entry.Drain()
	}

	return nil
}

// resolve promotes complete partials to records and reports the rest.
// Output is ordered by GUID so repeated passes over one archive agree.
func resolve(partials map[string]*partial, result *Result) {
	guids := make([]string, 0, len(partials))
	for guid := range partials {
		guids = append(guids, guid)
	}
	sort.Strings(guids)

	for _, guid := range guids {
		p := partials[guid]
		if p.hasPath && p.hasAsset {
			result.Records = append(result.Records, Record{
				GUID:    guid,
				Path:    p.path,
				Size:    p.size,
				Payload: p.payload,
				Meta:    p.meta,
			})
			continue
		}

		// folders carry a pathname and a meta but no asset
		if p.hasPath && p.hasMeta && !p.hasAsset {
			continue
		}
		// nothing to place or write
		if !p.hasPath && !p.hasAsset {
			continue
		}
		result.Unresolved = append(result.Unresolved, Unresolved{
			GUID:     guid,
			Path:     p.path,
			HasAsset: p.hasAsset,
		})
	}
}
