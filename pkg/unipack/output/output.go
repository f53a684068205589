// Package output renders package listings in the formats offered by the
// list command (pretty, plain, json, yaml, and so on).
//
// Formatters are kept in a registry and selected by name at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, listing); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/jamesainslie/unipack/pkg/unipack/tree"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
)

// File is one resolved asset prepared for display.
type File struct {
	// Path is the logical path inside the package.
	Path string `json:"path" yaml:"path"`

	GUID string `json:"guid" yaml:"guid"`

	// Name is the last path segment.
	Name string `json:"name" yaml:"name"`

	// Ext is the extension including the dot (e.g. ".cs").
	Ext string `json:"ext" yaml:"ext"`

	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the IEC formatted size (e.g. "1.5 MiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// Depth is the number of separators in Path.
	Depth int `json:"depth" yaml:"depth"`
}

// Stats summarises the pass that produced a listing.
type Stats struct {
	// Entries is the number of archive members read.
	Entries int64 `json:"entries" yaml:"entries"`

	// Ignored counts members outside any GUID directory.
	Ignored int64 `json:"ignored" yaml:"ignored"`

	Duration time.Duration `json:"duration" yaml:"duration"`

	// Cached is set when the listing came from the index cache.
	Cached bool `json:"cached" yaml:"cached"`
}

// Listing is everything a formatter can render.
type Listing struct {
	// Source is the package path.
	Source string

	// Tree is the logical hierarchy. Formatters that only need a flat view
	// ignore it, and pretty falls back to Files when it is nil.
	Tree *tree.Node

	Files      []File
	Unresolved []correlate.Unresolved
	Stats      Stats
	Warnings   []string
}

// NewListing prepares records for display, keeping their order.
func NewListing(source string, records []correlate.Record) *Listing {
	files := make([]File, len(records))
	for i, rec := range records {
		files[i] = NewFile(rec)
	}
	return &Listing{Source: source, Files: files}
}

// NewFile converts one record.
func NewFile(rec correlate.Record) File {
	return File{
		Path:      rec.Path,
		GUID:      rec.GUID,
		Name:      path.Base(rec.Path),
		Ext:       path.Ext(rec.Path),
		Size:      rec.Size,
		SizeHuman: types.FormatSize(rec.Size),
		Depth:     strings.Count(rec.Path, "/"),
	}
}

// TotalSize returns the sum of all file sizes in the listing.
func (l *Listing) TotalSize() int64 {
	var total int64
	for _, f := range l.Files {
		total += f.Size
	}
	return total
}

// Formatter renders a listing.
type Formatter interface {
	Format(w *bytes.Buffer, l *Listing) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted names of all registered formatters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
