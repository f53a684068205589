// Package unitypkg is the operation boundary for .unitypackage files: parse
// a package into a browsable tree, and extract a selection of it to disk.
package unitypkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/archive"
	"github.com/jamesainslie/unipack/pkg/unipack/cache"
	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/jamesainslie/unipack/pkg/unipack/extract"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/jamesainslie/unipack/pkg/unipack/selection"
	"github.com/jamesainslie/unipack/pkg/unipack/tree"
	"github.com/jamesainslie/unipack/pkg/unipack/tuner"
)

// Validation errors returned by Extract before any I/O.
var (
	ErrEmptySelection = errors.New("no paths selected")
	ErrNoOutputDir    = errors.New("no output directory")
	ErrNoSource       = errors.New("no source package")
)

// ErrDecode reports that the package could not be opened, read or
// decompressed.
var ErrDecode = archive.ErrDecode

// Package is a parsed package ready for browsing.
type Package struct {
	Source     string
	Records    []correlate.Record
	Unresolved []correlate.Unresolved
	Tree       *tree.Node

	// Entries and Ignored count archive members, as in correlate.Result.
	Entries int64
	Ignored int64

	// Cached is set when the records came from the index cache.
	Cached bool

	Duration time.Duration
}

// TotalSize returns the combined asset size.
func (p *Package) TotalSize() int64 {
	var total int64
	for _, rec := range p.Records {
		total += rec.Size
	}
	return total
}

// Option configures Parse.
type Option func(*options)

type options struct {
	cache *cache.Cache
}

// WithCache reads and refreshes the package index in c.
func WithCache(c *cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// Parse reads the package at path and builds its tree. Payloads are counted
// but not kept, so the records carry sizes only.
func Parse(ctx context.Context, path string, opts ...Option) (*Package, error) {
	if path == "" {
		return nil, ErrNoSource
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	log := logging.Get("unitypkg")
	start := time.Now()

	var info os.FileInfo
	if o.cache != nil {
		idx, err := o.cache.Get(path)
		switch {
		case err == nil:
			pkg := newPackage(path, idx.Result())
			pkg.Cached = true
			pkg.Duration = time.Since(start)
			log.Debug("index cache hit", "path", path, "assets", len(pkg.Records))
			return pkg, nil
		case errors.Is(err, cache.ErrNotFound), errors.Is(err, cache.ErrStale):
		default:
			log.Warn("index cache read failed", "path", path, "error", err)
		}
		// stamp the index with what was on disk before the read
		if fi, err := os.Stat(path); err == nil {
			info = fi
		}
	}

	result, err := correlateFile(ctx, path, correlate.WithoutPayloads())
	if err != nil {
		return nil, err
	}

	if o.cache != nil && info != nil {
		if err := o.cache.Put(path, info, result); err != nil {
			log.Warn("index cache write failed", "path", path, "error", err)
		}
	}

	pkg := newPackage(path, result)
	pkg.Duration = time.Since(start)
	log.Info("package parsed",
		"path", path,
		"assets", len(pkg.Records),
		"unresolved", len(pkg.Unresolved),
		"elapsed", pkg.Duration)
	return pkg, nil
}

func newPackage(path string, result *correlate.Result) *Package {
	return &Package{
		Source:     path,
		Records:    result.Records,
		Unresolved: result.Unresolved,
		Tree:       tree.FromRecords(result.Records),
		Entries:    result.Entries,
		Ignored:    result.Ignored,
	}
}

// correlateFile runs one pass over the package file. Open failures are
// reported as decode failures so callers see one error kind for an
// unreadable source.
func correlateFile(ctx context.Context, path string, opts ...correlate.Option) (*correlate.Result, error) {
	f, err := archive.Open(path)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	return correlate.Correlate(ctx, f, opts...)
}

// ExtractRequest describes one extraction.
type ExtractRequest struct {
	// Source is the package path.
	Source string

	// Paths are logical paths from the tree. A directory path selects
	// everything beneath it.
	Paths []string

	OutputDir string

	// Workers caps concurrent writes. Zero sizes the pool from the machine.
	Workers int

	// WithMeta also writes each asset's .meta file.
	WithMeta bool

	DryRun bool

	// Progress is called after each file is written.
	Progress func(extract.WrittenFile)
}

// Validate checks the request without touching disk.
func (r ExtractRequest) Validate() error {
	switch {
	case len(r.Paths) == 0:
		return ErrEmptySelection
	case r.OutputDir == "":
		return ErrNoOutputDir
	case r.Source == "":
		return ErrNoSource
	}
	return nil
}

// Extract re-reads the package with payloads and writes the selected assets
// beneath the output directory. On partial failure it returns both the
// report and a *extract.WriteError.
func Extract(ctx context.Context, req ExtractRequest) (*extract.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logging.Get("unitypkg")
	tuned := tune(req.Workers)

	result, err := correlateFile(ctx, req.Source, correlate.WithMeta(req.WithMeta))
	if err != nil {
		return nil, err
	}

	var held int64
	for _, rec := range result.Records {
		held += rec.Size
	}
	if tuned.PayloadBudget > 0 && held > tuned.PayloadBudget {
		log.Warn("package payloads exceed memory budget",
			"path", req.Source,
			"payload_bytes", held,
			"budget_bytes", tuned.PayloadBudget)
	}

	sel := selection.FromPaths(req.Paths...)
	items := extract.Plan(result.Records, sel)
	log.Debug("extraction planned",
		"path", req.Source,
		"selected", sel.Len(),
		"items", len(items),
		"workers", tuned.Workers)

	opts := []extract.Option{
		extract.WithWorkers(tuned.Workers),
		extract.WithDryRun(req.DryRun),
	}
	if req.Progress != nil {
		opts = append(opts, extract.WithProgress(req.Progress))
	}
	return extract.Materialize(ctx, items, req.OutputDir, opts...)
}

// tune sizes the worker pool and payload budget for this machine.
func tune(workers int) tuner.Config {
	resources, err := tuner.Detect()
	if err != nil {
		logging.Get("unitypkg").Debug("resource detection failed", "error", err)
		return tuner.Config{Workers: max(workers, 0)}
	}
	return tuner.CalculateWithOverrides(resources, workers)
}
