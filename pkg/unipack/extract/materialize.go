package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/jamesainslie/unipack/pkg/unipack/tuner"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// File and directory permissions for extracted output.
const (
	dirMode  = 0o755
	fileMode = 0o644
)

// MetaSuffix is appended to an asset path to name its meta file.
const MetaSuffix = ".meta"

// WrittenFile describes one file placed on disk.
type WrittenFile struct {
	// Path is the logical path.
	Path string `json:"path" yaml:"path"`

	// Target is the absolute file system path.
	Target string `json:"target" yaml:"target"`

	Size int64 `json:"size" yaml:"size"`

	// Digest is the sha256 of the payload. It is recorded, never verified.
	Digest digest.Digest `json:"digest" yaml:"digest"`
}

// Report summarizes a materialization.
type Report struct {
	OutputDir string        `json:"output_dir" yaml:"output_dir"`
	Written   []WrittenFile `json:"written" yaml:"written"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	DryRun    bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Option configures Materialize.
type Option func(*options)

type options struct {
	workers  int
	dryRun   bool
	progress func(WrittenFile)
}

// WithWorkers bounds the number of concurrent writes. Zero or negative picks
// a value from the host.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDryRun reports what would be written without touching the disk.
func WithDryRun(enabled bool) Option {
	return func(o *options) {
		o.dryRun = enabled
	}
}

// WithProgress registers a callback invoked after each successful write.
// It may be called from several goroutines at once.
func WithProgress(fn func(WrittenFile)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Materialize writes every item beneath outputRoot, mirroring its logical
// path. Missing directories are created and existing files are overwritten.
//
// Writes run concurrently and every one is attempted. If any fail, the
// returned error is a *WriteError listing all of them; files that were
// written stay on disk. The report is returned in both cases.
func Materialize(ctx context.Context, items []Item, outputRoot string, opts ...Option) (*Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = tuner.DefaultWorkers()
	}

	log := logging.Get("extract")

	absRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	report := &Report{OutputDir: absRoot, DryRun: o.dryRun}
	if len(items) == 0 {
		return report, nil
	}

	var root *os.Root
	if !o.dryRun {
		if err := os.MkdirAll(absRoot, dirMode); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		root, err = os.OpenRoot(absRoot)
		if err != nil {
			return nil, fmt.Errorf("open output directory: %w", err)
		}
		defer root.Close()
	}

	var (
		mu       sync.Mutex
		failures []Failure
	)
	record := func(w WrittenFile, f *Failure) {
		mu.Lock()
		defer mu.Unlock()
		if f != nil {
			failures = append(failures, *f)
			return
		}
		report.Written = append(report.Written, w)
		report.Bytes += w.Size
	}

	g := new(errgroup.Group)
	g.SetLimit(o.workers)

	for _, item := range items {
		g.Go(func() error {
			w, err := writeItem(ctx, root, absRoot, item)
			if err != nil {
				log.Debug("write failed", "path", item.Path, "error", err)
				record(w, &Failure{Path: item.Path, Target: w.Target, Err: err})
				return nil
			}
			record(w, nil)
			if o.progress != nil {
				o.progress(w)
			}
			return nil
		})
	}
	// tasks never return errors; failures are collected above
	_ = g.Wait()

	slices.SortFunc(report.Written, func(a, b WrittenFile) int {
		return strings.Compare(a.Path, b.Path)
	})

	log.Info("extraction finished",
		"output", absRoot,
		"written", len(report.Written),
		"failed", len(failures),
		"bytes", report.Bytes,
		"dry_run", o.dryRun)

	if len(failures) > 0 {
		slices.SortFunc(failures, func(a, b Failure) int {
			return strings.Compare(a.Path, b.Path)
		})
		return report, &WriteError{Failures: failures}
	}
	return report, nil
}

// writeItem places one item under root. A nil root means dry run.
func writeItem(ctx context.Context, root *os.Root, absRoot string, item Item) (WrittenFile, error) {
	w := WrittenFile{
		Path:   item.Path,
		Size:   int64(len(item.Payload)),
		Digest: digest.FromBytes(item.Payload),
	}

	rel := filepath.FromSlash(item.Path)
	if !filepath.IsLocal(rel) {
		return w, fmt.Errorf("%w: %q", ErrUnsafePath, item.Path)
	}
	rel = filepath.Clean(rel)
	w.Target = filepath.Join(absRoot, rel)

	if err := ctx.Err(); err != nil {
		return w, err
	}
	if root == nil {
		return w, nil
	}

	if dir := filepath.Dir(rel); dir != "." {
		if err := root.MkdirAll(dir, dirMode); err != nil {
			return w, fmt.Errorf("create directory: %w", err)
		}
	}
	if err := root.WriteFile(rel, item.Payload, fileMode); err != nil {
		return w, fmt.Errorf("write file: %w", err)
	}
	if item.Meta != nil {
		if err := root.WriteFile(rel+MetaSuffix, item.Meta, fileMode); err != nil {
			return w, fmt.Errorf("write meta: %w", err)
		}
	}
	return w, nil
}
