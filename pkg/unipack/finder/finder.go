// Package finder locates .unitypackage archives on disk.
package finder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
)

// Extension is the archive suffix searched for, matched case-insensitively.
const Extension = ".unitypackage"

// DefaultExclude skips directories that never hold packages worth listing.
var DefaultExclude = []string{
	"**/.git",
	"**/node_modules",
	"**/Library/PackageCache",
	"**/Temp",
}

// Found is one archive on disk.
type Found struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// WalkError is a path that could not be read. The walk continues past it.
type WalkError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// Result is the outcome of a search.
type Result struct {
	Root        string        `json:"root" yaml:"root"`
	Packages    []Found       `json:"packages" yaml:"packages"`
	DirsScanned int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	Errors      []WalkError   `json:"errors,omitempty" yaml:"errors,omitempty"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Progress is reported while the walk runs.
type Progress struct {
	DirsScanned int64
	Found       int64
	CurrentPath string
}

// Options configures Find.
type Options struct {
	// Exclude holds globs matched against absolute, slash-separated paths.
	Exclude []string

	// Workers bounds walk concurrency. Zero lets fastwalk decide.
	Workers int

	// FollowSymlinks descends into symlinked directories.
	FollowSymlinks bool

	// OnProgress is called at most every ProgressInterval from walk
	// goroutines. It must be safe for concurrent use.
	OnProgress func(Progress)
}

// ProgressInterval throttles OnProgress.
const ProgressInterval = 100 * time.Millisecond

type finder struct {
	opts     Options
	exclude  []glob.Glob
	dirs     atomic.Int64
	found    atomic.Int64
	lastTick atomic.Int64

	mu       sync.Mutex
	packages []Found
	errs     []WalkError
}

// Find walks root and returns every archive beneath it sorted by path.
// Unreadable entries are recorded in Result.Errors; cancellation of ctx
// stops the walk and returns ctx.Err().
func Find(ctx context.Context, root string, opts Options) (*Result, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, errNotDir)
	}

	f := &finder{opts: opts}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, g)
	}

	conf := fastwalk.Config{
		Follow:     opts.FollowSymlinks,
		NumWorkers: opts.Workers,
	}
	walkErr := fastwalk.Walk(&conf, abs, f.visit(ctx))
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("walk %s: %w", abs, walkErr)
	}

	slices.SortFunc(f.packages, func(a, b Found) int {
		return strings.Compare(a.Path, b.Path)
	})
	slices.SortFunc(f.errs, func(a, b WalkError) int {
		return strings.Compare(a.Path, b.Path)
	})

	result := &Result{
		Root:        abs,
		Packages:    f.packages,
		DirsScanned: f.dirs.Load(),
		Errors:      f.errs,
		Elapsed:     time.Since(start),
	}
	logging.Get("finder").Info("search complete",
		"root", abs,
		"packages", len(result.Packages),
		"dirs", result.DirsScanned,
		"errors", len(result.Errors))
	return result, nil
}

var errNotDir = errors.New("not a directory")

func (f *finder) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			f.addError(path, err)
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if f.excluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			f.dirs.Add(1)
			f.tick(path)
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}

		info, err := fastwalk.StatDirEntry(path, d)
		if err != nil {
			f.addError(path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f.mu.Lock()
		f.packages = append(f.packages, Found{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		f.mu.Unlock()
		f.found.Add(1)
		return nil
	}
}

func (f *finder) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, g := range f.exclude {
		if g.Match(slashed) {
			return true
		}
	}
	return false
}

func (f *finder) addError(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, WalkError{Path: path, Error: err.Error()})
}

// tick reports progress when ProgressInterval has elapsed since the last call.
func (f *finder) tick(path string) {
	if f.opts.OnProgress == nil {
		return
	}
	now := time.Now().UnixNano()
	last := f.lastTick.Load()
	if now-last < int64(ProgressInterval) || !f.lastTick.CompareAndSwap(last, now) {
		return
	}
	f.opts.OnProgress(Progress{
		DirsScanned: f.dirs.Load(),
		Found:       f.found.Load(),
		CurrentPath: path,
	})
}
