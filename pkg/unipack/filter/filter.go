package filter

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
)

// Filter selects and orders records. Build one with New.
type Filter struct {
	// Include patterns; when set a record must match at least one.
	Include []string

	// Exclude patterns; a matching record is dropped.
	Exclude []string

	// Extensions allowed, lower case with a leading dot.
	Extensions []string

	// MinSize and MaxSize bound the payload size. Zero disables a bound.
	MinSize int64
	MaxSize int64

	// MaxDepth limits the number of path segments. Zero is unlimited.
	MaxDepth int

	SortBy         SortField
	SortDescending bool

	// Limit caps Apply's result. Zero is unlimited.
	Limit int

	include []glob.Glob
	exclude []glob.Glob
	err     error
}

// Option configures a Filter.
type Option func(*Filter)

// New builds a filter. Patterns are compiled once here; an invalid pattern or
// type group is reported as an error.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{SortBy: SortPath}
	for _, opt := range opts {
		opt(f)
	}
	if f.err != nil {
		return nil, f.err
	}

	var err error
	if f.include, err = compile(f.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compile(f.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

// compile turns patterns into globs split on "/", so "*" stays within one
// segment and "**" crosses segments.
func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// WithInclude adds include patterns.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Include = append(f.Include, patterns...)
	}
}

// WithExclude adds exclude patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Exclude = append(f.Exclude, patterns...)
	}
}

// WithExtensions adds allowed extensions. "CS", "cs" and ".cs" are equivalent.
func WithExtensions(exts ...string) Option {
	return func(f *Filter) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.Extensions = append(f.Extensions, ext)
		}
	}
}

// WithTypeGroups adds the extensions of each named group.
func WithTypeGroups(groups ...string) Option {
	return func(f *Filter) {
		for _, g := range groups {
			exts, ok := TypeGroups[strings.ToLower(g)]
			if !ok {
				f.err = fmt.Errorf("%w: %q", ErrUnknownTypeGroup, g)
				return
			}
			f.Extensions = append(f.Extensions, exts...)
		}
	}
}

// WithSizeRange bounds payload sizes. Zero leaves a bound open.
func WithSizeRange(minSize, maxSize int64) Option {
	return func(f *Filter) {
		f.MinSize = max(minSize, 0)
		f.MaxSize = max(maxSize, 0)
	}
}

// WithMaxDepth limits path depth; "Assets/a.cs" has depth 2.
func WithMaxDepth(depth int) Option {
	return func(f *Filter) {
		f.MaxDepth = max(depth, 0)
	}
}

// WithSort sets the ordering used by Apply.
func WithSort(field SortField, descending bool) Option {
	return func(f *Filter) {
		f.SortBy = field
		f.SortDescending = descending
	}
}

// WithLimit caps the number of results. Negative is treated as zero.
func WithLimit(limit int) Option {
	return func(f *Filter) {
		f.Limit = max(limit, 0)
	}
}

// Empty reports whether the filter lets every record through.
func (f *Filter) Empty() bool {
	return len(f.include) == 0 && len(f.exclude) == 0 && len(f.Extensions) == 0 &&
		f.MinSize == 0 && f.MaxSize == 0 && f.MaxDepth == 0
}

// Match reports whether rec passes every criterion.
func (f *Filter) Match(rec correlate.Record) bool {
	if f.MinSize > 0 && rec.Size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && rec.Size > f.MaxSize {
		return false
	}
	if f.MaxDepth > 0 && strings.Count(rec.Path, "/")+1 > f.MaxDepth {
		return false
	}
	if len(f.Extensions) > 0 && !slices.Contains(f.Extensions, strings.ToLower(path.Ext(rec.Path))) {
		return false
	}
	if matchAny(f.exclude, rec.Path) {
		return false
	}
	if len(f.include) > 0 && !matchAny(f.include, rec.Path) {
		return false
	}
	return true
}

func matchAny(globs []glob.Glob, p string) bool {
	for _, g := range globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy of records. Ties fall back to path order.
func (f *Filter) Sort(records []correlate.Record) []correlate.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b correlate.Record) int {
		var c int
		switch f.SortBy {
		case SortSize:
			c = cmp.Compare(a.Size, b.Size)
		case SortName:
			c = cmp.Compare(path.Base(a.Path), path.Base(b.Path))
		}
		if c == 0 {
			c = cmp.Compare(a.Path, b.Path)
		}
		if f.SortDescending {
			return -c
		}
		return c
	})
	return sorted
}

// Apply matches, sorts and limits records.
func (f *Filter) Apply(records []correlate.Record) []correlate.Record {
	var matched []correlate.Record
	for _, rec := range records {
		if f.Match(rec) {
			matched = append(matched, rec)
		}
	}
	sorted := f.Sort(matched)
	if f.Limit > 0 && len(sorted) > f.Limit {
		sorted = sorted[:f.Limit]
	}
	return sorted
}

// Paths returns the logical paths of the records that match, in input order.
// The extract command turns these into a selection.
func (f *Filter) Paths(records []correlate.Record) []string {
	var out []string
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec.Path)
		}
	}
	return out
}
