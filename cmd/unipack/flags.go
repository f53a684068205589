package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/filter"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/spf13/pflag"
)

// filterFlags holds the asset filter flags of one command. list and extract
// each own an instance so their flags do not share viper keys.
type filterFlags struct {
	include    string
	exclude    string
	extensions string
	fileTypes  string
	minSize    string
	maxSize    string
	maxDepth   int

	// Ordering flags, registered only by commands that print.
	sortBy  string
	reverse bool
	limit   int
}

// register adds the matching flags to fs. withOrder also adds --sort,
// --reverse and --limit.
func (f *filterFlags) register(fs *pflag.FlagSet, withOrder bool) {
	fs.StringVar(&f.include, "include", "", "only assets matching these globs (comma-separated)")
	fs.StringVar(&f.exclude, "exclude", "", "skip assets matching these globs (comma-separated)")
	fs.StringVar(&f.extensions, "ext", "", "only these extensions (e.g. cs,shader)")
	fs.StringVar(&f.fileTypes, "type", "", "only these type groups (e.g. scripts,textures)")
	fs.StringVar(&f.minSize, "min-size", "", "minimum asset size (e.g. 10K)")
	fs.StringVar(&f.maxSize, "max-size", "", "maximum asset size (e.g. 5M)")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "maximum path depth (0=unlimited)")

	if withOrder {
		fs.StringVar(&f.sortBy, "sort", "path", "sort by path, size or name")
		fs.BoolVarP(&f.reverse, "reverse", "r", false, "reverse the sort order")
		fs.IntVarP(&f.limit, "limit", "l", 0, "maximum number of assets (0=unlimited)")
	}
}

// build creates a filter.Filter from the parsed flags.
func (f *filterFlags) build() (*filter.Filter, error) {
	var opts []filter.Option

	if patterns := parseCommaSeparated(f.include); len(patterns) > 0 {
		opts = append(opts, filter.WithInclude(patterns...))
	}
	if patterns := parseCommaSeparated(f.exclude); len(patterns) > 0 {
		opts = append(opts, filter.WithExclude(patterns...))
	}
	if exts := parseCommaSeparated(f.extensions); len(exts) > 0 {
		opts = append(opts, filter.WithExtensions(exts...))
	}
	if groups := parseCommaSeparated(f.fileTypes); len(groups) > 0 {
		opts = append(opts, filter.WithTypeGroups(groups...))
	}

	var minSize, maxSize int64
	var err error
	if f.minSize != "" {
		if minSize, err = types.ParseSize(f.minSize); err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", f.minSize, err)
		}
	}
	if f.maxSize != "" {
		if maxSize, err = types.ParseSize(f.maxSize); err != nil {
			return nil, fmt.Errorf("invalid max-size %q: %w", f.maxSize, err)
		}
	}
	if minSize > 0 || maxSize > 0 {
		opts = append(opts, filter.WithSizeRange(minSize, maxSize))
	}
	if f.maxDepth > 0 {
		opts = append(opts, filter.WithMaxDepth(f.maxDepth))
	}

	sortBy := f.sortBy
	if sortBy == "" {
		sortBy = "path"
	}
	field, err := filter.ParseSortField(sortBy)
	if err != nil {
		return nil, fmt.Errorf("invalid sort field %q: %w", sortBy, err)
	}
	// size reads best largest first; path and name read best A-Z
	descending := f.reverse
	if field == filter.SortSize {
		descending = !f.reverse
	}
	opts = append(opts, filter.WithSort(field, descending))

	if f.limit > 0 {
		opts = append(opts, filter.WithLimit(f.limit))
	}

	return filter.New(opts...)
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
