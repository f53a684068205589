package tree

import (
	"slices"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultSeparator splits logical paths into segments.
const DefaultSeparator = "/"

// Option configures Build.
type Option func(*builder)

// WithSeparator overrides the path separator.
func WithSeparator(sep string) Option {
	return func(b *builder) {
		if sep != "" {
			b.sep = sep
		}
	}
}

// WithSizes attaches asset sizes to file nodes, keyed by logical path.
// Directory sizes are the sum of their descendants.
func WithSizes(sizes map[string]int64) Option {
	return func(b *builder) {
		b.sizes = sizes
	}
}

type builder struct {
	sep      string
	sizes    map[string]int64
	collator *collate.Collator
}

// Build constructs a tree from logical paths.
//
// The last segment of each path becomes a File, every earlier segment a
// Directory. Siblings are matched by name and kind, so a file and a directory
// may share a name. Each level is kept sorted: directories first, then names
// in locale-aware order. The result does not depend on input order, and
// duplicate paths collapse into one node.
func Build(paths []string, opts ...Option) *Node {
	b := &builder{
		sep:      DefaultSeparator,
		collator: collate.New(language.Und),
	}
	for _, opt := range opts {
		opt(b)
	}

	root := &Node{Kind: Directory}
	for _, p := range paths {
		b.insert(root, p)
	}

	if b.sizes != nil {
		aggregateSizes(root)
	}
	return root
}

// FromRecords builds a tree from resolved records, carrying their sizes.
func FromRecords(records []correlate.Record, opts ...Option) *Node {
	paths := make([]string, len(records))
	sizes := make(map[string]int64, len(records))
	for i, rec := range records {
		paths[i] = rec.Path
		sizes[rec.Path] = rec.Size
	}
	return Build(paths, append([]Option{WithSizes(sizes)}, opts...)...)
}

// insert walks or extends the tree along one path.
func (b *builder) insert(root *Node, fullPath string) {
	parts := strings.Split(fullPath, b.sep)
	current := root

	for i, part := range parts {
		kind := Directory
		if i == len(parts)-1 {
			kind = File
		}

		child := findChild(current, part, kind)
		if child == nil {
			child = &Node{
				Name: part,
				Path: strings.Join(parts[:i+1], b.sep),
				Kind: kind,
			}
			if kind == File && b.sizes != nil {
				child.Size = b.sizes[fullPath]
			}
			current.Children = append(current.Children, child)
			b.sortChildren(current)
		}
		current = child
	}
}

// findChild returns the child with the given name and kind.
func findChild(parent *Node, name string, kind Kind) *Node {
	for _, child := range parent.Children {
		if child.Name == name && child.Kind == kind {
			return child
		}
	}
	return nil
}

// sortChildren orders one level: directories before files, then by name.
func (b *builder) sortChildren(n *Node) {
	slices.SortStableFunc(n.Children, func(x, y *Node) int {
		return b.compare(x, y)
	})
}

// compare orders two siblings.
func (b *builder) compare(x, y *Node) int {
	if x.Kind != y.Kind {
		if x.Kind == Directory {
			return -1
		}
		return 1
	}
	if c := b.collator.CompareString(x.Name, y.Name); c != 0 {
		return c
	}
	// collation may treat distinct names as equal; keep output deterministic
	return strings.Compare(x.Name, y.Name)
}

// aggregateSizes sums file sizes up the tree.
func aggregateSizes(n *Node) int64 {
	if !n.IsDir() {
		return n.Size
	}
	var total int64
	for _, child := range n.Children {
		total += aggregateSizes(child)
	}
	n.Size = total
	return total
}
