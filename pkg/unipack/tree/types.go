// Package tree provides the logical file hierarchy of a package.
package tree

// Kind distinguishes files from directories.
type Kind int

const (
	// File is a leaf holding one asset.
	File Kind = iota
	// Directory groups other nodes.
	Directory
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Node represents a directory or file in the tree.
// Only Directory nodes have children.
type Node struct {
	// Name is the last path segment. Empty for the synthetic root.
	Name string `json:"name" yaml:"name"`

	// Path is the fully qualified logical path. Empty for the root.
	Path string `json:"path" yaml:"path"`

	Kind Kind `json:"-" yaml:"-"`

	// Size is the asset size for files and the sum of descendants for directories.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`

	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == Directory
}

// IsRoot reports whether the node is the synthetic root.
func (n *Node) IsRoot() bool {
	return n.Kind == Directory && n.Path == "" && n.Name == ""
}

// Walk calls fn for n and every descendant in display order.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Descendants returns the paths of every node below n.
func (n *Node) Descendants() []string {
	var paths []string
	for _, child := range n.Children {
		child.Walk(func(d *Node) bool {
			paths = append(paths, d.Path)
			return true
		})
	}
	return paths
}

// Files returns the paths of every file at or below n.
func (n *Node) Files() []string {
	var paths []string
	n.Walk(func(d *Node) bool {
		if !d.IsDir() {
			paths = append(paths, d.Path)
		}
		return true
	})
	return paths
}

// FileCount returns the number of files at or below n.
func (n *Node) FileCount() int {
	if !n.IsDir() {
		return 1
	}
	count := 0
	for _, child := range n.Children {
		count += child.FileCount()
	}
	return count
}

// Find returns the node at path, preferring a directory when a file and a
// directory share the path. The empty path returns n itself.
func (n *Node) Find(path string) *Node {
	if path == n.Path {
		return n
	}

	var found *Node
	n.Walk(func(d *Node) bool {
		if d.Path == path && (found == nil || d.IsDir()) {
			found = d
		}
		return found == nil || !found.IsDir()
	})
	return found
}

// TotalSize returns the combined size of every file at or below n.
func (n *Node) TotalSize() int64 {
	if !n.IsDir() {
		return n.Size
	}
	var total int64
	for _, child := range n.Children {
		total += child.TotalSize()
	}
	return total
}
