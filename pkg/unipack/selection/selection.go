// Package selection tracks which logical paths the user has chosen and derives
// the tri-state status of tree nodes from that choice.
package selection

import (
	"slices"

	"github.com/jamesainslie/unipack/pkg/unipack/tree"
)

// Set is an immutable set of selected logical paths.
// The zero value is an empty set ready for use.
type Set struct {
	paths   map[string]struct{}
	version uint64
}

// FromPaths returns a set holding exactly the given paths.
func FromPaths(paths ...string) Set {
	s := Set{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

// Has reports whether path is explicitly selected.
func (s Set) Has(path string) bool {
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of selected paths.
func (s Set) Len() int {
	return len(s.paths)
}

// Paths returns the selected paths in sorted order.
func (s Set) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Version increases by one with every toggle in the set's lineage.
func (s Set) Version() uint64 {
	return s.version
}

// Toggle returns a new set with path added or removed. When node is a
// directory every descendant path is changed the same way. The receiver is
// left untouched, so callers never observe a half-applied cascade.
//
// node should be the node at path; a nil node changes path alone.
func (s Set) Toggle(path string, selected bool, node *tree.Node) Set {
	next := Set{
		paths:   make(map[string]struct{}, len(s.paths)),
		version: s.version + 1,
	}
	for p := range s.paths {
		next.paths[p] = struct{}{}
	}

	affected := []string{path}
	if node != nil && node.IsDir() {
		affected = append(affected, node.Descendants()...)
	}

	for _, p := range affected {
		if selected {
			next.paths[p] = struct{}{}
		} else {
			delete(next.paths, p)
		}
	}
	return next
}

// State is the derived selection status of a node.
// A node that is neither Full nor None is mixed.
type State struct {
	Full bool
	None bool
}

// Mixed reports whether the node is partly selected.
func (st State) Mixed() bool {
	return !st.Full && !st.None
}

// Query derives the state of node from the set.
//
// A file is Full when selected and None otherwise. A directory is Full when
// its own path and every child are Full, and None when its own path is
// unselected and every child is None.
func (s Set) Query(node *tree.Node) State {
	own := s.Has(node.Path)
	if !node.IsDir() {
		return State{Full: own, None: !own}
	}

	st := State{Full: own, None: !own}
	for _, child := range node.Children {
		if !st.Full && !st.None {
			break
		}
		cs := s.Query(child)
		st.Full = st.Full && cs.Full
		st.None = st.None && cs.None
	}
	return st
}
