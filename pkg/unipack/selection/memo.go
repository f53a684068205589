package selection

import "github.com/jamesainslie/unipack/pkg/unipack/tree"

// Memo caches Query results for one set version.
// It resets itself whenever it is consulted with a different version.
type Memo struct {
	version uint64
	valid   bool
	states  map[*tree.Node]State
}

// Query returns the state of node under s, computing it at most once per
// set version.
func (m *Memo) Query(s Set, node *tree.Node) State {
	if !m.valid || m.version != s.Version() {
		m.version = s.Version()
		m.valid = true
		m.states = make(map[*tree.Node]State)
	}
	if st, ok := m.states[node]; ok {
		return st
	}
	st := s.Query(node)
	m.states[node] = st
	return st
}

// Reset drops every cached state. Call it after the tree is rebuilt.
func (m *Memo) Reset() {
	m.valid = false
	m.states = nil
}
