package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/unipack/pkg/unipack/selection"
	"github.com/jamesainslie/unipack/pkg/unipack/tree"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
)

// Tree view icons.
const (
	iconExpanded  = "▼"
	iconCollapsed = "▶"

	checkFull  = "[x]"
	checkMixed = "[~]"
	checkNone  = "[ ]"
)

// row is one visible line of the tree.
type row struct {
	node  *tree.Node
	depth int
}

// TreeView shows the package hierarchy with tri-state checkboxes.
// The synthetic root is not drawn; its children are the top rows.
type TreeView struct {
	root     *tree.Node
	expanded map[string]bool
	flat     []row
	cursor   int
	offset   int

	sel  selection.Set
	memo selection.Memo
}

// NewTreeView creates a view over root with the top level expanded.
func NewTreeView(root *tree.Node) *TreeView {
	tv := &TreeView{
		root:     root,
		expanded: make(map[string]bool),
	}
	if root != nil {
		for _, child := range root.Children {
			if child.IsDir() {
				tv.expanded[child.Path] = true
			}
		}
	}
	tv.refresh()
	return tv
}

// refresh rebuilds the visible rows from the expansion state.
func (tv *TreeView) refresh() {
	tv.flat = tv.flat[:0]
	if tv.root != nil {
		for _, child := range tv.root.Children {
			tv.flatten(child, 0)
		}
	}
	tv.clamp()
}

func (tv *TreeView) flatten(n *tree.Node, depth int) {
	tv.flat = append(tv.flat, row{node: n, depth: depth})
	if n.IsDir() && tv.expanded[n.Path] {
		for _, child := range n.Children {
			tv.flatten(child, depth+1)
		}
	}
}

func (tv *TreeView) clamp() {
	if tv.cursor >= len(tv.flat) {
		tv.cursor = len(tv.flat) - 1
	}
	if tv.cursor < 0 {
		tv.cursor = 0
	}
}

// Len returns the number of visible rows.
func (tv *TreeView) Len() int {
	return len(tv.flat)
}

// Cursor returns the index of the highlighted row.
func (tv *TreeView) Cursor() int {
	return tv.cursor
}

// Current returns the highlighted node, or nil for an empty tree.
func (tv *TreeView) Current() *tree.Node {
	if tv.cursor < 0 || tv.cursor >= len(tv.flat) {
		return nil
	}
	return tv.flat[tv.cursor].node
}

// MoveUp moves the cursor up one row.
func (tv *TreeView) MoveUp() {
	if tv.cursor > 0 {
		tv.cursor--
	}
}

// MoveDown moves the cursor down one row.
func (tv *TreeView) MoveDown() {
	if tv.cursor < len(tv.flat)-1 {
		tv.cursor++
	}
}

// PageUp moves the cursor up n rows.
func (tv *TreeView) PageUp(n int) {
	tv.cursor = max(tv.cursor-n, 0)
}

// PageDown moves the cursor down n rows.
func (tv *TreeView) PageDown(n int) {
	tv.cursor = min(tv.cursor+n, max(len(tv.flat)-1, 0))
}

// Home moves the cursor to the first row.
func (tv *TreeView) Home() {
	tv.cursor = 0
	tv.offset = 0
}

// End moves the cursor to the last row.
func (tv *TreeView) End() {
	tv.cursor = max(len(tv.flat)-1, 0)
}

// Expand opens the highlighted directory, or steps into it when it is
// already open.
func (tv *TreeView) Expand() {
	n := tv.Current()
	if n == nil || !n.IsDir() {
		return
	}
	if tv.expanded[n.Path] {
		if len(n.Children) > 0 {
			tv.MoveDown()
		}
		return
	}
	tv.expanded[n.Path] = true
	tv.refresh()
}

// Collapse closes the highlighted directory, or moves to the parent row.
func (tv *TreeView) Collapse() {
	n := tv.Current()
	if n == nil {
		return
	}
	if n.IsDir() && tv.expanded[n.Path] {
		delete(tv.expanded, n.Path)
		tv.refresh()
		return
	}
	depth := tv.flat[tv.cursor].depth
	for i := tv.cursor - 1; i >= 0; i-- {
		if tv.flat[i].depth < depth {
			tv.cursor = i
			return
		}
	}
}

// ToggleExpand flips the highlighted directory open or closed.
func (tv *TreeView) ToggleExpand() {
	n := tv.Current()
	if n == nil || !n.IsDir() {
		return
	}
	if tv.expanded[n.Path] {
		delete(tv.expanded, n.Path)
	} else {
		tv.expanded[n.Path] = true
	}
	tv.refresh()
}

// ToggleSelect flips the highlighted node. A fully selected node becomes
// unselected; a partly or un-selected one becomes fully selected.
func (tv *TreeView) ToggleSelect() {
	n := tv.Current()
	if n == nil {
		return
	}
	st := tv.State(n)
	tv.sel = tv.sel.Toggle(n.Path, !st.Full, n)
}

// SelectAll selects every node.
func (tv *TreeView) SelectAll() {
	if tv.root == nil {
		return
	}
	tv.sel = tv.sel.Toggle(tv.root.Path, true, tv.root)
}

// SelectNone clears the selection.
func (tv *TreeView) SelectNone() {
	tv.sel = selection.FromPaths()
	tv.memo.Reset()
}

// State returns the tri-state status of n.
func (tv *TreeView) State(n *tree.Node) selection.State {
	return tv.memo.Query(tv.sel, n)
}

// Selection returns the current selection.
func (tv *TreeView) Selection() selection.Set {
	return tv.sel
}

// SelectedPaths returns the paths for an extraction request: each fully
// selected directory once, and the selected files of partly selected ones.
// A directory left in the set after one of its files was unticked is not
// returned, so the extraction matches the checkboxes.
func (tv *TreeView) SelectedPaths() []string {
	if tv.root == nil {
		return nil
	}
	var paths []string
	tv.root.Walk(func(n *tree.Node) bool {
		if n.IsRoot() {
			return true
		}
		st := tv.State(n)
		switch {
		case st.None:
			return false
		case st.Full:
			paths = append(paths, n.Path)
			return false
		}
		return true
	})
	return paths
}

// SelectedFiles returns the number and combined size of selected files.
func (tv *TreeView) SelectedFiles() (int, int64) {
	if tv.root == nil {
		return 0, 0
	}
	var count int
	var size int64
	tv.root.Walk(func(n *tree.Node) bool {
		if !n.IsDir() && tv.sel.Has(n.Path) {
			count++
			size += n.Size
		}
		return true
	})
	return count, size
}

// HasSelection reports whether any file is selected.
func (tv *TreeView) HasSelection() bool {
	count, _ := tv.SelectedFiles()
	return count > 0
}

// SetRoot swaps in a rebuilt tree. Selected and expanded paths that still
// exist are kept and the cursor stays on the same path when possible.
func (tv *TreeView) SetRoot(root *tree.Node) {
	var current string
	if n := tv.Current(); n != nil {
		current = n.Path
	}

	exists := make(map[string]bool)
	if root != nil {
		root.Walk(func(n *tree.Node) bool {
			exists[n.Path] = true
			return true
		})
	}

	var kept []string
	for _, p := range tv.sel.Paths() {
		if exists[p] {
			kept = append(kept, p)
		}
	}
	for p := range tv.expanded {
		if !exists[p] {
			delete(tv.expanded, p)
		}
	}

	tv.root = root
	tv.sel = selection.FromPaths(kept...)
	tv.memo.Reset()
	tv.refresh()

	for i, r := range tv.flat {
		if r.node.Path == current {
			tv.cursor = i
			break
		}
	}
}

// View renders at most height rows, each width columns wide.
func (tv *TreeView) View(width, height int) string {
	if len(tv.flat) == 0 {
		return center(mutedTextStyle.Render("Package contains no assets"), width) + "\n"
	}

	visibleRows := max(height, 1)
	tv.ensureVisibleWithHeight(visibleRows)

	var b strings.Builder
	end := min(tv.offset+visibleRows, len(tv.flat))
	for i := tv.offset; i < end; i++ {
		b.WriteString(tv.renderRow(tv.flat[i], width, i == tv.cursor))
		b.WriteString("\n")
	}
	for i := end - tv.offset; i < visibleRows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

// ensureVisibleWithHeight adjusts offset so the cursor is on screen.
func (tv *TreeView) ensureVisibleWithHeight(visible int) {
	if tv.cursor < tv.offset {
		tv.offset = tv.cursor
	} else if tv.cursor >= tv.offset+visible {
		tv.offset = tv.cursor - visible + 1
	}
	if tv.offset < 0 {
		tv.offset = 0
	}
}

// renderRow draws indentation, expander, checkbox, name and a right-aligned
// size.
func (tv *TreeView) renderRow(r row, width int, isCursor bool) string {
	n := r.node
	indent := strings.Repeat("  ", r.depth)

	expander := "  "
	if n.IsDir() {
		if tv.expanded[n.Path] {
			expander = iconExpanded + " "
		} else {
			expander = iconCollapsed + " "
		}
	}

	st := tv.State(n)
	check, checkStyle := checkNone, mutedTextStyle
	switch {
	case st.Full:
		check, checkStyle = checkFull, checkFullStyle
	case st.Mixed():
		check, checkStyle = checkMixed, checkMixedStyle
	}

	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	var sizeStr string
	if n.IsDir() {
		name += "/"
		sizeStr = fmt.Sprintf("(%d files, %s)", n.FileCount(), types.FormatSize(n.TotalSize()))
	} else {
		sizeStr = types.FormatSize(n.Size)
	}

	plain := indent + expander + check + " " + name
	padding := max(width-lipgloss.Width(plain)-lipgloss.Width(sizeStr)-1, 1)

	if isCursor {
		return rowHighlightStyle.Width(width).Render(plain + strings.Repeat(" ", padding) + sizeStr)
	}

	styledName := name
	if n.IsDir() {
		styledName = titleStyle.Render(name)
	}
	line := indent + expander + checkStyle.Render(check) + " " + styledName +
		strings.Repeat(" ", padding) + sizeStyle.Render(sizeStr)
	return rowNormalStyle.Width(width).Render(line)
}
