package selection_test

import (
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/selection"
	"github.com/jamesainslie/unipack/pkg/unipack/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *tree.Node {
	return tree.Build([]string{
		"Assets/Scripts/Foo.cs",
		"Assets/Scripts/Editor/Tool.cs",
		"Assets/Textures/Bar.png",
		"readme.txt",
	})
}

func TestSetBasics(t *testing.T) {
	var empty selection.Set
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Has("x"))
	assert.Empty(t, empty.Paths())
	assert.Equal(t, uint64(0), empty.Version())

	s := selection.FromPaths("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Paths())
}

func TestToggle(t *testing.T) {
	root := sampleTree()
	scripts := root.Find("Assets/Scripts")
	require.NotNil(t, scripts)

	t.Run("directory cascades to every descendant", func(t *testing.T) {
		s := selection.Set{}.Toggle(scripts.Path, true, scripts)

		assert.Equal(t, []string{
			"Assets/Scripts",
			"Assets/Scripts/Editor",
			"Assets/Scripts/Editor/Tool.cs",
			"Assets/Scripts/Foo.cs",
		}, s.Paths())
	})

	t.Run("receiver is unchanged", func(t *testing.T) {
		before := selection.FromPaths("readme.txt")
		after := before.Toggle(scripts.Path, true, scripts)

		assert.Equal(t, 1, before.Len())
		assert.Equal(t, 5, after.Len())
		assert.Equal(t, before.Version()+1, after.Version())
	})

	t.Run("deselect removes the subtree only", func(t *testing.T) {
		s := selection.Set{}.Toggle("", true, root)
		s = s.Toggle(scripts.Path, false, scripts)

		assert.False(t, s.Has("Assets/Scripts/Foo.cs"))
		assert.True(t, s.Has("Assets/Textures/Bar.png"))
		assert.True(t, s.Has("readme.txt"))
	})

	t.Run("file toggles only itself", func(t *testing.T) {
		s := selection.Set{}.Toggle("readme.txt", true, root.Find("readme.txt"))

		assert.Equal(t, []string{"readme.txt"}, s.Paths())
	})

	t.Run("nil node toggles the path alone", func(t *testing.T) {
		s := selection.Set{}.Toggle("Assets", true, nil)

		assert.Equal(t, []string{"Assets"}, s.Paths())
	})
}

func TestQuery(t *testing.T) {
	root := sampleTree()
	assets := root.Find("Assets")
	scripts := root.Find("Assets/Scripts")
	foo := root.Find("Assets/Scripts/Foo.cs")

	tests := []struct {
		name string
		set  selection.Set
		node *tree.Node
		want selection.State
	}{
		{
			name: "unselected file",
			set:  selection.Set{},
			node: foo,
			want: selection.State{None: true},
		},
		{
			name: "selected file",
			set:  selection.FromPaths(foo.Path),
			node: foo,
			want: selection.State{Full: true},
		},
		{
			name: "directory with one selected file is mixed",
			set:  selection.FromPaths(foo.Path),
			node: scripts,
			want: selection.State{},
		},
		{
			name: "every descendant but not the directory itself is mixed",
			set: selection.FromPaths(
				"Assets/Scripts/Editor",
				"Assets/Scripts/Editor/Tool.cs",
				"Assets/Scripts/Foo.cs",
			),
			node: scripts,
			want: selection.State{},
		},
		{
			name: "directory alone without children is mixed",
			set:  selection.FromPaths("Assets/Scripts"),
			node: scripts,
			want: selection.State{},
		},
		{
			name: "empty directory uses its own membership",
			set:  selection.FromPaths("empty"),
			node: &tree.Node{Name: "empty", Path: "empty", Kind: tree.Directory},
			want: selection.State{Full: true},
		},
		{
			name: "untouched directory is none",
			set:  selection.FromPaths("readme.txt"),
			node: assets,
			want: selection.State{None: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Query(tt.node)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.want.Full && !tt.want.None, got.Mixed())
		})
	}
}

func TestToggleQueryRoundTrip(t *testing.T) {
	root := sampleTree()
	assets := root.Find("Assets")

	s := selection.Set{}.Toggle(assets.Path, true, assets)
	assets.Walk(func(n *tree.Node) bool {
		assert.True(t, s.Query(n).Full, n.Path)
		return true
	})
	assert.True(t, s.Query(root).Mixed())

	s = s.Toggle(assets.Path, false, assets)
	assets.Walk(func(n *tree.Node) bool {
		assert.True(t, s.Query(n).None, n.Path)
		return true
	})
	assert.True(t, s.Query(root).None)
}

func TestFullIffSubtreeSelected(t *testing.T) {
	root := sampleTree()

	// Every subset of the tree's paths must agree with the closed-form rule.
	var all []string
	root.Walk(func(n *tree.Node) bool {
		all = append(all, n.Path)
		return true
	})
	require.Less(t, len(all), 16)

	for mask := 0; mask < 1<<len(all); mask++ {
		var picked []string
		for i, p := range all {
			if mask&(1<<i) != 0 {
				picked = append(picked, p)
			}
		}
		s := selection.FromPaths(picked...)

		root.Walk(func(n *tree.Node) bool {
			if !n.IsDir() {
				return true
			}
			want := s.Has(n.Path)
			for _, d := range n.Descendants() {
				want = want && s.Has(d)
			}
			assert.Equal(t, want, s.Query(n).Full, "mask %b node %q", mask, n.Path)
			return true
		})
	}
}

func TestMemo(t *testing.T) {
	root := sampleTree()
	scripts := root.Find("Assets/Scripts")

	var memo selection.Memo
	s := selection.Set{}
	assert.True(t, memo.Query(s, scripts).None)

	s = s.Toggle(scripts.Path, true, scripts)
	assert.True(t, memo.Query(s, scripts).Full)

	memo.Reset()
	assert.True(t, memo.Query(s, scripts).Full)
}
