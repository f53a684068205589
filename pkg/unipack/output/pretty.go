package output

import (
	"bytes"
	"fmt"
	"strings"

	ltree "github.com/charmbracelet/lipgloss/tree"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/unipack/pkg/unipack/tree"
)

// PrettyFormatter renders the package as a styled tree for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, l *Listing) error {
	w.WriteString(f.formatHeader(l))
	w.WriteString("\n")

	w.WriteString(f.formatBody(l))
	w.WriteString("\n")

	w.WriteString(f.formatFooter(l))
	w.WriteString("\n")

	if notes := f.formatWarnings(l); notes != "" {
		w.WriteString(notes)
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(l *Listing) string {
	lines := []string{
		LabelStyle.Render("Package:") + " " + ValueStyle.Render(l.Source),
	}

	info := []string{
		LabelStyle.Render("Members:") + " " + ValueStyle.Render(humanize.Comma(l.Stats.Entries)),
	}
	if l.Stats.Duration > 0 {
		info = append(info, LabelStyle.Render("Parsed in:")+" "+ValueStyle.Render(formatDuration(l.Stats.Duration)))
	}
	if l.Stats.Cached {
		info = append(info, SuccessStyle.Render("cached"))
	}
	lines = append(lines, strings.Join(info, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatBody(l *Listing) string {
	if len(l.Files) == 0 && (l.Tree == nil || len(l.Tree.Children) == 0) {
		return MutedStyle.Render("  Package contains no assets")
	}

	root := l.Tree
	if root == nil {
		paths := make([]string, len(l.Files))
		sizes := make(map[string]int64, len(l.Files))
		for i, file := range l.Files {
			paths[i] = file.Path
			sizes[file.Path] = file.Size
		}
		root = tree.Build(paths, tree.WithSizes(sizes))
	}

	t := ltree.Root(DirStyle.Render(".")).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(EnumeratorStyle)
	for _, child := range root.Children {
		t.Child(renderNode(child))
	}
	return t.String()
}

// renderNode converts one node and its subtree. Files render as plain
// strings so they become leaves.
func renderNode(n *tree.Node) any {
	label := FileStyle.Render(n.Name) + " " + MutedStyle.Render(humanize.IBytes(uint64(max(n.Size, 0))))
	if !n.IsDir() {
		return label
	}

	label = DirStyle.Render(n.Name+"/") + " " + MutedStyle.Render(humanize.IBytes(uint64(max(n.Size, 0))))
	t := ltree.Root(label).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(EnumeratorStyle)
	for _, child := range n.Children {
		t.Child(renderNode(child))
	}
	return t
}

func (f *PrettyFormatter) formatFooter(l *Listing) string {
	parts := []string{
		LabelStyle.Render("Assets:") + " " + ValueStyle.Render(humanize.Comma(int64(len(l.Files)))),
		LabelStyle.Render("Total:") + " " + SizeStyle.Render(humanize.IBytes(uint64(max(l.TotalSize(), 0)))),
	}
	if n := len(l.Unresolved); n > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d unresolved", n)))
	}
	parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(l *Listing) string {
	if len(l.Unresolved) == 0 && len(l.Warnings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, u := range l.Unresolved {
		sb.WriteString(WarningStyle.Render("  " + describeUnresolved(u.GUID, u.Path, u.HasAsset)))
		sb.WriteString("\n")
	}
	for _, warning := range l.Warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// describeUnresolved names the half a GUID is missing.
func describeUnresolved(guid, path string, hasAsset bool) string {
	if hasAsset {
		return guid + ": asset without pathname"
	}
	return fmt.Sprintf("%s: %s has no asset", guid, path)
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d interface{ Seconds() float64 }) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
