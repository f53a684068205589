// Package tui is the interactive package browser: a checkbox tree over the
// package's logical paths with extraction and a live log panel.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#4C9AFF")
	accentColor    = lipgloss.Color("#00D9FF")
	successColor   = lipgloss.Color("#28A745")
	warningColor   = lipgloss.Color("#FFC107")
	dangerColor    = lipgloss.Color("#DC3545")
	mutedColor     = lipgloss.Color("#666666")
	subtleColor    = lipgloss.Color("#444444")
	borderColor    = lipgloss.Color("#333333")
	highlightColor = lipgloss.Color("#1E3050")
	textColor      = lipgloss.Color("#CCCCCC")
	brightColor    = lipgloss.Color("#FFFFFF")
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
	dividerStyle = fg(borderColor)

	titleStyle       = fg(primaryColor).Bold(true)
	mutedTextStyle   = fg(mutedColor)
	errorTextStyle   = fg(dangerColor)
	successTextStyle = fg(successColor)
	warningTextStyle = fg(warningColor)

	// tree rows
	rowHighlightStyle = fg(brightColor).Background(highlightColor).Bold(true)
	rowNormalStyle    = fg(textColor)
	checkFullStyle    = successTextStyle.Bold(true)
	checkMixedStyle   = warningTextStyle.Bold(true)
	sizeStyle         = fg(accentColor)

	progressEmptyStyle = fg(subtleColor)

	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(borderColor).
			Padding(0, 2)
	statsValueStyle = fg(brightColor).Bold(true)

	keyStyle     = titleStyle
	keyDescStyle = mutedTextStyle

	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			Width(56)
	dialogTitleStyle    = titleStyle.Align(lipgloss.Center)
	dialogTextStyle     = fg(brightColor).Align(lipgloss.Center)
	activeButtonStyle   = fg(brightColor).Background(successColor).Bold(true).Padding(0, 2).Margin(0, 1)
	inactiveButtonStyle = fg(textColor).Background(subtleColor).Padding(0, 2).Margin(0, 1)
)

// keyHint is one entry of a help bar.
type keyHint struct {
	key  string
	desc string
}

// renderHints joins key hints into one line.
func renderHints(hints []keyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render("["+h.key+"]")+" "+keyDescStyle.Render(h.desc))
	}
	return "  " + strings.Join(parts, "  ")
}

func renderDivider(width int) string {
	return dividerStyle.Render(strings.Repeat("─", max(width, 0)))
}

// truncatePath keeps the tail of path within limit columns, marking the cut
// with "...".
func truncatePath(path string, limit int) string {
	switch {
	case len(path) <= limit:
		return path
	case limit <= 3:
		return path[:max(limit, 0)]
	}
	return "..." + path[len(path)-limit+3:]
}

// center pads s on both sides to width, extra space going right.
func center(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
}
