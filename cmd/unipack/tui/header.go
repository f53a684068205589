package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
)

// headerInfo is what the browse header shows.
type headerInfo struct {
	source        string
	assets        int
	totalSize     int64
	selected      int
	selectedSize  int64
	watching      bool
	reloadPending bool
}

// renderAppHeader renders the title line with package totals and the
// current selection.
func renderAppHeader(h headerInfo) string {
	appName := titleStyle.Render("UNIPACK")
	name := lipgloss.NewStyle().Bold(true).Render(filepath.Base(h.source))

	stats := mutedTextStyle.Render(fmt.Sprintf("  %d assets  •  %s",
		h.assets, types.FormatSize(h.totalSize)))

	header := fmt.Sprintf(" %s  %s%s", appName, name, stats)

	if h.selected > 0 {
		header += successTextStyle.Bold(true).Render(fmt.Sprintf("  ✓ %d selected (%s)",
			h.selected, types.FormatSize(h.selectedSize)))
	}

	switch {
	case h.reloadPending:
		header += warningTextStyle.Render("  ● CHANGED")
	case h.watching:
		header += successTextStyle.Render("  ● WATCHING")
	}

	return header
}

// renderParseMetrics renders member counts and parse time. It returns an
// empty string when there is nothing to show.
func renderParseMetrics(entries, ignored int64, unresolved int, elapsed time.Duration, cached bool) string {
	var parts []string

	if entries > 0 {
		parts = append(parts, fmt.Sprintf("Members: %s", humanize.Comma(entries)))
	}
	if ignored > 0 {
		parts = append(parts, fmt.Sprintf("Ignored: %s", humanize.Comma(ignored)))
	}
	if unresolved > 0 {
		parts = append(parts, warningTextStyle.Render(fmt.Sprintf("Unresolved: %d", unresolved)))
	}
	if cached {
		parts = append(parts, "Index: cached")
	} else if elapsed > 0 {
		parts = append(parts, fmt.Sprintf("Parsed in: %v", elapsed.Round(time.Millisecond)))
	}

	if len(parts) == 0 {
		return ""
	}
	return mutedTextStyle.Render("  " + strings.Join(parts, "  |  "))
}
