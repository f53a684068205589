package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
)

// Log level styles.
var (
	logDebugStyle = lipgloss.NewStyle().Foreground(mutedColor)
	logInfoStyle  = lipgloss.NewStyle().Foreground(accentColor)
	logWarnStyle  = lipgloss.NewStyle().Foreground(warningColor)
	logErrorStyle = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)

	logTimeStyle      = lipgloss.NewStyle().Foreground(subtleColor)
	logComponentStyle = lipgloss.NewStyle().Foreground(primaryColor)
)

// logPanelHeight is the number of terminal rows the open panel takes.
const logPanelHeight = 10

// LogPanel is the state of the log pane under the tree.
type LogPanel struct {
	Open  bool
	Level logging.Level

	// Offset is the first visible entry. Follow pins the view to the newest
	// entries and is cleared by scrolling up.
	Offset int
	Follow bool

	ring *logging.Ring
}

// NewLogPanel returns a closed panel reading from ring. A nil ring shows
// nothing.
func NewLogPanel(ring *logging.Ring) LogPanel {
	return LogPanel{Level: logging.LevelInfo, Follow: true, ring: ring}
}

// Toggle opens or closes the panel.
func (p *LogPanel) Toggle() {
	p.Open = !p.Open
}

// SetLevel changes the filter and returns to the newest entries.
func (p *LogPanel) SetLevel(level logging.Level) {
	p.Level = level
	p.Offset = 0
	p.Follow = true
}

// Entries returns the records passing the filter, oldest first.
func (p *LogPanel) Entries() []logging.Entry {
	if p.ring == nil {
		return nil
	}
	return p.ring.AtLeast(p.Level)
}

// ScrollUp moves one entry towards older records.
func (p *LogPanel) ScrollUp(visibleRows int) {
	total := len(p.Entries())
	if p.Follow {
		p.Offset = max(total-visibleRows, 0)
		p.Follow = false
	}
	if p.Offset > 0 {
		p.Offset--
	}
}

// ScrollDown moves one entry towards newer records and resumes following
// at the bottom.
func (p *LogPanel) ScrollDown(visibleRows int) {
	if p.Follow {
		return
	}
	total := len(p.Entries())
	maxOffset := max(total-visibleRows, 0)
	if p.Offset < maxOffset {
		p.Offset++
	}
	if p.Offset >= maxOffset {
		p.Follow = true
	}
}

// handleKey applies a panel key and reports whether it was consumed.
func (p *LogPanel) handleKey(key string) bool {
	if !p.Open {
		return false
	}
	visible := logPanelHeight - 2
	switch key {
	case "1":
		p.SetLevel(logging.LevelDebug)
	case "2":
		p.SetLevel(logging.LevelInfo)
	case "3":
		p.SetLevel(logging.LevelWarn)
	case "4":
		p.SetLevel(logging.LevelError)
	case "[":
		p.ScrollUp(visible)
	case "]":
		p.ScrollDown(visible)
	case "esc":
		p.Open = false
	default:
		return false
	}
	return true
}

// View renders the panel in height rows, or nothing when closed.
func (p *LogPanel) View(width, height int) string {
	if !p.Open {
		return ""
	}
	entries := p.Entries()
	offset := p.Offset
	if p.Follow {
		offset = len(entries)
	}
	return renderLogViewer(entries, p.Level, offset, width, height)
}

// clampLogScroll ensures the scroll offset stays within valid bounds.
func clampLogScroll(offset, totalEntries, visibleRows int) int {
	if totalEntries <= visibleRows {
		return 0
	}
	return min(max(offset, 0), totalEntries-visibleRows)
}

// visibleLogEntries returns the window of entries starting at offset.
func visibleLogEntries(entries []logging.Entry, offset, limit int) []logging.Entry {
	if offset >= len(entries) {
		return nil
	}
	return entries[offset:min(offset+limit, len(entries))]
}

// logLevelStyle returns the style for a log level.
func logLevelStyle(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelDebug:
		return logDebugStyle
	case logging.LevelWarn:
		return logWarnStyle
	case logging.LevelError:
		return logErrorStyle
	default:
		return logInfoStyle
	}
}

// logLevelChar returns a single character for the log level.
func logLevelChar(level logging.Level) string {
	switch level {
	case logging.LevelDebug:
		return "D"
	case logging.LevelInfo:
		return "I"
	case logging.LevelWarn:
		return "W"
	case logging.LevelError:
		return "E"
	default:
		return "?"
	}
}

// renderLogViewer renders already filtered entries in height rows.
func renderLogViewer(entries []logging.Entry, level logging.Level, offset, width, height int) string {
	if height < 3 {
		return ""
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(primaryColor).
		Render(fmt.Sprintf(" Logs [%s] ", level))
	b.WriteString(title + mutedTextStyle.Render("[1-4] filter  [ and ] scroll  [Esc] close"))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")

	visibleRows := max(height-2, 1)
	offset = clampLogScroll(offset, len(entries), visibleRows)
	visible := visibleLogEntries(entries, offset, visibleRows)

	for _, entry := range visible {
		b.WriteString(renderLogEntry(entry, width))
		b.WriteString("\n")
	}
	for i := len(visible); i < visibleRows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderLogEntry renders "HH:MM:SS [L] component: message".
func renderLogEntry(entry logging.Entry, width int) string {
	comp := entry.Component
	if len(comp) > 10 {
		comp = comp[:10]
	}

	prefixWidth := 8 + 1 + 3 + 1 + len(comp) + 2
	msgWidth := max(width-prefixWidth, 10)

	msg := entry.Message
	if len(entry.Fields) > 0 {
		msg += " " + formatFields(entry.Fields)
	}
	if len(msg) > msgWidth {
		msg = msg[:msgWidth-3] + "..."
	}

	return fmt.Sprintf("%s %s %s: %s",
		logTimeStyle.Render(entry.Time.Format("15:04:05")),
		logLevelStyle(entry.Level).Render("["+logLevelChar(entry.Level)+"]"),
		logComponentStyle.Render(comp),
		msg)
}

// formatFields renders alternating key/value pairs as key=value.
func formatFields(fields []any) string {
	parts := make([]string, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", fields[i], fields[i+1]))
	}
	return strings.Join(parts, " ")
}
