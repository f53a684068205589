package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// LoadModel is shown while the package is decoded.
type LoadModel struct {
	spinner   spinner.Model
	source    string
	startTime time.Time
	width     int
	height    int
}

// NewLoadModel creates the loading view for source.
func NewLoadModel(source string) LoadModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return LoadModel{
		spinner:   s,
		source:    source,
		startTime: time.Now(),
		width:     80,
		height:    24,
	}
}

// View renders the loading screen.
func (m LoadModel) View() string {
	contentWidth := max(m.width-4, 20)

	var b strings.Builder
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s Reading %s", m.spinner.View(),
		truncatePath(filepath.Base(m.source), contentWidth-20))
	b.WriteString("\n\n")
	b.WriteString(m.renderProgressBar(contentWidth))
	b.WriteString("\n\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  Elapsed %s", formatDuration(time.Since(m.startTime)))))
	b.WriteString("\n")

	content := b.String()
	contentLines := strings.Count(content, "\n") + 1
	if availableLines := m.height - 2; availableLines > contentLines {
		content += strings.Repeat("\n", availableLines-contentLines)
	}
	return outerBoxStyle.Width(m.width - 2).Render(content)
}

func (m LoadModel) renderHeader(width int) string {
	title := titleStyle.Render("  unipack")
	hint := mutedTextStyle.Render("[Ctrl+C to stop]")
	spacing := max(width-lipgloss.Width(title)-lipgloss.Width(hint), 1)
	return title + strings.Repeat(" ", spacing) + hint
}

// renderProgressBar draws an indeterminate bar; the member count is not
// known until the archive has been read.
func (m LoadModel) renderProgressBar(width int) string {
	barWidth := max(width-4, 10)

	elapsed := time.Since(m.startTime)
	position := int(elapsed.Seconds()*2) % (barWidth * 2)
	if position > barWidth {
		position = barWidth*2 - position
	}
	pulseWidth := max(barWidth/5, 3)

	var bar strings.Builder
	bar.WriteString("  ")
	for i := range barWidth {
		dist := i - position
		if dist < 0 {
			dist = -dist
		}
		if dist < pulseWidth {
			bar.WriteString(successTextStyle.Render("█"))
		} else {
			bar.WriteString(progressEmptyStyle.Render("░"))
		}
	}
	return bar.String()
}

// renderStatBox renders one labelled value.
func renderStatBox(label, value string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		center(mutedTextStyle.Render(label), width-4),
		center(statsValueStyle.Render(value), width-4))
	return statsBoxStyle.Width(width).Render(content)
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
