package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/logging"
)

func testRing(n int) *logging.Ring {
	r := logging.NewRing(100)
	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	levels := []logging.Level{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError}
	for i := range n {
		r.Add(logging.Entry{
			Time:      base.Add(time.Duration(i) * time.Second),
			Level:     levels[i%len(levels)],
			Component: "archive",
			Message:   "entry",
		})
	}
	return r
}

func TestLogScrollBounds(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		total   int
		visible int
		want    int
	}{
		{"fits on screen", 5, 3, 10, 0},
		{"negative offset", -2, 20, 5, 0},
		{"within range", 4, 20, 5, 4},
		{"past end", 30, 20, 5, 15},
		{"exact end", 15, 20, 5, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLogScroll(tt.offset, tt.total, tt.visible); got != tt.want {
				t.Errorf("clampLogScroll(%d, %d, %d) = %d, want %d", tt.offset, tt.total, tt.visible, got, tt.want)
			}
		})
	}
}

func TestLogViewerVisibleEntries(t *testing.T) {
	entries := testRing(10).Entries()

	got := visibleLogEntries(entries, 2, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if !got[0].Time.Equal(entries[2].Time) {
		t.Errorf("expected window to start at entry 2")
	}

	if got := visibleLogEntries(entries, 8, 5); len(got) != 2 {
		t.Errorf("expected 2 entries at the tail, got %d", len(got))
	}
	if got := visibleLogEntries(entries, 10, 5); got != nil {
		t.Errorf("expected nil past the end, got %d entries", len(got))
	}
}

func TestLogLevelChar(t *testing.T) {
	tests := map[logging.Level]string{
		logging.LevelDebug: "D",
		logging.LevelInfo:  "I",
		logging.LevelWarn:  "W",
		logging.LevelError: "E",
	}
	for level, want := range tests {
		if got := logLevelChar(level); got != want {
			t.Errorf("logLevelChar(%v) = %q, want %q", level, got, want)
		}
	}
}

func TestFormatFields(t *testing.T) {
	if got := formatFields([]any{"path", "Assets/a.cs", "size", 10}); got != "path=Assets/a.cs size=10" {
		t.Errorf("unexpected fields: %q", got)
	}
	// A dangling key is dropped.
	if got := formatFields([]any{"orphan"}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestLogPanelFilter(t *testing.T) {
	p := NewLogPanel(testRing(8))

	if got := len(p.Entries()); got != 6 {
		t.Errorf("expected 6 entries at info, got %d", got)
	}
	p.SetLevel(logging.LevelError)
	if got := len(p.Entries()); got != 2 {
		t.Errorf("expected 2 entries at error, got %d", got)
	}
	p.SetLevel(logging.LevelDebug)
	if got := len(p.Entries()); got != 8 {
		t.Errorf("expected 8 entries at debug, got %d", got)
	}
}

func TestLogPanelNilRing(t *testing.T) {
	p := NewLogPanel(nil)
	p.Toggle()

	if p.Entries() != nil {
		t.Error("expected no entries without a ring")
	}
	p.ScrollUp(5)
	p.ScrollDown(5)
	if !strings.Contains(p.View(60, 6), "Logs") {
		t.Error("expected panel title")
	}
}

func TestLogPanelScroll(t *testing.T) {
	p := NewLogPanel(testRing(20))
	p.SetLevel(logging.LevelDebug)

	p.ScrollUp(5)
	if p.Follow {
		t.Error("expected scrolling up to stop following")
	}
	if p.Offset != 14 {
		t.Errorf("expected offset 14, got %d", p.Offset)
	}

	p.ScrollDown(5)
	if !p.Follow {
		t.Error("expected scrolling to the bottom to resume following")
	}
	if p.Offset != 15 {
		t.Errorf("expected offset 15, got %d", p.Offset)
	}
}

func TestLogPanelHandleKey(t *testing.T) {
	p := NewLogPanel(testRing(4))

	if p.handleKey("3") {
		t.Error("expected closed panel to ignore keys")
	}

	p.Toggle()
	if !p.handleKey("3") || p.Level != logging.LevelWarn {
		t.Errorf("expected level warn, got %v", p.Level)
	}
	if p.handleKey("x") {
		t.Error("expected unrelated key to pass through")
	}
	if !p.handleKey("esc") || p.Open {
		t.Error("expected esc to close the panel")
	}
}

func TestLogPanelView(t *testing.T) {
	p := NewLogPanel(testRing(4))

	if p.View(80, logPanelHeight) != "" {
		t.Error("expected closed panel to render nothing")
	}

	p.Toggle()
	view := p.View(80, logPanelHeight)
	if !strings.Contains(view, "[W]") || !strings.Contains(view, "archive") {
		t.Errorf("expected rendered entries, got:\n%s", view)
	}
	if strings.Contains(view, "[D]") {
		t.Error("expected debug entries hidden at info level")
	}
}
