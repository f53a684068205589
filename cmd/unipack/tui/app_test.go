package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/unipack/internal/testutil"
	"github.com/jamesainslie/unipack/pkg/unipack/extract"
	"github.com/jamesainslie/unipack/pkg/unipack/manifest"
	"github.com/jamesainslie/unipack/pkg/unipack/watcher"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

// writeTestPackage writes a small package and returns its path.
func writeTestPackage(t *testing.T) string {
	t.Helper()
	data := testutil.BuildAssets(t,
		testutil.Asset{GUID: testutil.GUID(1), Pathname: "Assets/Scripts/Player.cs", Data: []byte("class Player {}")},
		testutil.Asset{GUID: testutil.GUID(2), Pathname: "Assets/Scripts/Enemy.cs", Data: []byte("class Enemy {}")},
		testutil.Asset{GUID: testutil.GUID(3), Pathname: "Assets/readme.txt", Data: []byte("hello"), Meta: "guid: 3"},
	)
	return testutil.WritePackage(t, t.TempDir(), "test.unitypackage", data)
}

// loadedModel returns a model in the browse state for a real package.
func loadedModel(t *testing.T, opts Options) Model {
	t.Helper()
	m := NewModel(context.Background(), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	msg := m.loadPackage(false)()
	next, _ = m.Update(msg)
	m = next.(Model)
	if m.state != StateBrowse {
		t.Fatalf("expected browse state, got %v (err=%v)", m.state, m.loadErr)
	}
	return m
}

// drainExtract feeds extraction messages until the run completes.
func drainExtract(t *testing.T, m Model) Model {
	t.Helper()
	for m.state == StateExtracting {
		msg := m.listenForExtract()()
		if msg == nil {
			t.Fatal("extraction channel closed before completion")
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := NewModel(context.Background(), Options{Source: "Foo.unitypackage"})

	if m.state != StateLoading {
		t.Errorf("expected loading state, got %v", m.state)
	}
	if !strings.Contains(m.View(), "Foo.unitypackage") {
		t.Error("expected loading view to name the package")
	}
}

func TestModelLoadFailure(t *testing.T) {
	m := NewModel(context.Background(), Options{Source: filepath.Join(t.TempDir(), "missing.unitypackage")})

	next, _ := m.Update(m.loadPackage(false)())
	m = next.(Model)

	if m.state != StateFailed {
		t.Fatalf("expected failed state, got %v", m.state)
	}
	if m.loadErr == nil {
		t.Error("expected load error")
	}
	if !strings.Contains(m.View(), "Could not read package") {
		t.Error("expected failure view")
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestModelBrowse(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})

	if m.tree.Len() == 0 {
		t.Fatal("expected visible rows")
	}
	view := m.View()
	for _, want := range []string{"UNIPACK", "Scripts/", "readme.txt"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected browse view to contain %q", want)
		}
	}

	m = press(t, m, "j", "k", "G", "g")
	if m.tree.Cursor() != 0 {
		t.Errorf("expected cursor back at top, got %d", m.tree.Cursor())
	}
}

func TestModelExtractRequiresSelection(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})

	m = press(t, m, "e")
	if m.state != StateBrowse {
		t.Errorf("expected to stay in browse, got %v", m.state)
	}
	if m.status != "Nothing selected" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestModelConfirmCancel(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})

	m = press(t, m, "a", "e")
	if m.state != StateConfirm {
		t.Fatalf("expected confirm state, got %v", m.state)
	}
	if !strings.Contains(m.View(), "Extract 3 files") {
		t.Error("expected confirmation dialog with file count")
	}

	// Focus cancel and confirm it.
	m = press(t, m, "h", "enter")
	if m.state != StateBrowse {
		t.Errorf("expected browse after cancel, got %v", m.state)
	}

	m = press(t, m, "e", "n")
	if m.state != StateBrowse {
		t.Errorf("expected browse after n, got %v", m.state)
	}
}

func TestModelExtract(t *testing.T) {
	out := t.TempDir()
	hist, err := manifest.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := loadedModel(t, Options{
		Source:    writeTestPackage(t),
		OutputDir: out,
		Workers:   2,
		Manifest:  hist,
	})

	// Select the Scripts directory only.
	for m.tree.Current() == nil || m.tree.Current().Path != "Assets/Scripts" {
		m = press(t, m, "j")
	}
	m = press(t, m, " ", "e", "y")
	if m.state != StateExtracting {
		t.Fatalf("expected extracting state, got %v", m.state)
	}
	if m.extractTotal != 2 {
		t.Errorf("expected 2 files to extract, got %d", m.extractTotal)
	}

	m = drainExtract(t, m)
	if m.state != StateComplete {
		t.Fatalf("expected complete state, got %v", m.state)
	}
	if m.extractErr != nil {
		t.Fatalf("unexpected error: %v", m.extractErr)
	}
	if m.report == nil || len(m.report.Written) != 2 {
		t.Fatalf("expected 2 written files, got %+v", m.report)
	}
	if m.historyID == "" {
		t.Error("expected a history entry")
	}

	data, err := os.ReadFile(filepath.Join(out, "Assets", "Scripts", "Player.cs"))
	if err != nil {
		t.Fatalf("expected Player.cs on disk: %v", err)
	}
	if string(data) != "class Player {}" {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "Assets", "readme.txt")); !os.IsNotExist(err) {
		t.Error("expected unselected readme.txt to be skipped")
	}

	if !strings.Contains(m.View(), "Extraction Complete") {
		t.Error("expected completion view")
	}

	m = press(t, m, "enter")
	if m.state != StateBrowse {
		t.Errorf("expected browse after completion, got %v", m.state)
	}
}

func TestModelCompleteWithFailures(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})
	m.state = StateExtracting

	werr := &extract.WriteError{Failures: []extract.Failure{
		{Path: "Assets/a.cs", Target: "/out/Assets/a.cs", Err: errors.New("permission denied")},
	}}
	next, _ := m.Update(extractDoneMsg{
		report: &extract.Report{OutputDir: "/out"},
		err:    werr,
	})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "Finished With Errors") {
		t.Error("expected error heading")
	}
	if !strings.Contains(view, "permission denied") {
		t.Error("expected failure detail")
	}
}

func TestModelChangeWhileConfirming(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})
	m = press(t, m, "a", "e")

	next, _ := m.Update(packageChangedMsg(watcher.Event{Path: m.options.Source, Op: watcher.Changed}))
	m = next.(Model)
	if !m.reloadPending {
		t.Fatal("expected reload to be deferred")
	}

	next, cmd := m.Update(keyMsg("esc"))
	m = next.(Model)
	if m.reloadPending {
		t.Error("expected pending reload to be consumed")
	}
	if cmd == nil {
		t.Fatal("expected reload command")
	}

	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.status != "Package reloaded" {
		t.Errorf("unexpected status %q", m.status)
	}
	if count, _ := m.tree.SelectedFiles(); count != 3 {
		t.Errorf("expected selection to survive reload, got %d files", count)
	}
}

func TestModelPackageRemoved(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})

	next, _ := m.Update(packageChangedMsg(watcher.Event{Path: m.options.Source, Op: watcher.Removed}))
	m = next.(Model)

	if m.state != StateBrowse {
		t.Errorf("expected to stay in browse, got %v", m.state)
	}
	if !strings.Contains(m.status, "removed") {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestModelLogPanelToggle(t *testing.T) {
	m := loadedModel(t, Options{Source: writeTestPackage(t), OutputDir: t.TempDir()})
	closed := m.treeHeight()

	m = press(t, m, "L")
	if !m.logs.Open {
		t.Fatal("expected log panel open")
	}
	if got := m.treeHeight(); got != max(closed-logPanelHeight, 3) {
		t.Errorf("expected tree to shrink, got %d", got)
	}

	// While open, esc closes the panel instead of quitting.
	next, cmd := m.Update(keyMsg("esc"))
	m = next.(Model)
	if m.logs.Open {
		t.Error("expected esc to close the panel")
	}
	if cmd != nil {
		t.Error("expected no quit command")
	}
}

func TestOverlayDialog(t *testing.T) {
	m := Model{width: 20, height: 5}
	bg := strings.Join([]string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}, "\n")

	got := strings.Split(m.overlayDialog(bg, "XX"), "\n")
	if len(got) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(got))
	}
	if strings.TrimSpace(got[2]) != "XX" {
		t.Errorf("expected dialog on the middle row, got %q", got[2])
	}
	if got[0] != "aaaa" || got[4] != "eeee" {
		t.Error("expected background rows outside the dialog")
	}
}
