package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/unipack/pkg/unipack/cache"
	"github.com/jamesainslie/unipack/pkg/unipack/extract"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/jamesainslie/unipack/pkg/unipack/manifest"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/jamesainslie/unipack/pkg/unipack/unitypkg"
	"github.com/jamesainslie/unipack/pkg/unipack/watcher"
)

// AppState represents the current state of the application.
type AppState int

const (
	StateLoading AppState = iota
	StateBrowse
	StateConfirm
	StateExtracting
	StateComplete
	StateFailed
)

// Options configures the TUI application.
type Options struct {
	// Source is the package to open.
	Source string

	OutputDir string
	Workers   int
	WithMeta  bool
	DryRun    bool

	// Cache, when set, serves and stores the package index.
	Cache *cache.Cache

	// Manifest, when set, records each extraction.
	Manifest *manifest.Manifest

	// Watch reloads the package when the file changes.
	Watch    bool
	Debounce time.Duration
}

// Model is the main Bubble Tea model.
type Model struct {
	state   AppState
	options Options
	ctx     context.Context

	loadModel LoadModel
	pkg       *unitypkg.Package
	tree      *TreeView
	logs      LogPanel
	status    string
	loadErr   error

	// Confirmation dialog state
	confirmFocused int // 0 = cancel, 1 = extract

	// Extracting state
	extractSpinner spinner.Model
	extractTotal   int
	extractDone    int
	extractLast    string
	extractChan    chan tea.Msg

	// Complete state
	report     *extract.Report
	extractErr error
	historyID  string

	// Background sources wired by Run.
	changes       <-chan watcher.Event
	logEntries    <-chan logging.Entry
	reloadPending bool

	width  int
	height int
}

// Messages.
type (
	packageLoadedMsg struct {
		pkg    *unitypkg.Package
		err    error
		reload bool
	}
	extractProgressMsg struct {
		file extract.WrittenFile
	}
	extractDoneMsg struct {
		report  *extract.Report
		err     error
		entryID string
	}
	packageChangedMsg watcher.Event
	logEntryMsg       logging.Entry
	tickUIMsg         struct{}
)

// NewModel creates a model that will load opts.Source on Init.
func NewModel(ctx context.Context, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(successColor)

	return Model{
		state:          StateLoading,
		options:        opts,
		ctx:            ctx,
		loadModel:      NewLoadModel(opts.Source),
		logs:           NewLogPanel(logging.Buffer()),
		extractSpinner: s,
		width:          80,
		height:         24,
	}
}

// Init starts loading and the background listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadModel.spinner.Tick,
		m.loadPackage(false),
		m.tickUI(),
		m.listenForChanges(),
		m.listenForLogs(),
	)
}

// tickUI refreshes the loading bar.
func (m Model) tickUI() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickUIMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.loadModel.width = msg.Width
		m.loadModel.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickUIMsg:
		if m.state == StateLoading {
			return m, m.tickUI()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		switch m.state {
		case StateLoading:
			m.loadModel.spinner, cmd = m.loadModel.spinner.Update(msg)
		case StateExtracting:
			m.extractSpinner, cmd = m.extractSpinner.Update(msg)
		}
		return m, cmd

	case packageLoadedMsg:
		return m.handleLoaded(msg), nil

	case packageChangedMsg:
		return m.handleChange(watcher.Event(msg))

	case extractProgressMsg:
		m.extractDone++
		m.extractLast = msg.file.Path
		return m, m.listenForExtract()

	case extractDoneMsg:
		m.state = StateComplete
		m.report = msg.report
		m.extractErr = msg.err
		m.historyID = msg.entryID
		if msg.report != nil {
			m.extractDone = len(msg.report.Written)
		}
		return m, nil

	case logEntryMsg:
		// The panel reads the ring buffer; the message only triggers a redraw.
		return m, m.listenForLogs()
	}

	return m, nil
}

// handleLoaded installs a freshly parsed package.
func (m Model) handleLoaded(msg packageLoadedMsg) Model {
	if msg.err != nil {
		if msg.reload {
			m.status = "Reload failed: " + msg.err.Error()
			return m
		}
		m.state = StateFailed
		m.loadErr = msg.err
		return m
	}

	m.pkg = msg.pkg
	if msg.reload && m.tree != nil {
		m.tree.SetRoot(msg.pkg.Tree)
		m.status = "Package reloaded"
		return m
	}
	m.tree = NewTreeView(msg.pkg.Tree)
	m.state = StateBrowse
	if len(msg.pkg.Unresolved) > 0 {
		m.status = fmt.Sprintf("%d entries could not be resolved to a path and asset", len(msg.pkg.Unresolved))
	}
	return m
}

// handleChange reacts to the watched package changing on disk.
func (m Model) handleChange(ev watcher.Event) (tea.Model, tea.Cmd) {
	listen := m.listenForChanges()
	if ev.Op == watcher.Removed {
		m.status = "Package was removed from disk"
		return m, listen
	}
	if m.state != StateBrowse {
		m.reloadPending = true
		return m, listen
	}
	m.status = "Package changed, reloading..."
	return m, tea.Batch(listen, m.loadPackage(true))
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateLoading, StateFailed:
		if key == "q" || key == "esc" {
			return m, tea.Quit
		}

	case StateBrowse:
		return m.handleBrowseKey(key)

	case StateConfirm:
		switch key {
		case "q", "esc", "n":
			return m.backToBrowse()
		case "left", "h":
			m.confirmFocused = 0
		case "right", "l":
			m.confirmFocused = 1
		case "tab":
			m.confirmFocused = (m.confirmFocused + 1) % 2
		case "enter":
			if m.confirmFocused == 1 {
				return m.startExtract()
			}
			return m.backToBrowse()
		case "y":
			return m.startExtract()
		}

	case StateExtracting:
		// No key handling during extraction

	case StateComplete:
		switch key {
		case "q":
			return m, tea.Quit
		case "enter", "esc":
			return m.backToBrowse()
		}
	}

	return m, nil
}

// handleBrowseKey handles keys in the tree.
func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	if m.logs.handleKey(key) {
		return m, nil
	}

	page := max(m.treeHeight()-1, 1)
	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.tree.MoveUp()
	case "down", "j":
		m.tree.MoveDown()
	case "pgup", "ctrl+u":
		m.tree.PageUp(page)
	case "pgdown", "ctrl+d":
		m.tree.PageDown(page)
	case "home", "g":
		m.tree.Home()
	case "end", "G":
		m.tree.End()
	case "right", "l":
		m.tree.Expand()
	case "left", "h":
		m.tree.Collapse()
	case "enter":
		m.tree.ToggleExpand()
	case " ":
		m.tree.ToggleSelect()
	case "a":
		m.tree.SelectAll()
	case "n":
		m.tree.SelectNone()
	case "L":
		m.logs.Toggle()
	case "r":
		m.status = "Reloading..."
		return m, m.loadPackage(true)
	case "e", "x":
		if m.tree.HasSelection() {
			m.state = StateConfirm
			m.confirmFocused = 1
		} else {
			m.status = "Nothing selected"
		}
	}
	return m, nil
}

// backToBrowse returns to the tree and applies a reload that arrived
// while the tree was not shown.
func (m Model) backToBrowse() (tea.Model, tea.Cmd) {
	m.state = StateBrowse
	if m.reloadPending {
		m.reloadPending = false
		m.status = "Package changed, reloading..."
		return m, m.loadPackage(true)
	}
	return m, nil
}

// loadPackage parses the package in the background.
func (m Model) loadPackage(reload bool) tea.Cmd {
	ctx, source, store := m.ctx, m.options.Source, m.options.Cache
	return func() tea.Msg {
		var opts []unitypkg.Option
		if store != nil {
			opts = append(opts, unitypkg.WithCache(store))
		}
		pkg, err := unitypkg.Parse(ctx, source, opts...)
		return packageLoadedMsg{pkg: pkg, err: err, reload: reload}
	}
}

// listenForChanges waits for the next watcher event.
func (m Model) listenForChanges() tea.Cmd {
	changes := m.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-changes
		if !ok {
			return nil
		}
		return packageChangedMsg(ev)
	}
}

// listenForLogs waits for the next log record.
func (m Model) listenForLogs() tea.Cmd {
	entries := m.logEntries
	if entries == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-entries
		if !ok {
			return nil
		}
		return logEntryMsg(e)
	}
}

// startExtract begins writing the selection.
func (m Model) startExtract() (tea.Model, tea.Cmd) {
	m.state = StateExtracting
	m.extractTotal, _ = m.tree.SelectedFiles()
	m.extractDone = 0
	m.extractLast = ""
	m.report = nil
	m.extractErr = nil
	m.historyID = ""

	ch := make(chan tea.Msg, 100)
	m.extractChan = ch

	ctx := m.ctx
	opts := m.options
	paths := m.tree.SelectedPaths()

	go func() {
		defer close(ch)
		req := unitypkg.ExtractRequest{
			Source:    opts.Source,
			Paths:     paths,
			OutputDir: opts.OutputDir,
			Workers:   opts.Workers,
			WithMeta:  opts.WithMeta,
			DryRun:    opts.DryRun,
			Progress: func(w extract.WrittenFile) {
				select {
				case ch <- extractProgressMsg{file: w}:
				default:
					// Channel full, skip this update
				}
			},
		}
		report, err := unitypkg.Extract(ctx, req)

		done := extractDoneMsg{report: report, err: err}
		if report != nil && opts.Manifest != nil {
			entry, recErr := opts.Manifest.Record(manifest.Request{Source: opts.Source, Selection: paths}, report, err)
			if recErr != nil {
				logging.Get("tui").Warn("failed to record history", "error", recErr)
			} else {
				done.entryID = entry.ID
			}
		}
		ch <- done
	}()

	return m, tea.Batch(m.extractSpinner.Tick, m.listenForExtract())
}

// listenForExtract waits for the next extraction message.
func (m Model) listenForExtract() tea.Cmd {
	ch := m.extractChan
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateLoading:
		return m.loadModel.View()
	case StateFailed:
		return m.renderFailed()
	case StateBrowse:
		return m.renderBrowse()
	case StateConfirm:
		return m.overlayDialog(m.renderBrowse(), m.renderConfirmDialog())
	case StateExtracting:
		return m.renderExtracting()
	case StateComplete:
		return m.renderComplete()
	}
	return ""
}

// contentWidth is the usable width inside the outer box.
func (m Model) contentWidth() int {
	return max(m.width-4, 40)
}

// treeHeight is the number of rows left for the tree.
func (m Model) treeHeight() int {
	// border(2) + header, metrics, divider, help, divider, divider, footer
	h := m.height - 9
	if m.logs.Open {
		h -= logPanelHeight
	}
	return max(h, 3)
}

// renderBrowse renders the tree with header, help and footer.
func (m Model) renderBrowse() string {
	width := m.contentWidth()
	count, size := m.tree.SelectedFiles()

	var b strings.Builder
	b.WriteString(renderAppHeader(headerInfo{
		source:        m.options.Source,
		assets:        len(m.pkg.Records),
		totalSize:     m.pkg.TotalSize(),
		selected:      count,
		selectedSize:  size,
		watching:      m.changes != nil,
		reloadPending: m.reloadPending,
	}))
	b.WriteString("\n")
	b.WriteString(renderParseMetrics(m.pkg.Entries, m.pkg.Ignored, len(m.pkg.Unresolved), m.pkg.Duration, m.pkg.Cached))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")
	b.WriteString(renderHints([]keyHint{
		{"Space", "Toggle"},
		{"a", "All"},
		{"n", "None"},
		{"←/→", "Fold"},
		{"e", "Extract"},
		{"L", "Logs"},
		{"q", "Quit"},
	}))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")
	b.WriteString(m.tree.View(width, m.treeHeight()))
	b.WriteString(renderDivider(width))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(width))

	if m.logs.Open {
		b.WriteString("\n")
		b.WriteString(m.logs.View(width, logPanelHeight))
	}

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderFooter shows the status message or the highlighted path.
func (m Model) renderFooter(width int) string {
	if m.status != "" {
		return warningTextStyle.Render("  " + truncatePath(m.status, width-2))
	}
	if n := m.tree.Current(); n != nil {
		return mutedTextStyle.Render("  " + truncatePath(n.Path, width-2))
	}
	return ""
}

// renderConfirmDialog renders the extraction confirmation dialog.
func (m Model) renderConfirmDialog() string {
	count, size := m.tree.SelectedFiles()
	out := m.options.OutputDir
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render("Confirm Extraction"))
	b.WriteString("\n\n")
	b.WriteString(dialogTextStyle.Render(fmt.Sprintf("Extract %d files (%s)?", count, types.FormatSize(size))))
	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render("into " + truncatePath(out, 48)))
	b.WriteString("\n")
	if m.options.WithMeta {
		b.WriteString(mutedTextStyle.Render("(.meta files included)"))
		b.WriteString("\n")
	}
	if m.options.DryRun {
		b.WriteString(warningTextStyle.Render("(Dry run - nothing will be written)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	extractBtn := inactiveButtonStyle.Render("Extract")
	if m.confirmFocused == 0 {
		cancelBtn = activeButtonStyle.Background(subtleColor).Render("Cancel")
	} else {
		extractBtn = activeButtonStyle.Render("Extract")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, cancelBtn, "  ", extractBtn)
	b.WriteString(center(buttons, 52))

	return dialogBoxStyle.Render(b.String())
}

// renderExtracting renders the extraction progress view.
func (m Model) renderExtracting() string {
	width := m.contentWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("  Extracting..."))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s Written: %d / %d files", m.extractSpinner.View(), m.extractDone, m.extractTotal)
	b.WriteString("\n\n")

	if m.extractTotal > 0 {
		pct := min(float64(m.extractDone)/float64(m.extractTotal), 1)
		barWidth := width - 10
		filled := int(pct * float64(barWidth))
		b.WriteString("  " + successTextStyle.Render(strings.Repeat("█", filled)) +
			progressEmptyStyle.Render(strings.Repeat("░", barWidth-filled)))
		fmt.Fprintf(&b, " %d%%\n", int(pct*100))
	}
	if m.extractLast != "" {
		b.WriteString(mutedTextStyle.Render("  " + truncatePath(m.extractLast, width-2)))
		b.WriteString("\n")
	}

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderComplete renders the extraction summary.
func (m Model) renderComplete() string {
	width := m.contentWidth()

	var failures []extract.Failure
	var werr *extract.WriteError
	if errors.As(m.extractErr, &werr) {
		failures = werr.Failures
	}

	var b strings.Builder
	switch {
	case m.report == nil:
		b.WriteString(errorTextStyle.Render("  Extraction Failed"))
	case len(failures) > 0:
		b.WriteString(warningTextStyle.Render("  Extraction Finished With Errors"))
	default:
		b.WriteString(successTextStyle.Render("  Extraction Complete"))
	}
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n\n")

	if m.report == nil {
		b.WriteString(errorTextStyle.Render("  " + errorString(m.extractErr)))
		b.WriteString("\n")
	} else {
		label := "Written"
		if m.report.DryRun {
			label = "Would write"
		}
		boxWidth := max((width-8)/3, 14)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			"  ",
			renderStatBox(label, types.FormatCount(int64(len(m.report.Written))), boxWidth), " ",
			renderStatBox("Size", types.FormatSize(m.report.Bytes), boxWidth), " ",
			renderStatBox("Failed", types.FormatCount(int64(len(failures))), boxWidth)))
		b.WriteString("\n\n")
		b.WriteString("  Output: " + truncatePath(m.report.OutputDir, width-10))
		b.WriteString("\n")
		if m.historyID != "" {
			b.WriteString(mutedTextStyle.Render("  History: " + m.historyID))
			b.WriteString("\n")
		}
	}

	if len(failures) > 0 {
		b.WriteString("\n")
		b.WriteString(errorTextStyle.Render("  Errors:"))
		b.WriteString("\n")
		const maxErrors = 5
		for i, f := range failures {
			if i >= maxErrors {
				b.WriteString(errorTextStyle.Render(fmt.Sprintf("    ... and %d more", len(failures)-maxErrors)))
				b.WriteString("\n")
				break
			}
			b.WriteString(errorTextStyle.Render("    - " + truncatePath(f.Error(), width-6)))
			b.WriteString("\n")
		}
	} else if m.report != nil && m.extractErr != nil {
		b.WriteString(errorTextStyle.Render("  " + errorString(m.extractErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(keyStyle.Render("[Enter]")+" "+keyDescStyle.Render("Back")+"   "+
		keyStyle.Render("[q]")+" "+keyDescStyle.Render("Quit"), width))
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderFailed renders a package that could not be read.
func (m Model) renderFailed() string {
	width := m.contentWidth()

	var b strings.Builder
	b.WriteString(errorTextStyle.Render("  Could not read package"))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n\n")
	b.WriteString("  " + truncatePath(m.options.Source, width-2))
	b.WriteString("\n")
	b.WriteString(errorTextStyle.Render("  " + errorString(m.loadErr)))
	b.WriteString("\n\n")
	b.WriteString(center(keyStyle.Render("[q]")+" "+keyDescStyle.Render("Quit"), width))
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func errorString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// overlayDialog centers a dialog over a background view.
func (m Model) overlayDialog(bg, dialog string) string {
	dialogLines := strings.Split(dialog, "\n")
	bgLines := strings.Split(bg, "\n")

	dialogHeight := len(dialogLines)
	startRow := max((m.height-dialogHeight)/2, 0)
	startCol := max((m.width-lipgloss.Width(dialog))/2, 0)
	pad := strings.Repeat(" ", startCol)

	var result []string
	for i := range max(len(bgLines), startRow+dialogHeight) {
		if i >= startRow && i < startRow+dialogHeight {
			result = append(result, pad+dialogLines[i-startRow])
			continue
		}
		if i < len(bgLines) {
			result = append(result, bgLines[i])
		} else {
			result = append(result, "")
		}
	}
	return strings.Join(result, "\n")
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(ctx, opts)

	if opts.Watch {
		w, err := watcher.New(watcher.WithDebounce(opts.Debounce))
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Close()
		if err := w.Add(opts.Source); err != nil {
			return fmt.Errorf("failed to watch %s: %w", opts.Source, err)
		}
		changes := make(chan watcher.Event, 8)
		go w.Run(ctx, func(ev watcher.Event) {
			select {
			case changes <- ev:
			default:
			}
		})
		model.changes = changes
	}

	entries := logging.Subscribe()
	defer logging.Unsubscribe(entries)
	model.logEntries = entries

	p := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
