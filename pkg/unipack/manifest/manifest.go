package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/unipack/pkg/unipack/extract"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("manifest entry not found")

// ErrEmptyDir is returned by New for an empty directory.
var ErrEmptyDir = errors.New("manifest directory cannot be empty")

// entryExt is the suffix of every entry file.
const entryExt = ".json"

// Manifest reads and writes entries in one directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a manifest rooted at dir. The directory is created on the
// first write.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	return &Manifest{dir: dir, now: time.Now}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// Request describes the extraction being recorded.
type Request struct {
	Source    string
	Selection []string
}

// Record stores the outcome of an extraction. report may be accompanied by
// the error Materialize returned; a *extract.WriteError is expanded into
// per-file failures.
func (m *Manifest) Record(req Request, report *extract.Report, extractErr error) (*Entry, error) {
	op := OpExtract
	if report.DryRun {
		op = OpDryRun
	}

	entry := &Entry{
		ID:        newID(op, m.now()),
		Timestamp: m.now().UTC(),
		Operation: op,
		Source:    req.Source,
		OutputDir: report.OutputDir,
		Selection: req.Selection,
		Files:     make([]FileRecord, 0, len(report.Written)),
	}
	for _, w := range report.Written {
		entry.Files = append(entry.Files, FileRecord{
			Path:   w.Path,
			Target: w.Target,
			Size:   w.Size,
			Digest: w.Digest,
		})
	}

	var werr *extract.WriteError
	switch {
	case errors.As(extractErr, &werr):
		for _, f := range werr.Failures {
			entry.Failures = append(entry.Failures, Failure{Path: f.Path, Error: f.Err.Error()})
		}
	case extractErr != nil:
		entry.Failures = append(entry.Failures, Failure{Error: extractErr.Error()})
	}

	entry.Summary = Summary{
		TotalFiles:  len(entry.Files),
		TotalBytes:  report.Bytes,
		FailedFiles: len(entry.Failures),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write(entry); err != nil {
		return nil, fmt.Errorf("write manifest entry: %w", err)
	}
	return entry, nil
}

// write stores entry atomically via a temp file and rename.
func (m *Manifest) write(entry *Entry) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := filepath.Join(m.dir, entry.ID+entryExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of zero or less returns all.
// Unreadable files are skipped.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with id. Unique prefixes of an ID are accepted.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !strings.ContainsAny(id, `/\`) {
		if entry, err := m.read(id + entryExt); err == nil {
			return entry, nil
		}
	}

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}
	var match *Entry
	for i := range entries {
		if strings.HasPrefix(entries[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %q is ambiguous", ErrNotFound, id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries recorded more than retentionDays ago and returns
// how many were removed. A retention of zero or less keeps everything.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().AddDate(0, 0, -retentionDays)
	entries, err := m.readAll()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.ID+entryExt)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// readAll parses every entry file. A missing directory yields no entries.
func (m *Manifest) readAll() ([]Entry, error) {
	files, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != entryExt {
			continue
		}
		entry, err := m.read(f.Name())
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (m *Manifest) read(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &entry, nil
}

// newID returns an ID like "extract-2026-10-19T10-30-00-1b4e28ba".
func newID(op Operation, t time.Time) string {
	short, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("%s-%s-%s", op, t.UTC().Format("2006-01-02T15-04-05"), short)
}
