// Package manifest keeps a history of extractions as JSON files, one per run.
package manifest

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// Operation is the kind of run an entry records.
type Operation string

const (
	// OpExtract is an extraction that wrote files.
	OpExtract Operation = "extract"
	// OpDryRun is an extraction that only planned its writes.
	OpDryRun Operation = "dry-run"
)

// Entry is one recorded extraction.
type Entry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Operation Operation    `json:"operation"`
	Source    string       `json:"source"`
	OutputDir string       `json:"output_dir"`
	Selection []string     `json:"selection,omitempty"`
	Files     []FileRecord `json:"files"`
	Failures  []Failure    `json:"failures,omitempty"`
	Summary   Summary      `json:"summary"`
}

// FileRecord is one file written by the extraction.
type FileRecord struct {
	Path   string        `json:"path"`
	Target string        `json:"target"`
	Size   int64         `json:"size"`
	Digest digest.Digest `json:"digest,omitempty"`
}

// Failure is one write that did not complete.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary totals an entry.
type Summary struct {
	TotalFiles  int   `json:"total_files"`
	TotalBytes  int64 `json:"total_bytes"`
	FailedFiles int   `json:"failed_files,omitempty"`
}

// Succeeded reports whether every planned write completed.
func (e *Entry) Succeeded() bool {
	return e.Summary.FailedFiles == 0
}
