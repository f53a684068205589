package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
)

// document is the shape shared by the json and yaml formatters.
type document struct {
	Files      []File                 `json:"files" yaml:"files"`
	Unresolved []correlate.Unresolved `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Stats      documentStats          `json:"stats" yaml:"stats"`
	Meta       documentMeta           `json:"meta" yaml:"meta"`
}

type documentStats struct {
	Entries  int64  `json:"entries" yaml:"entries"`
	Ignored  int64  `json:"ignored" yaml:"ignored"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Cached   bool   `json:"cached" yaml:"cached"`
}

type documentMeta struct {
	Source     string   `json:"source" yaml:"source"`
	TotalFiles int      `json:"total_files" yaml:"total_files"`
	TotalSize  int64    `json:"total_size" yaml:"total_size"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func buildDocument(l *Listing) document {
	files := l.Files
	if files == nil {
		files = []File{}
	}
	return document{
		Files:      files,
		Unresolved: l.Unresolved,
		Stats: documentStats{
			Entries:  l.Stats.Entries,
			Ignored:  l.Stats.Ignored,
			Duration: formatDurationString(l.Stats.Duration),
			Cached:   l.Stats.Cached,
		},
		Meta: documentMeta{
			Source:     l.Source,
			TotalFiles: len(l.Files),
			TotalSize:  l.TotalSize(),
			Warnings:   l.Warnings,
		},
	}
}

func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// JSONFormatter writes the listing as one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, l *Listing) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(l))
}

// JSONLFormatter writes one compact JSON object per file, for jq and other
// line-oriented consumers.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, l *Listing) error {
	for _, file := range l.Files {
		data, err := json.Marshal(file)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
)
