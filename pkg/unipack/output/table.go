package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"text/tabwriter"
)

// TableFormatter writes aligned SIZE, GUID and PATH columns.
type TableFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TableFormatter) Format(w *bytes.Buffer, l *Listing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprint(tw, "SIZE\tGUID\tPATH\n"); err != nil {
		return err
	}
	for _, file := range l.Files {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", file.SizeHuman, file.GUID, file.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// TSVFormatter writes tab-separated values with raw byte sizes.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, l *Listing) error {
	w.WriteString("SIZE\tGUID\tPATH\n")
	for _, file := range l.Files {
		fmt.Fprintf(w, "%d\t%s\t%s\n", file.Size, file.GUID, file.Path)
	}
	return nil
}

// CSVFormatter writes RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, l *Listing) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"size", "guid", "path"}); err != nil {
		return err
	}
	for _, file := range l.Files {
		if err := writer.Write([]string{fmt.Sprint(file.Size), file.GUID, file.Path}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MarkdownFormatter writes a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, l *Listing) error {
	w.WriteString("| SIZE | PATH |\n")
	w.WriteString("|------|------|\n")
	for _, file := range l.Files {
		fmt.Fprintf(w, "| %s | %s |\n", escapeMarkdownPipe(file.SizeHuman), escapeMarkdownPipe(file.Path))
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("table", func() Formatter { return &TableFormatter{} })
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TableFormatter)(nil)
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
