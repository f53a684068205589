package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafePath is reported for a logical path that would land outside the
// output directory.
var ErrUnsafePath = errors.New("path escapes output directory")

// Failure is one write that did not complete.
type Failure struct {
	Path   string
	Target string
	Err    error
}

// Error implements error.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Unwrap returns the underlying cause.
func (f Failure) Unwrap() error {
	return f.Err
}

// WriteError reports every failed write of one materialization.
// Files written before or alongside the failures are left in place.
type WriteError struct {
	Failures []Failure
}

// Error implements error.
func (e *WriteError) Error() string {
	if len(e.Failures) == 1 {
		return "extract failed: " + e.Failures[0].Error()
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("extract failed for %d files: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes each cause to errors.Is and errors.As.
func (e *WriteError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
