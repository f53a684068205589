// Package extract decides which records a selection covers and writes them
// beneath an output directory.
package extract

import (
	"slices"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
)

// Separator divides logical path segments.
const Separator = "/"

// Selector reports whether a logical path was chosen explicitly.
// selection.Set satisfies it.
type Selector interface {
	Has(path string) bool
}

// Item is one file to write.
type Item struct {
	GUID    string
	Path    string
	Payload []byte

	// Meta is written next to the payload as <Path>.meta when non-nil.
	Meta []byte
}

// Plan returns the records covered by sel, sorted by path.
//
// A record is covered when its own path is selected or when any ancestor
// directory path is selected. Selected paths that match no record are
// ignored, and an empty selection yields an empty plan.
func Plan(records []correlate.Record, sel Selector) []Item {
	var items []Item
	for _, rec := range records {
		if !covered(rec.Path, sel) {
			continue
		}
		items = append(items, Item{
			GUID:    rec.GUID,
			Path:    rec.Path,
			Payload: rec.Payload,
			Meta:    rec.Meta,
		})
	}

	slices.SortFunc(items, func(a, b Item) int {
		return strings.Compare(a.Path, b.Path)
	})
	return items
}

// covered walks from path up through its ancestors, probing sel at each
// level, so the cost is proportional to path depth rather than selection size.
func covered(path string, sel Selector) bool {
	if sel.Has(path) {
		return true
	}
	for i := strings.LastIndex(path, Separator); i > 0; i = strings.LastIndex(path[:i], Separator) {
		if sel.Has(path[:i]) {
			return true
		}
	}
	return false
}
