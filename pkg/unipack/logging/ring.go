package logging

import "sync"

// DefaultRingSize is the number of records the TUI log panel keeps.
const DefaultRingSize = 200

// Ring keeps the most recent log records. It is safe for concurrent use.
type Ring struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRing returns a ring holding up to size records.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{entries: make([]Entry, size)}
}

// Add stores e, evicting the oldest record when the ring is full.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of stored records.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.len()
}

func (r *Ring) len() int {
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Entries returns a copy of every stored record, oldest first.
func (r *Ring) Entries() []Entry {
	return r.Last(-1)
}

// Last returns up to n of the newest records, oldest first.
// A negative n returns everything.
func (r *Ring) Last(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.len()
	if n < 0 || n > count {
		n = count
	}
	out := make([]Entry, n)
	start := r.next - n
	if start < 0 {
		start += len(r.entries)
	}
	for i := range out {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}

// AtLeast returns the stored records at or above level, oldest first.
func (r *Ring) AtLeast(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops every record.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.next = 0
	r.full = false
}
