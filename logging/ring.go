package logging

import (
	"strings"
	"sync"
)

// DefaultTailSize is the number of records kept by a tail when no size is given.
const DefaultTailSize = 500

// Ring is a bounded in-memory log sink. Each Write is one formatted record;
// when full, the oldest record is dropped.
type Ring struct {
	mu    sync.Mutex
	lines []string
	start int
	size  int
}

// NewRing creates a ring holding at most capacity records.
// A non-positive capacity uses DefaultTailSize.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultTailSize
	}
	return &Ring{lines: make([]string, capacity)}
}

// Write stores p as one record.
func (r *Ring) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.lines) {
		r.lines[(r.start+r.size)%len(r.lines)] = line
		r.size++
	} else {
		r.lines[r.start] = line
		r.start = (r.start + 1) % len(r.lines)
	}
	return len(p), nil
}

// Lines returns the stored records, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.lines[(r.start+i)%len(r.lines)]
	}
	return out
}

// Len returns the number of stored records.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the maximum number of records.
func (r *Ring) Cap() int {
	return len(r.lines)
}
