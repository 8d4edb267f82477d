package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// History is the set of keys that already produced an alert. It is persisted
// as a JSON array of strings and rewritten in full on every save.
type History struct {
	mu   sync.Mutex
	path string
	keys map[string]struct{}
}

// NewHistory returns an empty history bound to path.
func NewHistory(path string) *History {
	return &History{path: path, keys: make(map[string]struct{})}
}

// LoadHistory reads the history file at path. A missing file yields an empty
// history. A corrupt file also yields an empty history, together with an
// error the caller should report.
func LoadHistory(path string) (*History, error) {
	h := NewHistory(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return h, fmt.Errorf("failed to read alert history: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return h, fmt.Errorf("failed to parse alert history %s: %w", path, err)
	}
	for _, k := range keys {
		h.keys[k] = struct{}{}
	}
	return h, nil
}

// Path returns the backing file.
func (h *History) Path() string {
	return h.path
}

// Contains reports whether key is present.
func (h *History) Contains(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.keys[key]
	return ok
}

// Add inserts key. It reports false if the key was already present.
func (h *History) Add(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.keys[key]; ok {
		return false
	}
	h.keys[key] = struct{}{}
	return true
}

// Keys returns the keys in sorted order.
func (h *History) Keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sortedLocked()
}

// Len returns the number of keys.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}

func (h *History) sortedLocked() []string {
	keys := make([]string, 0, len(h.keys))
	for k := range h.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes every key to the backing file. The file is replaced through a
// temporary file in the same directory.
func (h *History) Save() error {
	h.mu.Lock()
	data, err := json.Marshal(h.sortedLocked())
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode alert history: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".alert_history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write alert history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write alert history: %w", err)
	}
	if err := os.Rename(tmpName, h.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace alert history: %w", err)
	}
	return nil
}
