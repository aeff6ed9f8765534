package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// JSONLedger persists the merged batch names as a JSON array of strings.
type JSONLedger struct {
	path    string
	entries []string
	index   map[string]struct{}
}

// NewJSONLedger creates an empty in-memory ledger backed by path.
func NewJSONLedger(path string) *JSONLedger {
	return &JSONLedger{path: path, index: make(map[string]struct{})}
}

// Init writes an empty ledger file when none exists.
func (l *JSONLedger) Init() error {
	if fileExists(l.path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("ledger: create dir: %w", err)
	}
	return writeFileAtomic(l.path, func(w io.Writer) error {
		_, err := io.WriteString(w, "[]")
		return err
	})
}

// Load replaces the in-memory entries with the persisted list. A missing file
// is an empty ledger.
func (l *JSONLedger) Load() ([]string, error) {
	l.Reset()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return l.Entries(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %q: %w", l.path, err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ledger: parse %q: %w", l.path, err)
	}
	for _, e := range entries {
		l.Record(e)
	}
	return l.Entries(), nil
}

func (l *JSONLedger) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Record appends id. Recording an id twice keeps a single entry.
func (l *JSONLedger) Record(id string) {
	if l.Contains(id) {
		return
	}
	l.index[id] = struct{}{}
	l.entries = append(l.entries, id)
}

// Reset empties the ledger in memory only.
func (l *JSONLedger) Reset() {
	l.entries = nil
	l.index = make(map[string]struct{})
}

// Entries returns the recorded ids in insertion order.
func (l *JSONLedger) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Save rewrites the ledger file with the in-memory entries.
func (l *JSONLedger) Save() error {
	data, err := json.Marshal(l.Entries())
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	err = writeFileAtomic(l.path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("ledger: save: %w", err)
	}
	return nil
}
