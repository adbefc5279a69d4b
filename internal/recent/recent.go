// Package recent persists the Recent List described in §3: an ordered,
// most-recent-first, file-id-deduplicated list of catalog-entry-shaped
// records, bounded at 20 entries, stored as recent.json (§6). Grounded on
// the teacher's workspace_manager.go pattern of a small JSON document
// read-modified-written under a mutex, generalized from workspace state to
// a bounded recency list.
package recent

import (
	"encoding/json"
	"os"
	"sync"
)

// MaxEntries bounds the persisted list, per §3's Recent List.
const MaxEntries = 20

// Entry is one catalog-entry-shaped record in the recent list, per §3 and
// §6's `recent.json` shape.
type Entry struct {
	FileID       string   `json:"fileId"`
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	Type         string   `json:"type"`
	Format       string   `json:"format"`
	IndexedAt    string   `json:"indexedAt"`
	TotalRecords int64    `json:"totalRecords"`
	Columns      []string `json:"columns"`
}

// List is a process-lifetime handle over recent.json, read once at
// construction and rewritten on every mutation.
type List struct {
	path    string
	mutex   sync.Mutex
	entries []Entry
}

// Open loads path (missing file is treated as an empty list, matching
// config.Load's first-run fallback) and returns a ready List.
func Open(path string) (*List, error) {
	l := &List{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// All returns a copy of the current list, newest first.
func (l *List) All() []Entry {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Touch inserts or moves entry to the front, deduplicating by FileID, then
// truncates to MaxEntries and persists.
func (l *List) Touch(entry Entry) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	filtered := make([]Entry, 0, len(l.entries)+1)
	filtered = append(filtered, entry)
	for _, e := range l.entries {
		if e.FileID != entry.FileID {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) > MaxEntries {
		filtered = filtered[:MaxEntries]
	}
	l.entries = filtered
	return l.persist()
}

// Forget removes fileID from the list, if present, and persists.
func (l *List) Forget(fileID string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	filtered := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.FileID != fileID {
			filtered = append(filtered, e)
		}
	}
	l.entries = filtered
	return l.persist()
}

// Clear empties the list and persists, per clear_all (§6).
func (l *List) Clear() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = nil
	return l.persist()
}

func (l *List) persist() error {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}
