// Package history keeps a bounded, order-preserving, deduplicating in-memory
// ledger of recent clipboard snapshots. Nothing here survives a restart.
package history

import (
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries retained internally. A smaller
// visible limit (the max_history setting) governs how many List returns.
const DefaultCapacity = 50

const previewLength = 100

// Entry is a retained past snapshot. Content is base64 when IsBinary is set,
// matching the transport representation.
type Entry struct {
	Content   string `json:"content"`
	Mime      string `json:"type"`
	IsBinary  bool   `json:"is_binary"`
	Timestamp int64  `json:"timestamp"`
	Preview   string `json:"preview"`
}

// Store holds the history. Safe for concurrent use; the poller and request
// handlers both append to it.
type Store struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	lastAdd  string

	now func() time.Time // overridden in tests
}

// New returns an empty store retaining at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, now: time.Now}
}

// Add records a snapshot at the front of the ledger. Empty content and
// content equal to the immediately preceding add are ignored. Any older
// entry with the same content is removed first, so at most one entry per
// distinct content value ever exists.
func (s *Store) Add(content, mime string, isBinary bool) {
	if content == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if content == s.lastAdd {
		return
	}
	s.lastAdd = content

	for i, e := range s.entries {
		if e.Content == content {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}

	entry := Entry{
		Content:   content,
		Mime:      mime,
		IsBinary:  isBinary,
		Timestamp: s.now().Unix(),
		Preview:   preview(content, mime, isBinary),
	}
	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
}

// List returns up to limit entries, newest first, without mutating the store.
// A non-positive limit returns everything retained.
func (s *Store) List(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, s.entries[:n])
	return out
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.lastAdd = ""
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// preview derives the display preview. Text gets its first 100 characters
// with line breaks stripped. Binary image content carries the full encoded
// payload so clients can render a thumbnail from the preview alone.
func preview(content, mime string, isBinary bool) string {
	if isBinary && strings.HasPrefix(mime, "image/") {
		return content
	}
	flat := strings.ReplaceAll(content, "\n", " ")
	flat = strings.ReplaceAll(flat, "\r", "")
	if r := []rune(flat); len(r) > previewLength {
		return string(r[:previewLength])
	}
	return flat
}
