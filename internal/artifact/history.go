package artifact

import (
	"sync"
	"time"
)

// HistoryLimit is how many processed results are remembered.
const HistoryLimit = 10

// Entry is one remembered result together with the settings that
// produced it.
type Entry[S any] struct {
	Image    *Image
	Settings S
	Time     time.Time
}

// History keeps the most recent results, newest first.
type History[S any] struct {
	mu      sync.Mutex
	entries []Entry[S]
	limit   int
}

// NewHistory returns a history holding at most limit entries.
func NewHistory[S any](limit int) *History[S] {
	if limit <= 0 {
		limit = HistoryLimit
	}
	return &History[S]{limit: limit}
}

// Add records e as the newest entry.
func (h *History[S]) Add(e Entry[S]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := make([]Entry[S], 0, min(len(h.entries)+1, h.limit))
	entries = append(entries, e)
	for _, old := range h.entries {
		if len(entries) == h.limit {
			break
		}
		entries = append(entries, old)
	}
	h.entries = entries
}

// Entries returns a copy of the remembered results, newest first.
func (h *History[S]) Entries() []Entry[S] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry[S](nil), h.entries...)
}

// Clear forgets every entry.
func (h *History[S]) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
