// Package history keeps a record of emitted utterances: a bounded in-memory
// buffer serving the live feed backlog, and an optional PostgreSQL store for
// durable dictation history.
package history

import (
	"sync"
	"time"
)

// Entry is one recorded utterance.
type Entry struct {
	// Text is the emitted text, after correction and command filtering.
	Text string `json:"text"`

	// AudioDuration is the length of the audio that produced Text.
	AudioDuration time.Duration `json:"audio_duration"`

	// EndedAt is when the utterance was finalized.
	EndedAt time.Time `json:"ended_at"`
}

// Buffer maintains the most recent utterances, bounded by both entry count
// and entry age. Expired or excess entries are evicted on every [Add] call.
//
// All methods are safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
	maxAge  time.Duration

	now func() time.Time
}

// NewBuffer creates a buffer that retains at most maxSize entries and evicts
// entries older than maxAge.
func NewBuffer(maxSize int, maxAge time.Duration) *Buffer {
	return &Buffer{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Add appends an entry and evicts entries that exceed the configured maximum
// size or age.
func (b *Buffer) Add(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	b.evict()
}

// Recent returns up to maxEntries entries within the configured age window,
// in chronological order (oldest first).
func (b *Buffer) Recent(maxEntries int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff := b.now().Add(-b.maxAge)
	result := make([]Entry, 0, maxEntries)

	for i := len(b.entries) - 1; i >= 0 && len(result) < maxEntries; i-- {
		e := b.entries[i]
		if e.EndedAt.Before(cutoff) {
			continue
		}
		result = append(result, e)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Len returns the number of entries currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// evict removes entries that are too old or exceed maxSize.
// Must be called with b.mu held.
//
// Surviving entries are copied to a fresh backing array so evicted entries
// do not pin memory for the lifetime of the process.
func (b *Buffer) evict() {
	cutoff := b.now().Add(-b.maxAge)

	start := 0
	for start < len(b.entries) && b.entries[start].EndedAt.Before(cutoff) {
		start++
	}

	keep := b.entries[start:]
	if len(keep) > b.maxSize {
		keep = keep[len(keep)-b.maxSize:]
	}

	if start > 0 || len(keep) < len(b.entries) {
		fresh := make([]Entry, len(keep), b.maxSize)
		copy(fresh, keep)
		b.entries = fresh
	}
}
