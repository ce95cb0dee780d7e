// Package history keeps the ordered list of generated persona drafts.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrNotFound = errors.New("history entry not found")

// Kind records which action produced an entry.
type Kind string

const (
	KindInitial  Kind = "initial"
	KindRefine   Kind = "refine"
	KindSnapshot Kind = "snapshot"
)

// Entry is one persona draft. Entries are ordered oldest first.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name,omitempty"`
	YAML        string    `json:"yaml"`
	Instruction string    `json:"instruction"`
}

// NewEntry stamps an entry with a fresh id and the current time.
func NewEntry(kind Kind, name, yaml, instruction string) Entry {
	return Entry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Kind:        kind,
		Name:        name,
		YAML:        yaml,
		Instruction: instruction,
	}
}

// PersistFunc receives a copy of the full sequence after every mutation.
type PersistFunc func(entries []Entry)

// Cache is the in-memory history. Appends past the limit drop the oldest
// entries.
type Cache struct {
	mu      sync.RWMutex
	entries []Entry
	limit   uint
	persist PersistFunc
	flush   func()
}

// NewCache seeds the cache with entries already loaded from storage, trimmed
// to limit. persist may be nil.
func NewCache(entries []Entry, limit uint, persist PersistFunc) *Cache {
	c := &Cache{
		entries: append([]Entry(nil), entries...),
		limit:   limit,
		persist: persist,
	}
	c.trim()
	return c
}

// OnClear registers a function run after Clear has persisted, used to force
// the write out instead of waiting for a debounce window.
func (c *Cache) OnClear(flush func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush = flush
}

// Append adds e as the newest entry and trims the oldest while the cache is
// longer than the limit.
func (c *Cache) Append(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.trim()
	snap := c.snapshot()
	c.mu.Unlock()
	c.save(snap)
}

// Clear empties the cache and persists immediately.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = nil
	flush := c.flush
	c.mu.Unlock()
	c.save([]Entry{})
	if flush != nil {
		flush()
	}
}

// Restore returns the entry at index, 0 being the oldest.
func (c *Cache) Restore(index int) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.entries) {
		return Entry{}, ErrNotFound
	}
	return c.entries[index], nil
}

// Find returns the entry with the given id.
func (c *Cache) Find(id string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := lo.Find(c.entries, func(e Entry) bool { return e.ID == id })
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// SetLimit changes the cap and trims immediately if needed.
func (c *Cache) SetLimit(limit uint) {
	c.mu.Lock()
	if c.limit == limit {
		c.mu.Unlock()
		return
	}
	before := len(c.entries)
	c.limit = limit
	c.trim()
	trimmed := len(c.entries) != before
	snap := c.snapshot()
	c.mu.Unlock()
	if trimmed {
		c.save(snap)
	}
}

// List returns a copy of the entries, oldest first.
func (c *Cache) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Limit() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limit
}

// trim drops the oldest entries; caller holds c.mu.
func (c *Cache) trim() {
	if n := uint(len(c.entries)); n > c.limit {
		c.entries = append([]Entry(nil), c.entries[n-c.limit:]...)
	}
}

// snapshot copies the entries; caller holds c.mu.
func (c *Cache) snapshot() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cache) save(entries []Entry) {
	if c.persist != nil {
		c.persist(entries)
	}
}
