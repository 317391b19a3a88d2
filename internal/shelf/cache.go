package shelf

import (
	"sort"
	"sync"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// ChangeFunc receives a snapshot of all records after a cache mutation.
type ChangeFunc func(records []domain.ReadingRecord)

// Cache is the canonical in-memory copy of the user's reading records,
// keyed by book ID. At most one record exists per book; Upsert replaces
// by key. The durable mirror and the view layer observe mutations through
// OnChange hooks, which run outside the lock with a fresh snapshot.
type Cache struct {
	mu       sync.RWMutex
	records  map[string]domain.ReadingRecord
	onChange []ChangeFunc
}

// NewCache creates an empty reading-record cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]domain.ReadingRecord)}
}

// OnChange registers a hook invoked after every mutation. Hooks must not
// mutate the cache.
func (c *Cache) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Upsert inserts or replaces the record keyed by its BookID.
func (c *Cache) Upsert(rec domain.ReadingRecord) {
	c.mu.Lock()
	c.records[rec.BookID] = rec
	c.mu.Unlock()
	c.notify()
}

// Remove deletes the record for a book. Removing an absent book is a
// no-op and fires no change notification.
func (c *Cache) Remove(bookID string) {
	c.mu.Lock()
	_, ok := c.records[bookID]
	if ok {
		delete(c.records, bookID)
	}
	c.mu.Unlock()
	if ok {
		c.notify()
	}
}

// Get returns the record for a book.
func (c *Cache) Get(bookID string) (domain.ReadingRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[bookID]
	return rec, ok
}

// ByState returns all records in the given state, most recently touched
// first.
func (c *Cache) ByState(state domain.ReadingState) []domain.ReadingRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.ReadingRecord
	for _, rec := range c.records {
		if rec.State == state {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// Counts returns the number of records per reading state.
func (c *Cache) Counts() domain.StateCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var counts domain.StateCounts
	for _, rec := range c.records {
		switch rec.State {
		case domain.StateWishlist:
			counts.Wishlist++
		case domain.StateReading:
			counts.Reading++
		case domain.StateRead:
			counts.Read++
		}
	}
	return counts
}

// All returns a snapshot of every record, most recently touched first.
func (c *Cache) All() []domain.ReadingRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Len returns the number of tracked books.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Clear empties the cache. Invoked on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]domain.ReadingRecord)
	c.mu.Unlock()
	c.notify()
}

// ReplaceAll overwrites the cache with server truth.
func (c *Cache) ReplaceAll(records []domain.ReadingRecord) {
	c.mu.Lock()
	c.records = make(map[string]domain.ReadingRecord, len(records))
	for _, rec := range records {
		c.records[rec.BookID] = rec
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) snapshotLocked() []domain.ReadingRecord {
	out := make([]domain.ReadingRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

func (c *Cache) notify() {
	c.mu.RLock()
	hooks := c.onChange
	snapshot := c.snapshotLocked()
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(snapshot)
	}
}

func sortRecords(records []domain.ReadingRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].LastTouched(), records[j].LastTouched()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].BookID < records[j].BookID
	})
}
