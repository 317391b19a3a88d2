package mylibrary

import (
	"sync"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// ChangeFunc receives a snapshot of the membership list after a mutation.
type ChangeFunc func(libs []domain.Library)

// Cache is the canonical in-memory copy of the user's home libraries: an
// ordered list of at most domain.MaxMyLibraries entries with no duplicate
// IDs. Invariant violations are rejected before the list is touched.
type Cache struct {
	mu       sync.RWMutex
	libs     []domain.Library
	onChange []ChangeFunc
}

// NewCache creates an empty membership cache.
func NewCache() *Cache {
	return &Cache{}
}

// OnChange registers a hook invoked after every mutation. Hooks must not
// mutate the cache.
func (c *Cache) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Add appends a library. It fails with ErrDuplicateMember when the ID is
// already present and ErrCapacityExceeded when the list is full; in both
// cases the list is left untouched.
func (c *Cache) Add(lib domain.Library) error {
	c.mu.Lock()
	for _, existing := range c.libs {
		if existing.ID == lib.ID {
			c.mu.Unlock()
			return domain.ErrDuplicateMember
		}
	}
	if len(c.libs) >= domain.MaxMyLibraries {
		c.mu.Unlock()
		return domain.ErrCapacityExceeded
	}
	c.libs = append(c.libs, lib)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Remove deletes a library by ID. Removing an absent ID is a no-op.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	idx := -1
	for i, lib := range c.libs {
		if lib.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.libs = append(c.libs[:idx], c.libs[idx+1:]...)
	c.mu.Unlock()
	c.notify()
}

// Reorder replaces the list wholesale in the caller-supplied order. It
// fails with ErrCapacityExceeded when the new list is over the limit.
func (c *Cache) Reorder(libs []domain.Library) error {
	if len(libs) > domain.MaxMyLibraries {
		return domain.ErrCapacityExceeded
	}
	c.mu.Lock()
	c.libs = cloneLibs(libs)
	c.mu.Unlock()
	c.notify()
	return nil
}

// ReplaceAll overwrites the list with server truth, truncating to the
// capacity limit defensively.
func (c *Cache) ReplaceAll(libs []domain.Library) {
	if len(libs) > domain.MaxMyLibraries {
		libs = libs[:domain.MaxMyLibraries]
	}
	c.mu.Lock()
	c.libs = cloneLibs(libs)
	c.mu.Unlock()
	c.notify()
}

// Has reports whether a library ID is registered.
func (c *Cache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, lib := range c.libs {
		if lib.ID == id {
			return true
		}
	}
	return false
}

// List returns a copy of the membership list in order.
func (c *Cache) List() []domain.Library {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLibs(c.libs)
}

// IDs returns the library IDs in order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, len(c.libs))
	for i, lib := range c.libs {
		ids[i] = lib.ID
	}
	return ids
}

// Len returns the number of registered libraries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.libs)
}

// CanAdd reports whether another library fits within the limit.
func (c *Cache) CanAdd() bool {
	return c.Len() < domain.MaxMyLibraries
}

// Clear empties the list. Invoked on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.libs = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) notify() {
	c.mu.RLock()
	hooks := c.onChange
	snapshot := cloneLibs(c.libs)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(snapshot)
	}
}

func cloneLibs(libs []domain.Library) []domain.Library {
	if len(libs) == 0 {
		return nil
	}
	dup := make([]domain.Library, len(libs))
	copy(dup, libs)
	return dup
}
