package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketRecords   = []byte("reading_records")
	bucketLibraries = []byte("my_libraries")
)

const listKey = "list"

// Ensure MirrorStore implements domain.Mirror at compile time.
var _ domain.Mirror = (*MirrorStore)(nil)

// MirrorStore implements domain.Mirror using BoltDB. It is a durable copy
// of the in-memory caches, read once at startup to seed them and written
// on every cache change. It is never a source of truth while a session is
// live.
type MirrorStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewMirrorStore opens the mirror under baseDir. An empty baseDir yields
// a memory-only mirror with no persistence, which tests use.
func NewMirrorStore(baseDir string) (*MirrorStore, error) {
	if baseDir == "" {
		return &MirrorStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(baseDir, "shelfmark.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketLibraries} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &MirrorStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *MirrorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *MirrorStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *MirrorStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// === Reading records ===

func (s *MirrorStore) ReadingRecords() ([]domain.ReadingRecord, bool) {
	var records []domain.ReadingRecord
	ok := s.get(bucketRecords, listKey, &records)
	return records, ok
}

func (s *MirrorStore) SaveReadingRecords(records []domain.ReadingRecord) error {
	return s.set(bucketRecords, listKey, records)
}

// === Home libraries ===

func (s *MirrorStore) MyLibraries() ([]domain.Library, bool) {
	var libs []domain.Library
	ok := s.get(bucketLibraries, listKey, &libs)
	return libs, ok
}

func (s *MirrorStore) SaveMyLibraries(libs []domain.Library) error {
	return s.set(bucketLibraries, listKey, libs)
}

// Clear wipes all mirrored data. Invoked on sign-out.
func (s *MirrorStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketLibraries} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
