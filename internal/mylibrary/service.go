package mylibrary

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// Service wraps membership mutations in the optimistic-update protocol.
// Capacity and duplicate violations are rejected by the cache before any
// network round-trip. Mutations on the single membership list serialize
// on one mutex.
type Service struct {
	api    domain.MyLibraryAPI
	cache  *Cache
	logger *slog.Logger

	mu sync.Mutex
}

// NewService creates a new membership service.
func NewService(api domain.MyLibraryAPI, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, cache: cache, logger: logger}
}

// Cache exposes the underlying cache for read accessors.
func (s *Service) Cache() *Cache { return s.cache }

// Add registers a home library. Local invariant violations
// (ErrCapacityExceeded, ErrDuplicateMember) fail before the remote call
// with zero side effects; a remote failure rolls the list back.
func (s *Service) Add(ctx context.Context, lib domain.Library) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cache.List()

	if err := s.cache.Add(lib); err != nil {
		return err
	}

	if err := s.api.AddMyLibrary(ctx, lib.ID); err != nil {
		s.cache.ReplaceAll(snapshot)
		s.logger.Error("library add sync failed", "libraryID", lib.ID, "error", err)
		return err
	}
	s.logger.Debug("library added", "libraryID", lib.ID)
	return nil
}

// Remove unregisters a home library. Removing an absent ID is a no-op and
// issues no remote call.
func (s *Service) Remove(ctx context.Context, libraryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cache.Has(libraryID) {
		return nil
	}
	snapshot := s.cache.List()
	s.cache.Remove(libraryID)

	if err := s.api.RemoveMyLibrary(ctx, libraryID); err != nil {
		s.cache.ReplaceAll(snapshot)
		s.logger.Error("library remove sync failed", "libraryID", libraryID, "error", err)
		return err
	}
	s.logger.Debug("library removed", "libraryID", libraryID)
	return nil
}

// Reorder replaces the membership order. The server's response is
// authoritative on success; the previous order is restored on failure.
func (s *Service) Reorder(ctx context.Context, libs []domain.Library) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cache.List()

	if err := s.cache.Reorder(libs); err != nil {
		return err
	}

	ids := make([]string, len(libs))
	for i, lib := range libs {
		ids[i] = lib.ID
	}

	server, err := s.api.ReorderMyLibraries(ctx, ids)
	if err != nil {
		s.cache.ReplaceAll(snapshot)
		s.logger.Error("library reorder sync failed", "error", err)
		return err
	}
	s.cache.ReplaceAll(server)
	return nil
}

// Refresh replaces the list with server truth.
func (s *Service) Refresh(ctx context.Context) error {
	libs, err := s.api.ListMyLibraries(ctx)
	if err != nil {
		s.logger.Error("failed to fetch home libraries", "error", err)
		return err
	}
	s.mu.Lock()
	s.cache.ReplaceAll(libs)
	s.mu.Unlock()
	s.logger.Debug("refreshed home libraries", "count", len(libs))
	return nil
}
