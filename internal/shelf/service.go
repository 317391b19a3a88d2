package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// Service wraps reading-record cache mutations in an optimistic-update
// protocol against the backend API: snapshot, apply locally, call remote,
// then reconcile with the server copy or roll back to the snapshot.
type Service struct {
	api    domain.ReadingAPI
	cache  *Cache
	logger *slog.Logger
	locks  keyedLocks

	now func() time.Time
}

// NewService creates a new reading-record service.
func NewService(api domain.ReadingAPI, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, cache: cache, logger: logger, now: time.Now}
}

// Cache exposes the underlying cache for read accessors and derived
// queries.
func (s *Service) Cache() *Cache { return s.cache }

// SetState creates or updates the record for a book. The update is
// applied to the cache immediately; on remote success the server copy
// replaces the optimistic guess, on failure the pre-mutation state is
// restored and the error returned.
func (s *Service) SetState(ctx context.Context, bookID string, upd domain.ReadingUpdate) (domain.ReadingRecord, error) {
	if bookID == "" {
		return domain.ReadingRecord{}, fmt.Errorf("book id is required")
	}
	if !upd.State.Valid() {
		return domain.ReadingRecord{}, fmt.Errorf("unknown reading state %q", upd.State)
	}
	if upd.Rating < 0 || upd.Rating > 5 {
		return domain.ReadingRecord{}, fmt.Errorf("rating %d out of range", upd.Rating)
	}
	if len(upd.Comment) > domain.MaxCommentLength {
		return domain.ReadingRecord{}, fmt.Errorf("comment exceeds %d characters", domain.MaxCommentLength)
	}

	unlock := s.locks.lock(bookID)
	defer unlock()

	prev, had := s.cache.Get(bookID)

	// Apply optimistically before the round-trip.
	optimistic := s.buildOptimistic(bookID, prev, had, upd)
	s.cache.Upsert(optimistic)

	server, err := s.pushState(ctx, bookID, prev, had, upd)
	if err != nil {
		// Restore the snapshot taken before this mutation.
		if had {
			s.cache.Upsert(prev)
		} else {
			s.cache.Remove(bookID)
		}
		s.logger.Error("reading state sync failed", "bookID", bookID, "error", err)
		return domain.ReadingRecord{}, err
	}

	// Server response wins over the optimistic guess.
	if server.BookID == "" {
		server.BookID = bookID
	}
	s.cache.Upsert(server)
	s.logger.Debug("reading state synced", "bookID", bookID, "state", server.State)
	return server, nil
}

// Remove deletes the record for a book. A record the server never
// persisted is deleted locally without a remote call; removing an absent
// record is a no-op.
func (s *Service) Remove(ctx context.Context, bookID string) error {
	unlock := s.locks.lock(bookID)
	defer unlock()

	prev, had := s.cache.Get(bookID)
	if !had {
		return nil
	}

	s.cache.Remove(bookID)

	if !prev.Synced() {
		// Pending creation, nothing to delete remotely.
		return nil
	}

	if err := s.api.DeleteReadingRecord(ctx, prev.RemoteID); err != nil {
		s.cache.Upsert(prev)
		s.logger.Error("reading state delete failed", "bookID", bookID, "error", err)
		return err
	}
	return nil
}

// Refresh replaces the cache with server truth.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.api.ListReadingRecords(ctx, "")
	if err != nil {
		s.logger.Error("failed to fetch reading records", "error", err)
		return err
	}
	s.cache.ReplaceAll(records)
	s.logger.Debug("refreshed reading records", "count", len(records))
	return nil
}

// Lookup fetches the server record for one book and merges it into the
// cache. A missing record is an absent result, not an error.
func (s *Service) Lookup(ctx context.Context, bookID string) (domain.ReadingRecord, bool, error) {
	rec, ok, err := s.api.GetReadingRecord(ctx, bookID)
	if err != nil {
		return domain.ReadingRecord{}, false, err
	}
	if !ok {
		return domain.ReadingRecord{}, false, nil
	}
	unlock := s.locks.lock(bookID)
	s.cache.Upsert(rec)
	unlock()
	return rec, true, nil
}

func (s *Service) buildOptimistic(bookID string, prev domain.ReadingRecord, had bool, upd domain.ReadingUpdate) domain.ReadingRecord {
	now := s.now()
	rec := domain.ReadingRecord{
		BookID:    bookID,
		State:     upd.State,
		Rating:    upd.Rating,
		Comment:   upd.Comment,
		StartDate: upd.StartDate,
		EndDate:   upd.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if had {
		rec.CreatedAt = prev.CreatedAt
		rec.RemoteID = prev.RemoteID
	}
	return rec
}

// pushState issues the remote mutation. Records the server already knows
// are updated in place; otherwise a record is created and, unless the
// requested fields match a fresh record's defaults, updated with them in
// a follow-up call. A failed follow-up removes the orphaned server record
// best-effort so retrying does not conflict.
func (s *Service) pushState(ctx context.Context, bookID string, prev domain.ReadingRecord, had bool, upd domain.ReadingUpdate) (domain.ReadingRecord, error) {
	if had && prev.Synced() {
		return s.api.UpdateReadingRecord(ctx, prev.RemoteID, upd)
	}

	created, err := s.api.CreateReadingRecord(ctx, bookID)
	if err != nil {
		return domain.ReadingRecord{}, err
	}
	if upd.IsDefault() {
		return created, nil
	}

	server, err := s.api.UpdateReadingRecord(ctx, created.RemoteID, upd)
	if err != nil {
		if delErr := s.api.DeleteReadingRecord(ctx, created.RemoteID); delErr != nil {
			s.logger.Warn("failed to clean up partially created record",
				"bookID", bookID, "remoteID", created.RemoteID, "error", delErr)
		}
		return domain.ReadingRecord{}, err
	}
	return server, nil
}
