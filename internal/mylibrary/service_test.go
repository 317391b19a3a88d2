package mylibrary

import (
	"context"
	"errors"
	"testing"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/log"
)

type libraryAPIFake struct {
	listFn    func(ctx context.Context) ([]domain.Library, error)
	addFn     func(ctx context.Context, libraryID string) error
	removeFn  func(ctx context.Context, libraryID string) error
	reorderFn func(ctx context.Context, libraryIDs []string) ([]domain.Library, error)

	addCalls    int
	removeCalls int
}

func (f *libraryAPIFake) ListMyLibraries(ctx context.Context) ([]domain.Library, error) {
	return f.listFn(ctx)
}
func (f *libraryAPIFake) AddMyLibrary(ctx context.Context, libraryID string) error {
	f.addCalls++
	return f.addFn(ctx, libraryID)
}
func (f *libraryAPIFake) RemoveMyLibrary(ctx context.Context, libraryID string) error {
	f.removeCalls++
	return f.removeFn(ctx, libraryID)
}
func (f *libraryAPIFake) ReorderMyLibraries(ctx context.Context, libraryIDs []string) ([]domain.Library, error) {
	return f.reorderFn(ctx, libraryIDs)
}

func TestAddFullListFailsBeforeRemoteCall(t *testing.T) {
	api := &libraryAPIFake{
		addFn: func(_ context.Context, _ string) error { return nil },
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1"), lib("L2"), lib("L3")})

	err := s.Add(context.Background(), lib("L4"))
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if api.addCalls != 0 {
		t.Fatalf("remote add called %d times for a full list, want 0", api.addCalls)
	}
	if got := s.Cache().IDs(); len(got) != 3 || got[0] != "L1" {
		t.Fatalf("list mutated by rejected add: %v", got)
	}
}

func TestAddDuplicateFailsBeforeRemoteCall(t *testing.T) {
	api := &libraryAPIFake{
		addFn: func(_ context.Context, _ string) error { return nil },
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1")})

	if err := s.Add(context.Background(), lib("L1")); !errors.Is(err, domain.ErrDuplicateMember) {
		t.Fatalf("err = %v, want ErrDuplicateMember", err)
	}
	if api.addCalls != 0 {
		t.Fatalf("remote add called %d times for a duplicate, want 0", api.addCalls)
	}
}

func TestAddRollsBackOnRemoteFailure(t *testing.T) {
	api := &libraryAPIFake{
		addFn: func(_ context.Context, _ string) error { return domain.ErrRemoteUnavailable },
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1")})

	if err := s.Add(context.Background(), lib("L2")); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
	if s.Cache().Has("L2") {
		t.Fatal("optimistic add survived a remote failure")
	}
}

func TestRemoveAbsentSkipsRemote(t *testing.T) {
	api := &libraryAPIFake{
		removeFn: func(_ context.Context, _ string) error { return nil },
	}
	s := NewService(api, NewCache(), log.NullLogger())

	if err := s.Remove(context.Background(), "missing"); err != nil {
		t.Fatalf("Remove of absent library: %v", err)
	}
	if api.removeCalls != 0 {
		t.Fatalf("remote remove called %d times for an absent library, want 0", api.removeCalls)
	}
}

func TestRemoveRollsBackOnRemoteFailure(t *testing.T) {
	api := &libraryAPIFake{
		removeFn: func(_ context.Context, _ string) error {
			return domain.NewRemoteError(500, "")
		},
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1"), lib("L2")})

	err := s.Remove(context.Background(), "L1")
	if !domain.IsRemoteRejection(err) {
		t.Fatalf("err = %v, want remote rejection", err)
	}
	if got := s.Cache().IDs(); len(got) != 2 || got[0] != "L1" {
		t.Fatalf("list after rollback = %v, want original order", got)
	}
}

func TestReorderServerWins(t *testing.T) {
	server := []domain.Library{lib("L2"), lib("L1")}
	api := &libraryAPIFake{
		reorderFn: func(_ context.Context, ids []string) ([]domain.Library, error) {
			if len(ids) != 2 || ids[0] != "L2" {
				t.Fatalf("reorder sent %v", ids)
			}
			return server, nil
		},
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1"), lib("L2")})

	if err := s.Reorder(context.Background(), []domain.Library{lib("L2"), lib("L1")}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := s.Cache().IDs(); got[0] != "L2" || got[1] != "L1" {
		t.Fatalf("order = %v", got)
	}
}

func TestReorderRollsBackOnRemoteFailure(t *testing.T) {
	api := &libraryAPIFake{
		reorderFn: func(_ context.Context, _ []string) ([]domain.Library, error) {
			return nil, domain.ErrRemoteUnavailable
		},
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1"), lib("L2")})

	if err := s.Reorder(context.Background(), []domain.Library{lib("L2"), lib("L1")}); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
	if got := s.Cache().IDs(); got[0] != "L1" || got[1] != "L2" {
		t.Fatalf("order after rollback = %v, want original", got)
	}
}

func TestRefreshReplacesList(t *testing.T) {
	api := &libraryAPIFake{
		listFn: func(_ context.Context) ([]domain.Library, error) {
			return []domain.Library{lib("L7")}, nil
		},
	}
	s := NewService(api, NewCache(), log.NullLogger())
	s.Cache().ReplaceAll([]domain.Library{lib("L1")})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.Cache().IDs(); len(got) != 1 || got[0] != "L7" {
		t.Fatalf("list = %v, want [L7]", got)
	}
}
