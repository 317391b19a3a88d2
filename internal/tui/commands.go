package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/session"
	"github.com/mwhitten/shelfmark/internal/shelf"
)

// Command factories for async operations

// RefreshShelfCmd refetches the full reading-record list
func RefreshShelfCmd(svc *shelf.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.Refresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "refreshing shelf"}
		}
		return ShelfRefreshedMsg{}
	}
}

// RefreshLibrariesCmd refetches the home-library list
func RefreshLibrariesCmd(svc *mylibrary.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.Refresh(ctx); err != nil {
			return ErrMsg{Err: err, Context: "refreshing libraries"}
		}
		return nil
	}
}

// SearchBooksCmd runs a catalog keyword search
func SearchBooksCmd(api domain.CatalogAPI, query string, page, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := api.SearchBooks(ctx, query, page, pageSize)
		if err != nil {
			return ErrMsg{Err: err, Context: "searching books"}
		}
		return SearchResultsMsg{Result: result, Query: query, Append: page > 1}
	}
}

// PopularBooksCmd loads the popular rail shown before any search
func PopularBooksCmd(api domain.CatalogAPI, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		books, err := api.PopularBooks(ctx, "month", limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading popular books"}
		}
		return PopularBooksMsg{Books: books}
	}
}

// LoadBookCmd fetches full details for one book
func LoadBookCmd(api domain.CatalogAPI, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		book, err := api.GetBook(ctx, bookID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading book"}
		}
		return BookLoadedMsg{Book: book}
	}
}

// LoadAvailabilityCmd fetches holdings at the user's home libraries
func LoadAvailabilityCmd(api domain.CatalogAPI, bookID string, libraryIDs []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		avail, err := api.GetAvailability(ctx, bookID, libraryIDs)
		if err != nil {
			return ErrMsg{Err: err, Context: "checking availability"}
		}
		return AvailabilityLoadedMsg{BookID: bookID, Availability: avail}
	}
}

// SetStateCmd applies a reading-state change through the sync layer
func SetStateCmd(svc *shelf.Service, bookID string, upd domain.ReadingUpdate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		rec, err := svc.SetState(ctx, bookID, upd)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating reading state"}
		}
		return RecordSavedMsg{Record: rec}
	}
}

// LookupRecordCmd refreshes one record from the server; the cache merge
// surfaces through the change bridge, so success needs no message.
func LookupRecordCmd(svc *shelf.Service, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if _, _, err := svc.Lookup(ctx, bookID); err != nil {
			return ErrMsg{Err: err, Context: "checking reading state"}
		}
		return nil
	}
}

// RemoveRecordCmd deletes a record through the sync layer
func RemoveRecordCmd(svc *shelf.Service, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.Remove(ctx, bookID); err != nil {
			return ErrMsg{Err: err, Context: "removing record"}
		}
		return RecordRemovedMsg{BookID: bookID}
	}
}

// AddLibraryCmd registers a home library
func AddLibraryCmd(svc *mylibrary.Service, lib domain.Library) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.Add(ctx, lib); err != nil {
			return ErrMsg{Err: err, Context: "adding library"}
		}
		return LibraryAddedMsg{Library: lib}
	}
}

// RemoveLibraryCmd removes a home library
func RemoveLibraryCmd(svc *mylibrary.Service, libraryID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.Remove(ctx, libraryID); err != nil {
			return ErrMsg{Err: err, Context: "removing library"}
		}
		return LibraryRemovedMsg{LibraryID: libraryID}
	}
}

// ReorderLibrariesCmd replaces the membership order
func ReorderLibrariesCmd(svc *mylibrary.Service, libs []domain.Library) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.Reorder(ctx, libs); err != nil {
			return ErrMsg{Err: err, Context: "reordering libraries"}
		}
		return nil
	}
}

// DiscoverLibrariesCmd runs a library keyword search
func DiscoverLibrariesCmd(api domain.CatalogAPI, keyword string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		libs, err := api.SearchLibraries(ctx, keyword)
		if err != nil {
			return ErrMsg{Err: err, Context: "searching libraries"}
		}
		return LibraryDiscoveryMsg{Libraries: libs, Keyword: keyword}
	}
}

// LogoutCmd ends the session and clears local state
func LogoutCmd(svc *session.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := svc.Logout(ctx); err != nil {
			return ErrMsg{Err: err, Context: "signing out"}
		}
		return LoggedOutMsg{}
	}
}

// ClearStatusCmd clears the status bar after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
