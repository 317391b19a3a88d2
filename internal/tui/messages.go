package tui

import (
	"github.com/mwhitten/shelfmark/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ShelfRefreshedMsg signals that the reading records were refetched
type ShelfRefreshedMsg struct{}

// ShelfChangedMsg carries a cache snapshot after any record mutation
type ShelfChangedMsg struct {
	Records []domain.ReadingRecord
}

// MyLibrariesChangedMsg carries a cache snapshot after any membership mutation
type MyLibrariesChangedMsg struct {
	Libraries []domain.Library
}

// SearchResultsMsg signals that catalog search results are ready
type SearchResultsMsg struct {
	Result domain.BookSearchResult
	Query  string
	Append bool // true for follow-up pages
}

// PopularBooksMsg carries the popular-books rail for the empty search view
type PopularBooksMsg struct {
	Books []domain.Book
}

// BookLoadedMsg signals that book details arrived
type BookLoadedMsg struct {
	Book domain.Book
}

// AvailabilityLoadedMsg signals that per-library holdings arrived
type AvailabilityLoadedMsg struct {
	BookID       string
	Availability []domain.Availability
}

// RecordSavedMsg signals a reading-state mutation was accepted
type RecordSavedMsg struct {
	Record domain.ReadingRecord
}

// RecordRemovedMsg signals a record deletion was accepted
type RecordRemovedMsg struct {
	BookID string
}

// LibraryAddedMsg signals a home-library registration was accepted
type LibraryAddedMsg struct {
	Library domain.Library
}

// LibraryRemovedMsg signals a home-library removal was accepted
type LibraryRemovedMsg struct {
	LibraryID string
}

// LibraryDiscoveryMsg signals library keyword-search results are ready
type LibraryDiscoveryMsg struct {
	Libraries []domain.Library
	Keyword   string
}

// LoggedOutMsg signals the session ended locally
type LoggedOutMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
