package domain

import "context"

// CatalogAPI provides read access to the book and library catalog.
// Reads are idempotent; the HTTP client may retry them.
type CatalogAPI interface {
	// SearchBooks runs a paginated keyword search. page starts at 1.
	SearchBooks(ctx context.Context, query string, page, pageSize int) (BookSearchResult, error)

	// GetBook returns detail for one book. Missing books yield ErrNotFound.
	GetBook(ctx context.Context, id string) (Book, error)

	// GetAvailability returns per-library loan status for a book. With no
	// libraryIDs the server scopes to the user's home libraries.
	GetAvailability(ctx context.Context, bookID string, libraryIDs []string) ([]Availability, error)

	// PopularBooks returns the most-borrowed books for a period
	// ("week", "month" or "year").
	PopularBooks(ctx context.Context, period string, limit int) ([]Book, error)

	// NewBooks returns recent additions, optionally scoped to a category.
	NewBooks(ctx context.Context, category string, limit int) ([]Book, error)

	// SearchLibraries finds libraries by keyword for the add flow.
	SearchLibraries(ctx context.Context, keyword string) ([]Library, error)
}

// AuthAPI handles account lifecycle calls.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (Session, error)
	Signup(ctx context.Context, req SignupRequest) (User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (User, error)
}

// MyLibraryAPI manages the server-side copy of the user's home libraries.
type MyLibraryAPI interface {
	ListMyLibraries(ctx context.Context) ([]Library, error)
	AddMyLibrary(ctx context.Context, libraryID string) error
	RemoveMyLibrary(ctx context.Context, libraryID string) error

	// ReorderMyLibraries replaces the server-side ordering and returns the
	// authoritative list.
	ReorderMyLibraries(ctx context.Context, libraryIDs []string) ([]Library, error)
}

// ReadingAPI manages the server-side copy of reading records.
type ReadingAPI interface {
	// ListReadingRecords returns all records, or only those in state when
	// state is non-empty.
	ListReadingRecords(ctx context.Context, state ReadingState) ([]ReadingRecord, error)

	// GetReadingRecord looks up the record for a book. A missing record is
	// reported as (zero, false, nil), not as an error.
	GetReadingRecord(ctx context.Context, bookID string) (ReadingRecord, bool, error)

	// CreateReadingRecord creates a record in the default WISHLIST state
	// and returns the server copy including its RemoteID.
	CreateReadingRecord(ctx context.Context, bookID string) (ReadingRecord, error)

	// UpdateReadingRecord replaces the user-editable fields of a persisted
	// record and returns the authoritative server copy.
	UpdateReadingRecord(ctx context.Context, remoteID string, upd ReadingUpdate) (ReadingRecord, error)

	DeleteReadingRecord(ctx context.Context, remoteID string) error
}

// Mirror is the durable local copy of both caches. It exists only to
// survive restarts: it is read once at startup and written on every cache
// change, and is never consulted again while the process is live.
type Mirror interface {
	ReadingRecords() ([]ReadingRecord, bool)
	SaveReadingRecords(records []ReadingRecord) error

	MyLibraries() ([]Library, bool)
	SaveMyLibraries(libs []Library) error

	Clear() error
	Close() error
}
