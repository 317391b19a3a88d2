package domain

import "time"

// MaxMyLibraries is the upper bound on the user's home libraries.
const MaxMyLibraries = 3

// ReadingState describes the user's relationship to a book.
type ReadingState string

const (
	StateWishlist ReadingState = "WISHLIST"
	StateReading  ReadingState = "READING"
	StateRead     ReadingState = "READ"
)

// Valid reports whether s is one of the three known states.
func (s ReadingState) Valid() bool {
	switch s {
	case StateWishlist, StateReading, StateRead:
		return true
	}
	return false
}

// Book holds catalog metadata returned by search and detail lookups.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Publisher   string  `json:"publisher"`
	PubYear     int     `json:"pubYear"`
	ISBN13      string  `json:"isbn13"`
	CoverURL    string  `json:"coverUrl,omitempty"`
	Rating      float64 `json:"rating,omitempty"` // community average, 1-5
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Pages       int     `json:"pages,omitempty"`
}

// BookSearchResult is one page of catalog search results.
type BookSearchResult struct {
	Books      []Book `json:"books"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// HasNextPage reports whether more pages follow the current one.
func (r BookSearchResult) HasNextPage() bool {
	if r.PageSize <= 0 {
		return false
	}
	return r.Page*r.PageSize < r.TotalCount
}

// Library describes a public library, either a discovery result or a
// member of the user's home list.
type Library struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Phone      string  `json:"phone,omitempty"`
	Homepage   string  `json:"homepage,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	DistanceKm float64 `json:"distanceKm,omitempty"` // from the user, discovery results only
}

// Availability is a per-library loan status for one book.
type Availability struct {
	LibraryID        string `json:"libraryId"`
	BookID           string `json:"bookId"`
	HasBook          bool   `json:"hasBook"`
	Available        bool   `json:"available"`
	AvailableCount   int    `json:"availableCount,omitempty"`
	TotalCount       int    `json:"totalCount,omitempty"`
	ReservationCount int    `json:"reservationCount,omitempty"`
	LastUpdated      string `json:"lastUpdated,omitempty"`
}

// ReadingRecord is the user's per-book reading state. At most one record
// exists per BookID. A record without a RemoteID has not been persisted
// by the server yet.
type ReadingRecord struct {
	BookID    string       `json:"bookId"`
	State     ReadingState `json:"state"`
	Rating    int          `json:"rating,omitempty"`  // 1-5, 0 = unrated
	Comment   string       `json:"comment,omitempty"` // free text review
	StartDate string       `json:"startDate,omitempty"` // ISO-8601 date (2006-01-02)
	EndDate   string       `json:"endDate,omitempty"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
	UpdatedAt time.Time    `json:"updatedAt,omitzero"`
	RemoteID  string       `json:"recordId,omitempty"`
}

// Synced reports whether the server has persisted this record.
func (r ReadingRecord) Synced() bool { return r.RemoteID != "" }

// Rated reports whether the user has set a star rating.
func (r ReadingRecord) Rated() bool { return r.Rating >= 1 && r.Rating <= 5 }

// LastTouched returns UpdatedAt, falling back to CreatedAt when the
// record has never been updated.
func (r ReadingRecord) LastTouched() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// MaxCommentLength bounds the free-text note on a reading record.
const MaxCommentLength = 1000

// ReadingUpdate carries the full set of user-editable record fields for a
// mutation. Reconciliation is whole-record: the update replaces the
// previous user-editable fields rather than patching them individually.
type ReadingUpdate struct {
	State     ReadingState `json:"state"`
	Rating    int          `json:"rating,omitempty"`
	Comment   string       `json:"comment,omitempty"`
	StartDate string       `json:"startDate,omitempty"`
	EndDate   string       `json:"endDate,omitempty"`
}

// IsDefault reports whether the update asks for nothing beyond the state
// a freshly created record already has.
func (u ReadingUpdate) IsDefault() bool {
	return u.State == StateWishlist && u.Rating == 0 && u.Comment == "" &&
		u.StartDate == "" && u.EndDate == ""
}

// StateCounts is the number of records per reading state.
type StateCounts struct {
	Wishlist int `json:"wishlist"`
	Reading  int `json:"reading"`
	Read     int `json:"read"`
}

// Total returns the total number of tracked books.
func (c StateCounts) Total() int { return c.Wishlist + c.Reading + c.Read }

// User is the signed-in account profile.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Gender   string `json:"gender,omitempty"`
	AgeGroup string `json:"ageGroup,omitempty"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nickname string `json:"nickname" validate:"required,min=2,max=20"`
	Gender   string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	AgeGroup string `json:"ageGroup,omitempty"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
