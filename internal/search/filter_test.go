package search

import (
	"testing"

	"github.com/mwhitten/shelfmark/internal/domain"
)

var books = []domain.Book{
	{ID: "B1", Title: "The Go Programming Language", Author: "Donovan"},
	{ID: "B2", Title: "Learning Python", Author: "Lutz"},
	{ID: "B3", Title: "Go in Action", Author: "Kennedy"},
}

func TestFilterBooksMatchesTitleAndAuthor(t *testing.T) {
	got := FilterBooks("kennedy", books)
	if len(got) != 1 || got[0].Book.ID != "B3" {
		t.Fatalf("author match = %v", got)
	}

	byTitle := FilterBooks("python", books)
	if len(byTitle) != 1 || byTitle[0].Book.ID != "B2" {
		t.Fatalf("title match = %v", byTitle)
	}
}

func TestFilterBooksRanksBestFirst(t *testing.T) {
	got := FilterBooks("go", books)
	if len(got) < 2 {
		t.Fatalf("got %d matches, want at least 2", len(got))
	}
	// A contiguous "Go" word beats scattered letters.
	if first := got[0].Book.ID; first != "B1" && first != "B3" {
		t.Fatalf("best match = %s", first)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("matches not sorted by score: %v", got)
		}
	}
}

func TestFilterBooksEmptyQuery(t *testing.T) {
	if got := FilterBooks("   ", books); got != nil {
		t.Fatalf("blank query returned %v", got)
	}
}

func TestFilterBooksCaseInsensitive(t *testing.T) {
	got := FilterBooks("GO IN ACTION", books)
	if len(got) == 0 || got[0].Book.ID != "B3" {
		t.Fatalf("matches = %v", got)
	}
}

func TestFilterShelfRanksClosestFirst(t *testing.T) {
	entries := []ShelfEntry{
		{Record: domain.ReadingRecord{BookID: "B1"}, Title: "The Go Programming Language"},
		{Record: domain.ReadingRecord{BookID: "B3"}, Title: "Go in Action"},
		{Record: domain.ReadingRecord{BookID: "B2"}, Title: "Learning Python"},
	}

	got := FilterShelf("go in action", entries)
	if len(got) == 0 || got[0].Record.BookID != "B3" {
		t.Fatalf("best match = %v", got)
	}
}

func TestFilterShelfEmptyQueryPassesThrough(t *testing.T) {
	entries := []ShelfEntry{{Record: domain.ReadingRecord{BookID: "B1"}, Title: "Dune"}}
	got := FilterShelf("", entries)
	if len(got) != 1 || got[0].Record.BookID != "B1" {
		t.Fatalf("got %v", got)
	}
}

func TestFilterLibrariesMatchesNameOrAddress(t *testing.T) {
	libs := []domain.Library{
		{ID: "L1", Name: "Central Library", Address: "12 Main St"},
		{ID: "L2", Name: "Riverside Branch", Address: "4 Harbor Rd"},
	}

	byName := FilterLibraries("central", libs)
	if len(byName) != 1 || byName[0].ID != "L1" {
		t.Fatalf("name match = %v", byName)
	}

	byAddr := FilterLibraries("harbor", libs)
	if len(byAddr) != 1 || byAddr[0].ID != "L2" {
		t.Fatalf("address match = %v", byAddr)
	}

	if got := FilterLibraries("", libs); len(got) != 2 {
		t.Fatalf("blank query = %v", got)
	}
}
