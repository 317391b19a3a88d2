// Package search provides local fuzzy filtering over cached data: shelf
// records and catalog results already in memory. Remote keyword search
// lives in the API client; this package only narrows what the view layer
// is showing.
package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// BookMatch is a filtered book with match metadata for highlighting.
type BookMatch struct {
	Book           domain.Book
	MatchedIndexes []int
	Score          int
}

// bookSource adapts a book slice to fuzzy.Source, matching on
// "title author".
type bookSource struct {
	books  []domain.Book
	labels []string
}

func (s bookSource) String(i int) string { return s.labels[i] }
func (s bookSource) Len() int            { return len(s.books) }

// FilterBooks narrows books by a filter-as-you-type query, best match
// first. An empty query returns nil.
func FilterBooks(query string, books []domain.Book) []BookMatch {
	query = strings.TrimSpace(query)
	if query == "" || len(books) == 0 {
		return nil
	}

	src := bookSource{books: books, labels: make([]string, len(books))}
	for i, b := range books {
		src.labels[i] = strings.ToLower(b.Title + " " + b.Author)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), src)
	out := make([]BookMatch, len(matches))
	for i, m := range matches {
		out[i] = BookMatch{
			Book:           books[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// ShelfEntry pairs a reading record with the book title used for
// matching, since records carry only the book ID.
type ShelfEntry struct {
	Record domain.ReadingRecord
	Title  string
}

// FilterShelf narrows shelf entries by title, closest match first.
// Matching is rank-based and fold-insensitive. An empty query returns
// the entries unchanged.
func FilterShelf(query string, entries []ShelfEntry) []ShelfEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}

	ranks := lfuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	out := make([]ShelfEntry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}

// FilterLibraries narrows discovery results by name or address.
func FilterLibraries(query string, libs []domain.Library) []domain.Library {
	query = strings.TrimSpace(query)
	if query == "" {
		return libs
	}
	var out []domain.Library
	for _, lib := range libs {
		if lfuzzy.MatchNormalizedFold(query, lib.Name) || lfuzzy.MatchNormalizedFold(query, lib.Address) {
			out = append(out, lib)
		}
	}
	return out
}
