// Package stats holds derived view queries: pure, stateless projections
// over a snapshot of reading records. Callers pass the snapshot
// explicitly so the queries work anywhere a slice of records exists,
// including tests, without the caches themselves.
package stats

import (
	"sort"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// StatusCounts returns the number of records per reading state.
func StatusCounts(records []domain.ReadingRecord) domain.StateCounts {
	var counts domain.StateCounts
	for _, rec := range records {
		switch rec.State {
		case domain.StateWishlist:
			counts.Wishlist++
		case domain.StateReading:
			counts.Reading++
		case domain.StateRead:
			counts.Read++
		}
	}
	return counts
}

// AverageRating returns the mean star rating over finished books that
// have one. Unrated books count toward neither numerator nor denominator.
// ok is false when no finished book is rated.
func AverageRating(records []domain.ReadingRecord) (avg float64, ok bool) {
	var sum, n int
	for _, rec := range records {
		if rec.State != domain.StateRead || !rec.Rated() {
			continue
		}
		sum += rec.Rating
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// MonthBucket is one month's completion count.
type MonthBucket struct {
	Year  int
	Month time.Month
	Count int
}

// MonthlyCompletions buckets finished books by end date into the `months`
// calendar months ending at ref's month, oldest bucket first. Records
// without a parseable end date contribute to no bucket.
func MonthlyCompletions(records []domain.ReadingRecord, ref time.Time, months int) []MonthBucket {
	if months <= 0 {
		return nil
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	buckets := make([]MonthBucket, months)
	index := make(map[string]int, months)
	for i := range buckets {
		m := first.AddDate(0, i, 0)
		buckets[i] = MonthBucket{Year: m.Year(), Month: m.Month()}
		index[m.Format("2006-01")] = i
	}

	for _, rec := range records {
		if rec.State != domain.StateRead || rec.EndDate == "" {
			continue
		}
		end, err := parseDate(rec.EndDate)
		if err != nil {
			continue
		}
		if i, ok := index[end.Format("2006-01")]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// CompletedInYear counts books finished in the given calendar year.
func CompletedInYear(records []domain.ReadingRecord, year int) int {
	var n int
	for _, rec := range records {
		if rec.State != domain.StateRead || rec.EndDate == "" {
			continue
		}
		if end, err := parseDate(rec.EndDate); err == nil && end.Year() == year {
			n++
		}
	}
	return n
}

// CategoryBreakdown counts records per book category. The category comes
// from a caller-supplied resolver since records carry no book metadata;
// books the resolver cannot place are grouped under "unknown".
func CategoryBreakdown(records []domain.ReadingRecord, categoryOf func(bookID string) (string, bool)) map[string]int {
	out := make(map[string]int)
	for _, rec := range records {
		category, ok := categoryOf(rec.BookID)
		if !ok || category == "" {
			category = "unknown"
		}
		out[category]++
	}
	return out
}

// RecentNotes returns reading and finished books with a non-empty
// comment, most recently touched first, truncated to limit.
func RecentNotes(records []domain.ReadingRecord, limit int) []domain.ReadingRecord {
	var out []domain.ReadingRecord
	for _, rec := range records {
		if rec.Comment == "" {
			continue
		}
		if rec.State != domain.StateRead && rec.State != domain.StateReading {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].LastTouched(), out[j].LastTouched()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].BookID < out[j].BookID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// parseDate accepts bare ISO dates and full RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
