package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
)

// FormatDate renders an ISO date for display, passing through anything it
// cannot parse.
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, iso); err != nil {
			return iso
		}
	}
	return t.Format("Jan 2, 2006")
}

// FormatStars renders a 1-5 rating as filled and empty stars. Unrated
// records render as empty.
func FormatStars(rating int) string {
	if rating <= 0 {
		return ""
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// StateLabel is the human name for a reading state.
func StateLabel(state domain.ReadingState) string {
	switch state {
	case domain.StateWishlist:
		return "Want to read"
	case domain.StateReading:
		return "Reading"
	case domain.StateRead:
		return "Finished"
	}
	return string(state)
}

// stateGlyph is the single-character badge shown in shelf rows.
func stateGlyph(state domain.ReadingState) string {
	switch state {
	case domain.StateWishlist:
		return "○"
	case domain.StateReading:
		return "◐"
	case domain.StateRead:
		return "●"
	}
	return "?"
}

// FormatDistance renders a discovery-result distance.
func FormatDistance(km float64) string {
	if km <= 0 {
		return ""
	}
	if km < 1 {
		return "<1 km"
	}
	s := strconv.FormatFloat(km, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " km"
}
