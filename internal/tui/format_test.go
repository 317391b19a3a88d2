package tui

import (
	"testing"

	"github.com/mwhitten/shelfmark/internal/domain"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "Mar 1, 2024"},
		{"2023-12-25T10:30:00Z", "Dec 25, 2023"},
		{"", ""},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatStars(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{0, ""},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
		{9, "★★★★★"},
	}
	for _, tt := range tests {
		if got := FormatStars(tt.rating); got != tt.want {
			t.Errorf("FormatStars(%d) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestStateLabel(t *testing.T) {
	if got := StateLabel(domain.StateWishlist); got != "Want to read" {
		t.Errorf("StateLabel(WISHLIST) = %q", got)
	}
	if got := StateLabel(domain.StateRead); got != "Finished" {
		t.Errorf("StateLabel(READ) = %q", got)
	}
	if got := StateLabel("BOGUS"); got != "BOGUS" {
		t.Errorf("unknown state = %q", got)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, ""},
		{0.4, "<1 km"},
		{2.0, "2 km"},
		{3.7, "3.7 km"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.km); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}
