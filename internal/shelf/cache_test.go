package shelf

import (
	"testing"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
)

func TestUpsertReplacesByBookID(t *testing.T) {
	c := NewCache()

	c.Upsert(domain.ReadingRecord{BookID: "B1", State: domain.StateWishlist})
	c.Upsert(domain.ReadingRecord{
		BookID:  "B1",
		State:   domain.StateRead,
		Rating:  5,
		EndDate: "2024-03-01",
	})

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	rec, ok := c.Get("B1")
	if !ok {
		t.Fatal("Get(B1) missing")
	}
	if rec.State != domain.StateRead || rec.Rating != 5 {
		t.Fatalf("Get(B1) = %+v, want READ with rating 5", rec)
	}
	if got := c.ByState(domain.StateWishlist); len(got) != 0 {
		t.Fatalf("ByState(WISHLIST) = %v, want empty", got)
	}
	if got := c.ByState(domain.StateRead); len(got) != 1 || got[0].BookID != "B1" {
		t.Fatalf("ByState(READ) = %v, want [B1]", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := NewCache()
	c.Upsert(domain.ReadingRecord{BookID: "B1", State: domain.StateReading})

	c.Remove("B1")
	after := c.All()

	c.Remove("B1")
	if got := c.All(); len(got) != len(after) {
		t.Fatalf("second Remove changed state: %v vs %v", got, after)
	}
	if _, ok := c.Get("B1"); ok {
		t.Fatal("record still present after Remove")
	}
}

func TestCounts(t *testing.T) {
	c := NewCache()
	c.Upsert(domain.ReadingRecord{BookID: "B1", State: domain.StateWishlist})
	c.Upsert(domain.ReadingRecord{BookID: "B2", State: domain.StateWishlist})
	c.Upsert(domain.ReadingRecord{BookID: "B3", State: domain.StateReading})
	c.Upsert(domain.ReadingRecord{BookID: "B4", State: domain.StateRead})

	counts := c.Counts()
	want := domain.StateCounts{Wishlist: 2, Reading: 1, Read: 1}
	if counts != want {
		t.Fatalf("Counts() = %+v, want %+v", counts, want)
	}
	if counts.Total() != 4 {
		t.Fatalf("Total() = %d, want 4", counts.Total())
	}
}

func TestAllOrdersByLastTouched(t *testing.T) {
	c := NewCache()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Upsert(domain.ReadingRecord{BookID: "old", State: domain.StateRead, UpdatedAt: base})
	c.Upsert(domain.ReadingRecord{BookID: "new", State: domain.StateRead, UpdatedAt: base.Add(time.Hour)})
	c.Upsert(domain.ReadingRecord{BookID: "created-only", State: domain.StateRead, CreatedAt: base.Add(2 * time.Hour)})

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d records, want 3", len(all))
	}
	wantOrder := []string{"created-only", "new", "old"}
	for i, id := range wantOrder {
		if all[i].BookID != id {
			t.Fatalf("All()[%d] = %s, want %s", i, all[i].BookID, id)
		}
	}
}

func TestReplaceAllAndClear(t *testing.T) {
	c := NewCache()
	c.Upsert(domain.ReadingRecord{BookID: "stale", State: domain.StateWishlist})

	c.ReplaceAll([]domain.ReadingRecord{
		{BookID: "B1", State: domain.StateRead},
		{BookID: "B2", State: domain.StateReading},
	})
	if c.Len() != 2 {
		t.Fatalf("Len() = %d after ReplaceAll, want 2", c.Len())
	}
	if _, ok := c.Get("stale"); ok {
		t.Fatal("stale record survived ReplaceAll")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", c.Len())
	}
}

func TestOnChangeReceivesSnapshot(t *testing.T) {
	c := NewCache()
	var calls int
	var last []domain.ReadingRecord
	c.OnChange(func(records []domain.ReadingRecord) {
		calls++
		last = records
	})

	c.Upsert(domain.ReadingRecord{BookID: "B1", State: domain.StateReading})
	if calls != 1 || len(last) != 1 {
		t.Fatalf("after Upsert: calls=%d last=%v", calls, last)
	}

	// Removing an absent key must not notify.
	c.Remove("missing")
	if calls != 1 {
		t.Fatalf("Remove of absent key notified: calls=%d", calls)
	}

	c.Remove("B1")
	if calls != 2 || len(last) != 0 {
		t.Fatalf("after Remove: calls=%d last=%v", calls, last)
	}
}
