package oracle

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// ====================================================================
// Feed staleness and ordering
// ====================================================================

func newTestFeed(t *testing.T) (*Feed, *time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewFeed(DefaultStaleAfter, nil, zerolog.Nop())
	f.now = func() time.Time { return now }
	return f, &now
}

func TestFeed_EmptyFeedReadsInvalid(t *testing.T) {
	f, _ := newTestFeed(t)

	if _, ok := f.GetPrice(); ok {
		t.Fatal("expected invalid read before any tick")
	}
}

func TestFeed_FreshTickReadsValid(t *testing.T) {
	f, now := newTestFeed(t)

	if !f.Apply(PriceUpdate{Price: 1_080_000, Timestamp: *now}) {
		t.Fatal("expected tick to apply")
	}

	price, ok := f.GetPrice()
	if !ok {
		t.Fatal("expected valid read after tick")
	}
	if price != 1_080_000 {
		t.Errorf("price = %d, want 1080000", price)
	}
}

func TestFeed_StalePriceReadsInvalid(t *testing.T) {
	f, now := newTestFeed(t)

	f.Apply(PriceUpdate{Price: 1_080_000, Timestamp: *now})

	f.now = func() time.Time { return now.Add(DefaultStaleAfter + time.Second) }
	if _, ok := f.GetPrice(); ok {
		t.Fatal("expected invalid read after staleness window")
	}
}

func TestFeed_OutOfOrderTickIgnored(t *testing.T) {
	f, now := newTestFeed(t)

	f.Apply(PriceUpdate{Price: 1_080_000, Timestamp: *now})
	if f.Apply(PriceUpdate{Price: 1_050_000, Timestamp: now.Add(-time.Second)}) {
		t.Fatal("expected older tick to be ignored")
	}

	price, _ := f.GetPrice()
	if price != 1_080_000 {
		t.Errorf("price = %d, want 1080000 after out-of-order tick", price)
	}
}

func TestFeed_NonPositivePriceRejected(t *testing.T) {
	f, now := newTestFeed(t)

	if f.Apply(PriceUpdate{Price: 0, Timestamp: *now}) {
		t.Fatal("expected zero price to be rejected")
	}
	if f.Apply(PriceUpdate{Price: -1, Timestamp: *now}) {
		t.Fatal("expected negative price to be rejected")
	}
}
