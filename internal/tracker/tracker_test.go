package tracker

import (
	"testing"
	"time"

	"github.com/rewired-gh/clobwatch/internal/models"
)

func level(price, size float64) models.BookLevel {
	return models.BookLevel{Price: price, Size: size}
}

func TestApplyBookUsesMostRecentUpdateOnly(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.ApplyBook(models.BookUpdate{
		AssetID:   "token-1",
		Bids:      []models.BookLevel{level(0.10, 5), level(0.40, 5)},
		Asks:      []models.BookLevel{level(0.90, 5), level(0.45, 5)},
		Timestamp: now,
	})

	upd := tr.ApplyBook(models.BookUpdate{
		AssetID:   "token-1",
		Bids:      []models.BookLevel{level(0.20, 5), level(0.38, 5)},
		Asks:      []models.BookLevel{level(0.80, 5), level(0.50, 5)},
		Timestamp: now,
	})

	// Best levels must come from the second update alone, even though the
	// first update had a better bid and ask.
	if upd.State.BestBid == nil || *upd.State.BestBid != 0.38 {
		t.Errorf("BestBid = %v, want 0.38", upd.State.BestBid)
	}
	if upd.State.BestAsk == nil || *upd.State.BestAsk != 0.50 {
		t.Errorf("BestAsk = %v, want 0.50", upd.State.BestAsk)
	}
}

func TestApplyBookEmptySideClears(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.ApplyBook(models.BookUpdate{
		AssetID:   "token-1",
		Bids:      []models.BookLevel{level(0.40, 5)},
		Asks:      []models.BookLevel{level(0.45, 5)},
		Timestamp: now,
	})
	upd := tr.ApplyBook(models.BookUpdate{
		AssetID:   "token-1",
		Asks:      []models.BookLevel{level(0.50, 5)},
		Timestamp: now,
	})

	if upd.State.BestBid != nil {
		t.Errorf("BestBid = %v, want nil after empty bid side", upd.State.BestBid)
	}
	if upd.State.BestAsk == nil || *upd.State.BestAsk != 0.50 {
		t.Errorf("BestAsk = %v, want 0.50", upd.State.BestAsk)
	}
	if upd.State.Mid() != nil {
		t.Error("Mid should be unavailable with one empty side")
	}
}

func TestTradeDoesNotTouchBook(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.ApplyBook(models.BookUpdate{
		AssetID:   "token-1",
		Bids:      []models.BookLevel{level(0.40, 5)},
		Asks:      []models.BookLevel{level(0.45, 5)},
		Timestamp: now,
	})
	upd := tr.ApplyTrade(models.Trade{
		AssetID: "token-1", Side: models.SideBuy, Price: 0.99, Size: 1, Timestamp: now,
	})

	if upd.State.LastTradePrice == nil || *upd.State.LastTradePrice != 0.99 {
		t.Errorf("LastTradePrice = %v, want 0.99", upd.State.LastTradePrice)
	}
	// Best bid/ask are only ever set by book updates.
	if upd.State.BestBid == nil || *upd.State.BestBid != 0.40 {
		t.Errorf("BestBid = %v, want 0.40", upd.State.BestBid)
	}
	if upd.State.BestAsk == nil || *upd.State.BestAsk != 0.45 {
		t.Errorf("BestAsk = %v, want 0.45", upd.State.BestAsk)
	}
}

func TestLazyCreationAndUnavailableFields(t *testing.T) {
	tr := New()

	if _, ok := tr.Get("token-1"); ok {
		t.Error("Get before any event should report absence")
	}

	upd := tr.ApplyLastTradePrice("token-1", 0.61, time.Now())
	if upd.Kind != models.UpdateKindLastTradePrice {
		t.Errorf("Kind = %q", upd.Kind)
	}

	s, ok := tr.Get("token-1")
	if !ok {
		t.Fatal("state should exist after first event")
	}
	if s.LastTradePrice == nil || *s.LastTradePrice != 0.61 {
		t.Errorf("LastTradePrice = %v, want 0.61", s.LastTradePrice)
	}
	if s.BestBid != nil || s.BestAsk != nil {
		t.Error("book fields should stay absent, not zero")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	tr := New()
	now := time.Now()
	tr.ApplyTrade(models.Trade{AssetID: "token-1", Side: models.SideBuy, Price: 0.5, Size: 1, Timestamp: now})

	s, _ := tr.Get("token-1")
	*s.LastTradePrice = 0.99

	again, _ := tr.Get("token-1")
	if *again.LastTradePrice != 0.5 {
		t.Error("mutating a returned state must not affect the tracker")
	}
}

func TestSnapshot(t *testing.T) {
	tr := New()
	now := time.Now()
	tr.ApplyTrade(models.Trade{AssetID: "a", Side: models.SideBuy, Price: 0.5, Size: 1, Timestamp: now})
	tr.ApplyTrade(models.Trade{AssetID: "b", Side: models.SideSell, Price: 0.6, Size: 1, Timestamp: now})

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot has %d entries, want 2", len(snap))
	}
	if *snap["a"].LastTradePrice != 0.5 || *snap["b"].LastTradePrice != 0.6 {
		t.Error("snapshot contents wrong")
	}
}
