package models

import (
	"testing"
	"time"
)

func TestBookUpdateBestLevels(t *testing.T) {
	// The market channel orders asks highest-to-lowest and bids
	// lowest-to-highest: the best level is the last element on both sides.
	book := BookUpdate{
		AssetID: "token-1",
		Bids: []BookLevel{
			{Price: 0.01, Size: 100},
			{Price: 0.40, Size: 50},
			{Price: 0.43, Size: 10},
		},
		Asks: []BookLevel{
			{Price: 0.99, Size: 100},
			{Price: 0.50, Size: 50},
			{Price: 0.44, Size: 10},
		},
		Timestamp: time.Now(),
	}

	bid := book.BestBid()
	if bid == nil || *bid != 0.43 {
		t.Errorf("BestBid = %v, want 0.43", bid)
	}
	ask := book.BestAsk()
	if ask == nil || *ask != 0.44 {
		t.Errorf("BestAsk = %v, want 0.44", ask)
	}
}

func TestBookUpdateBestLevelsEmptySides(t *testing.T) {
	book := BookUpdate{AssetID: "token-1"}
	if book.BestBid() != nil {
		t.Error("BestBid on empty bids should be nil")
	}
	if book.BestAsk() != nil {
		t.Error("BestAsk on empty asks should be nil")
	}
}

func TestInstrumentStateDerived(t *testing.T) {
	bid, ask := 0.40, 0.44
	s := InstrumentState{AssetID: "token-1", BestBid: &bid, BestAsk: &ask}

	if mid := s.Mid(); mid == nil || !almostEqual(*mid, 0.42) {
		t.Errorf("Mid = %v, want 0.42", mid)
	}
	if sp := s.Spread(); sp == nil || !almostEqual(*sp, 0.04) {
		t.Errorf("Spread = %v, want 0.04", sp)
	}
	if bps := s.SpreadBPS(); bps == nil || !almostEqual(*bps, 1000) {
		t.Errorf("SpreadBPS = %v, want 1000", bps)
	}
}

func TestInstrumentStateDerivedUnavailable(t *testing.T) {
	bid := 0.40
	cases := []InstrumentState{
		{AssetID: "a"},
		{AssetID: "b", BestBid: &bid},
	}
	for _, s := range cases {
		if s.Mid() != nil || s.Spread() != nil || s.SpreadBPS() != nil {
			t.Errorf("derived values for %+v should all be nil", s)
		}
	}

	// Zero best bid must not produce a division by zero.
	zero, ask := 0.0, 0.1
	s := InstrumentState{AssetID: "c", BestBid: &zero, BestAsk: &ask}
	if s.SpreadBPS() != nil {
		t.Error("SpreadBPS with zero best bid should be nil")
	}
}

func TestTradeValidate(t *testing.T) {
	valid := Trade{
		AssetID:   "token-1",
		Side:      SideBuy,
		Price:     0.52,
		Size:      10,
		Timestamp: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid trade failed validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Trade)
	}{
		{"empty asset", func(tr *Trade) { tr.AssetID = "" }},
		{"bad side", func(tr *Trade) { tr.Side = "HOLD" }},
		{"zero price", func(tr *Trade) { tr.Price = 0 }},
		{"negative size", func(tr *Trade) { tr.Size = -1 }},
		{"zero timestamp", func(tr *Trade) { tr.Timestamp = time.Time{} }},
	}
	for _, tc := range cases {
		tr := valid
		tc.mutate(&tr)
		if err := tr.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestAlertSummary(t *testing.T) {
	a := Alert{
		ID:          "id",
		AssetID:     "token-1",
		PriceSpike:  &PriceSpike{Direction: DirectionUp, RelChange: 0.03},
		VolumeSpike: &VolumeSpike{Ratio: 4.2},
	}
	got := a.Summary()
	want := "PRICE SPIKE UP: 3.00% change | VOLUME SPIKE: 4.2x baseline"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}

	a.VolumeSpike = nil
	if got := a.Summary(); got != "PRICE SPIKE UP: 3.00% change" {
		t.Errorf("Summary = %q", got)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
