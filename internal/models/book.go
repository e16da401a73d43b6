package models

import "time"

// BookLevel is a single price level in an order book.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BookUpdate is a full order-book snapshot for one asset.
//
// The CLOB market channel orders asks highest-to-lowest and bids
// lowest-to-highest, so for both sides the best level is the LAST element.
// Only the derived best-bid/best-ask values are retained downstream; the
// level arrays themselves are not persisted.
type BookUpdate struct {
	AssetID   string      `json:"asset_id"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// BestBid returns the highest bid price, or nil when the bid side is empty.
func (b *BookUpdate) BestBid() *float64 {
	if len(b.Bids) == 0 {
		return nil
	}
	p := b.Bids[len(b.Bids)-1].Price
	return &p
}

// BestAsk returns the lowest ask price, or nil when the ask side is empty.
func (b *BookUpdate) BestAsk() *float64 {
	if len(b.Asks) == 0 {
		return nil
	}
	p := b.Asks[len(b.Asks)-1].Price
	return &p
}

// InstrumentState is the derived per-asset state maintained by the tracker.
// Fields are nil until the first event that populates them; a nil field means
// "unavailable", never zero. BestBid and BestAsk are updated only by book
// updates naming this asset, never inferred from trades.
type InstrumentState struct {
	AssetID        string   `json:"asset_id"`
	BestBid        *float64 `json:"best_bid,omitempty"`
	BestAsk        *float64 `json:"best_ask,omitempty"`
	LastTradePrice *float64 `json:"last_trade_price,omitempty"`
}

// Mid returns (best_bid + best_ask) / 2, or nil when either side is missing.
func (s *InstrumentState) Mid() *float64 {
	if s.BestBid == nil || s.BestAsk == nil {
		return nil
	}
	m := (*s.BestBid + *s.BestAsk) / 2
	return &m
}

// Spread returns best_ask - best_bid, or nil when either side is missing.
func (s *InstrumentState) Spread() *float64 {
	if s.BestBid == nil || s.BestAsk == nil {
		return nil
	}
	sp := *s.BestAsk - *s.BestBid
	return &sp
}

// SpreadBPS returns the spread in basis points relative to the best bid.
// Returns nil when either side is missing or the best bid is zero.
func (s *InstrumentState) SpreadBPS() *float64 {
	sp := s.Spread()
	if sp == nil || *s.BestBid == 0 {
		return nil
	}
	bps := *sp / *s.BestBid * 10000
	return &bps
}

// Clone returns a deep copy so callers can hold the state without racing
// against later tracker updates.
func (s *InstrumentState) Clone() *InstrumentState {
	c := &InstrumentState{AssetID: s.AssetID}
	if s.BestBid != nil {
		v := *s.BestBid
		c.BestBid = &v
	}
	if s.BestAsk != nil {
		v := *s.BestAsk
		c.BestAsk = &v
	}
	if s.LastTradePrice != nil {
		v := *s.LastTradePrice
		c.LastTradePrice = &v
	}
	return c
}

// UpdateKind identifies which event produced a StateUpdate.
type UpdateKind string

const (
	UpdateKindTrade          UpdateKind = "trade"
	UpdateKindBook           UpdateKind = "book"
	UpdateKindLastTradePrice UpdateKind = "last_trade_price"
)

// StateUpdate is the record pushed to sinks after every tracker mutation.
// It carries a snapshot of the state after the update was applied.
type StateUpdate struct {
	Kind      UpdateKind       `json:"kind"`
	AssetID   string           `json:"asset_id"`
	State     *InstrumentState `json:"state"`
	Trade     *Trade           `json:"trade,omitempty"` // Set for trade updates
	Timestamp time.Time        `json:"timestamp"`
}
