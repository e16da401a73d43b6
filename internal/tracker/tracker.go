// Package tracker maintains derived per-instrument state: best bid/ask and
// last trade price, plus mid/spread computed on demand. It is a pure
// derived-state store with no I/O; state is created lazily on the first event
// for an asset and lives for the process lifetime, surviving reconnects.
package tracker

import (
	"sync"
	"time"

	"github.com/rewired-gh/clobwatch/internal/models"
)

// Tracker provides thread-safe access to per-asset instrument state. Within
// one connection events arrive strictly in order, so the lock only matters
// when several endpoint managers share one tracker.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*models.InstrumentState
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		states: make(map[string]*models.InstrumentState),
	}
}

// stateFor returns the state for an asset, creating it with all fields
// absent on first access. Caller must hold mu.
func (t *Tracker) stateFor(assetID string) *models.InstrumentState {
	s, ok := t.states[assetID]
	if !ok {
		s = &models.InstrumentState{AssetID: assetID}
		t.states[assetID] = s
	}
	return s
}

// ApplyTrade records the execution price as the asset's last trade price and
// returns the resulting state update.
func (t *Tracker) ApplyTrade(tr models.Trade) models.StateUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stateFor(tr.AssetID)
	price := tr.Price
	s.LastTradePrice = &price

	trade := tr
	return models.StateUpdate{
		Kind:      models.UpdateKindTrade,
		AssetID:   tr.AssetID,
		State:     s.Clone(),
		Trade:     &trade,
		Timestamp: tr.Timestamp,
	}
}

// ApplyBook replaces the asset's best bid and ask with the best levels of
// the given snapshot. An empty side clears the corresponding value: the
// reported best levels always come from the most recent update, never a
// stale cross-update mix.
func (t *Tracker) ApplyBook(b models.BookUpdate) models.StateUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stateFor(b.AssetID)
	s.BestBid = b.BestBid()
	s.BestAsk = b.BestAsk()

	return models.StateUpdate{
		Kind:      models.UpdateKindBook,
		AssetID:   b.AssetID,
		State:     s.Clone(),
		Timestamp: b.Timestamp,
	}
}

// ApplyLastTradePrice updates the last trade price without a trade record,
// mirroring the venue's last_trade_price notices.
func (t *Tracker) ApplyLastTradePrice(assetID string, price float64, ts time.Time) models.StateUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stateFor(assetID)
	p := price
	s.LastTradePrice = &p

	return models.StateUpdate{
		Kind:      models.UpdateKindLastTradePrice,
		AssetID:   assetID,
		State:     s.Clone(),
		Timestamp: ts,
	}
}

// Get returns a copy of the state for an asset, or false when no event has
// been seen for it yet.
func (t *Tracker) Get(assetID string) (*models.InstrumentState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[assetID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Snapshot returns copies of all tracked states keyed by asset ID.
func (t *Tracker) Snapshot() map[string]*models.InstrumentState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]*models.InstrumentState, len(t.states))
	for id, s := range t.states {
		out[id] = s.Clone()
	}
	return out
}
