// Package models defines the core domain entities for the clobwatch application.
// These models represent trade executions, order-book snapshots, derived
// per-instrument state, and volatility alerts.
//
// Terminology (matching Polymarket's own naming):
//   - Asset: one tradable outcome token on the CLOB, identified by an opaque
//     token ID. This is the join key across all components.
//   - Book: the order book for one asset, as delivered by the market channel.
package models

import (
	"errors"
	"time"
)

// Side is the taker side of a trade execution.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade represents a single trade execution on the CLOB.
// Trades are immutable once created and are retained only inside the
// volatility detector's sliding window.
type Trade struct {
	AssetID   string    `json:"asset_id"`  // CLOB token ID
	Side      Side      `json:"side"`      // Taker side
	Price     float64   `json:"price"`     // Execution price (outcome tokens trade in (0, 1])
	Size      float64   `json:"size"`      // Executed size
	Timestamp time.Time `json:"timestamp"` // Receipt time; the market channel carries no usable event time
}

// Validate checks that all trade fields are valid.
func (t *Trade) Validate() error {
	if t.AssetID == "" {
		return errors.New("trade asset ID must not be empty")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return errors.New("trade side must be BUY or SELL")
	}
	if t.Price <= 0 {
		return errors.New("trade price must be positive")
	}
	if t.Size < 0 {
		return errors.New("trade size must not be negative")
	}
	if t.Timestamp.IsZero() {
		return errors.New("trade timestamp must be set")
	}
	return nil
}
