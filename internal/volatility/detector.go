// Package volatility detects price and volume spikes over a sliding time
// window of recent trades, per asset.
//
// The detector is deliberately reactive rather than statistical: the volume
// baseline is a trailing average rate (window volume divided by window
// length) recomputed on every trade once at least three trades are in the
// window, so it continuously drifts toward recent activity. Window eviction
// and the baseline are both driven by event time, not trade count, which
// keeps behavior sane for bursty and sparse assets alike.
package volatility

import (
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/clobwatch/internal/models"
)

// baselineMinTrades is how many in-window trades are needed before the
// volume baseline is (re)computed.
const baselineMinTrades = 3

// Config holds the detector thresholds.
type Config struct {
	Window           time.Duration // Sliding window length
	PriceThreshold   float64       // Relative price change that fires a price spike
	VolumeMultiplier float64       // window_volume / baseline ratio that fires a volume spike
}

// assetWindow is the per-asset sliding window state.
type assetWindow struct {
	trades         []models.Trade // Arrival order; evicted from the front
	baselineVolume float64        // Trailing volume rate, units/second
	lastPrice      float64        // Price of the previous trade
}

// Detector raises at most one combined alert per trade. It is a pure
// function of its input stream and configuration: two detectors fed the same
// trades produce the same alerts. Not safe for concurrent use; each
// processing pipeline owns one.
type Detector struct {
	cfg     Config
	windows map[string]*assetWindow
}

// New creates a Detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{
		cfg:     cfg,
		windows: make(map[string]*assetWindow),
	}
}

// AddTrade appends a trade to its asset's window, evicts aged trades, and
// runs the price and volume spike checks. It returns a combined alert when
// at least one check fired, nil otherwise.
func (d *Detector) AddTrade(tr models.Trade) *models.Alert {
	w, ok := d.windows[tr.AssetID]
	if !ok {
		w = &assetWindow{lastPrice: tr.Price}
		d.windows[tr.AssetID] = w
	}

	w.trades = append(w.trades, tr)

	// Evict everything strictly older than the window.
	cutoff := 0
	for cutoff < len(w.trades) && tr.Timestamp.Sub(w.trades[cutoff].Timestamp) > d.cfg.Window {
		cutoff++
	}
	w.trades = w.trades[cutoff:]

	var priceSpike *models.PriceSpike
	if w.lastPrice > 0 {
		relChange := (tr.Price - w.lastPrice) / w.lastPrice
		direction := models.DirectionUp
		if relChange < 0 {
			relChange = -relChange
			direction = models.DirectionDown
		}
		if relChange > d.cfg.PriceThreshold {
			priceSpike = &models.PriceSpike{Direction: direction, RelChange: relChange}
		}
	}

	// The comparison above used the pre-trade price; update it regardless
	// of whether a spike fired.
	w.lastPrice = tr.Price

	var windowVolume float64
	for _, t := range w.trades {
		windowVolume += t.Size
	}

	var volumeSpike *models.VolumeSpike
	if w.baselineVolume > 0 {
		ratio := windowVolume / w.baselineVolume
		if ratio > d.cfg.VolumeMultiplier {
			volumeSpike = &models.VolumeSpike{Ratio: ratio}
		}
	}

	if len(w.trades) >= baselineMinTrades {
		w.baselineVolume = windowVolume / d.cfg.Window.Seconds()
	}

	if priceSpike == nil && volumeSpike == nil {
		return nil
	}
	return &models.Alert{
		ID:          uuid.New().String(),
		AssetID:     tr.AssetID,
		PriceSpike:  priceSpike,
		VolumeSpike: volumeSpike,
		Trade:       tr,
		DetectedAt:  tr.Timestamp,
	}
}

// WindowVolume reports the summed size of the trades currently held in the
// asset's window. Exposed for observability; returns 0 for unknown assets.
func (d *Detector) WindowVolume(assetID string) float64 {
	w, ok := d.windows[assetID]
	if !ok {
		return 0
	}
	var total float64
	for _, t := range w.trades {
		total += t.Size
	}
	return total
}
