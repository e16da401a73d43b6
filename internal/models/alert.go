package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction tags which way a price spike moved.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// PriceSpike is the price component of a volatility alert.
type PriceSpike struct {
	Direction Direction `json:"direction"`
	RelChange float64   `json:"rel_change"` // |Δp| / previous price
}

// VolumeSpike is the volume component of a volatility alert.
type VolumeSpike struct {
	Ratio float64 `json:"ratio"` // window volume / baseline volume
}

// Alert is a combined volatility alert for one asset. At most one Alert is
// produced per triggering trade; it carries the price component, the volume
// component, or both.
type Alert struct {
	ID          string       `json:"id"` // uuid
	AssetID     string       `json:"asset_id"`
	PriceSpike  *PriceSpike  `json:"price_spike,omitempty"`
	VolumeSpike *VolumeSpike `json:"volume_spike,omitempty"`
	Trade       Trade        `json:"trade"` // The trade that triggered the alert
	DetectedAt  time.Time    `json:"detected_at"`
}

// Validate checks that the alert is well-formed.
func (a *Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert ID must not be empty")
	}
	if a.AssetID == "" {
		return errors.New("alert asset ID must not be empty")
	}
	if a.PriceSpike == nil && a.VolumeSpike == nil {
		return errors.New("alert must carry at least one spike component")
	}
	if a.PriceSpike != nil && a.PriceSpike.Direction != DirectionUp && a.PriceSpike.Direction != DirectionDown {
		return errors.New("price spike direction must be UP or DOWN")
	}
	if a.VolumeSpike != nil && a.VolumeSpike.Ratio <= 0 {
		return errors.New("volume spike ratio must be positive")
	}
	return nil
}

// Summary renders the alert components as a single human-readable line,
// joining both components when the trade fired both checks.
func (a *Alert) Summary() string {
	var parts []string
	if a.PriceSpike != nil {
		parts = append(parts, fmt.Sprintf("PRICE SPIKE %s: %.2f%% change", a.PriceSpike.Direction, a.PriceSpike.RelChange*100))
	}
	if a.VolumeSpike != nil {
		parts = append(parts, fmt.Sprintf("VOLUME SPIKE: %.1fx baseline", a.VolumeSpike.Ratio))
	}
	return strings.Join(parts, " | ")
}
