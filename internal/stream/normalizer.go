package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/models"
)

// Normalizer turns raw market-channel frames into typed domain events.
// Anything it cannot interpret is dropped: the venue mixes control frames,
// acks, and event payloads on the same connection, and none of that noise may
// disturb the read loop.
//
// A Normalizer is not safe for concurrent use; each connection owns one.
type Normalizer struct {
	log *zap.Logger
	now func() time.Time

	// Unknown event kinds are logged once each and ignored afterwards.
	// Lives for the process lifetime, cleared only on restart.
	seenUnknown map[string]struct{}
}

// NewNormalizer creates a Normalizer logging through the given logger.
func NewNormalizer(log *zap.Logger) *Normalizer {
	return &Normalizer{
		log:         log,
		now:         time.Now,
		seenUnknown: make(map[string]struct{}),
	}
}

// flexFloat decodes a JSON number or a numeric string. The market channel
// sends prices and sizes as strings, but the decoder tolerates both.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return errors.New("empty numeric field")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type rawLevel struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
}

// rawItem covers the union of fields across all recognized event kinds.
// The discriminator is event_type, with type as a fallback.
type rawItem struct {
	EventType string     `json:"event_type"`
	Type      string     `json:"type"`
	AssetID   string     `json:"asset_id"`
	Side      string     `json:"side"`
	Price     flexFloat  `json:"price"`
	Size      flexFloat  `json:"size"`
	Bids      []rawLevel `json:"bids"`
	Asks      []rawLevel `json:"asks"`
	Message   string     `json:"message"`
}

func (r *rawItem) kind() string {
	if r.EventType != "" {
		return r.EventType
	}
	return r.Type
}

// Normalize parses one inbound frame into zero or more events. A frame may be
// a single JSON object or an array of objects; one malformed item never
// blocks the rest. Empty and non-JSON frames are transport noise and yield
// nothing.
func (n *Normalizer) Normalize(frame []byte) []models.Event {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
	} else {
		if !json.Valid(trimmed) {
			return nil
		}
		items = []json.RawMessage{trimmed}
	}

	var events []models.Event
	for _, item := range items {
		if ev := n.normalizeItem(item); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func (n *Normalizer) normalizeItem(item json.RawMessage) models.Event {
	var raw rawItem
	if err := json.Unmarshal(item, &raw); err != nil {
		n.log.Debug("dropping malformed item", zap.Error(err))
		return nil
	}

	switch kind := raw.kind(); kind {
	case "trade":
		trade := models.Trade{
			AssetID:   raw.AssetID,
			Side:      models.Side(strings.ToUpper(raw.Side)),
			Price:     float64(raw.Price),
			Size:      float64(raw.Size),
			Timestamp: n.now(),
		}
		if err := trade.Validate(); err != nil {
			n.log.Warn("dropping invalid trade", zap.String("asset_id", raw.AssetID), zap.Error(err))
			return nil
		}
		return models.TradeEvent{Trade: trade}

	case "book":
		if raw.AssetID == "" {
			n.log.Warn("dropping book update without asset_id")
			return nil
		}
		book := models.BookUpdate{
			AssetID:   raw.AssetID,
			Bids:      convertLevels(raw.Bids),
			Asks:      convertLevels(raw.Asks),
			Timestamp: n.now(),
		}
		return models.BookEvent{Book: book}

	case "last_trade_price":
		if raw.AssetID == "" || raw.Price <= 0 {
			n.log.Warn("dropping last_trade_price without asset_id or price", zap.String("asset_id", raw.AssetID))
			return nil
		}
		return models.LastTradePriceEvent{
			AssetID:   raw.AssetID,
			Price:     float64(raw.Price),
			Timestamp: n.now(),
		}

	case "subscribed":
		return models.SubscribedEvent{AssetID: raw.AssetID}

	case "error":
		return models.ServerErrorEvent{Message: raw.Message}

	case "price_change":
		// Known but unused; not worth an unknown-kind log line.
		return nil

	case "":
		return nil

	default:
		if _, seen := n.seenUnknown[kind]; !seen {
			n.seenUnknown[kind] = struct{}{}
			n.log.Info("unrecognized event kind", zap.String("kind", kind))
		}
		return nil
	}
}

func convertLevels(raw []rawLevel) []models.BookLevel {
	if len(raw) == 0 {
		return nil
	}
	levels := make([]models.BookLevel, len(raw))
	for i, l := range raw {
		levels[i] = models.BookLevel{Price: float64(l.Price), Size: float64(l.Size)}
	}
	return levels
}
