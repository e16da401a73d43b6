// Package sink defines where normalized state updates and volatility alerts
// go. The core pipeline publishes structured records and does not care how
// they are rendered; implementations here log them or forward them to
// Telegram. Cross-instrument extensions (arbitrage, imbalance tracking) plug
// in as additional Sink implementations.
package sink

import (
	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/models"
)

// Sink consumes the pipeline's output records.
type Sink interface {
	PublishUpdate(upd models.StateUpdate)
	PublishAlert(alert models.Alert)
}

// Multi fans records out to several sinks in order.
type Multi []Sink

func (m Multi) PublishUpdate(upd models.StateUpdate) {
	for _, s := range m {
		s.PublishUpdate(upd)
	}
}

func (m Multi) PublishAlert(alert models.Alert) {
	for _, s := range m {
		s.PublishAlert(alert)
	}
}

// LogSink renders every record as a structured log line. It is the default
// sink and is always attached.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) PublishUpdate(upd models.StateUpdate) {
	fields := []zap.Field{
		zap.String("asset_id", upd.AssetID),
		optionalPrice("best_bid", upd.State.BestBid),
		optionalPrice("best_ask", upd.State.BestAsk),
		optionalPrice("mid", upd.State.Mid()),
		optionalPrice("spread", upd.State.Spread()),
		optionalPrice("spread_bps", upd.State.SpreadBPS()),
		optionalPrice("last_trade", upd.State.LastTradePrice),
	}
	switch upd.Kind {
	case models.UpdateKindTrade:
		fields = append(fields,
			zap.String("side", string(upd.Trade.Side)),
			zap.Float64("price", upd.Trade.Price),
			zap.Float64("size", upd.Trade.Size))
		s.log.Info("trade", fields...)
	case models.UpdateKindBook:
		s.log.Info("book", fields...)
	case models.UpdateKindLastTradePrice:
		s.log.Info("last_trade_price", fields...)
	}
}

func (s *LogSink) PublishAlert(alert models.Alert) {
	s.log.Warn("volatility alert",
		zap.String("alert_id", alert.ID),
		zap.String("asset_id", alert.AssetID),
		zap.String("summary", alert.Summary()),
		zap.Time("detected_at", alert.DetectedAt))
}

// optionalPrice renders an absent value as "unavailable", never as zero.
func optionalPrice(key string, v *float64) zap.Field {
	if v == nil {
		return zap.String(key, "unavailable")
	}
	return zap.Float64(key, *v)
}
