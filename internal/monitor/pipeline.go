// Package monitor wires the processing pipeline: every normalized event
// updates the instrument tracker, trade events additionally feed the
// volatility detector, and the resulting records go to the configured sinks.
// Processing is synchronous per event, so a connection never reads faster
// than its consumers can keep up.
package monitor

import (
	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/models"
	"github.com/rewired-gh/clobwatch/internal/sink"
	"github.com/rewired-gh/clobwatch/internal/tracker"
	"github.com/rewired-gh/clobwatch/internal/volatility"
)

// Pipeline implements stream.Handler.
type Pipeline struct {
	tracker  *tracker.Tracker
	detector *volatility.Detector
	sink     sink.Sink
	log      *zap.Logger
}

// New creates a Pipeline publishing to the given sink.
func New(tr *tracker.Tracker, det *volatility.Detector, s sink.Sink, log *zap.Logger) *Pipeline {
	return &Pipeline{
		tracker:  tr,
		detector: det,
		sink:     s,
		log:      log,
	}
}

// HandleEvent processes one event to completion before returning. Each
// update is an atomic unit: tracker mutation, detection, and publication all
// happen before the next frame is accepted.
func (p *Pipeline) HandleEvent(ev models.Event) {
	switch e := ev.(type) {
	case models.TradeEvent:
		p.sink.PublishUpdate(p.tracker.ApplyTrade(e.Trade))
		if alert := p.detector.AddTrade(e.Trade); alert != nil {
			p.sink.PublishAlert(*alert)
		}

	case models.BookEvent:
		p.sink.PublishUpdate(p.tracker.ApplyBook(e.Book))

	case models.LastTradePriceEvent:
		// Updates the tracked price but never reaches the detector.
		p.sink.PublishUpdate(p.tracker.ApplyLastTradePrice(e.AssetID, e.Price, e.Timestamp))

	case models.SubscribedEvent:
		p.log.Info("subscription confirmed", zap.String("asset_id", e.AssetID))

	case models.ServerErrorEvent:
		p.log.Warn("server error", zap.String("message", e.Message))
	}
}
