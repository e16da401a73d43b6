package models

import "time"

// Event is one normalized message from the market channel. The set of
// implementations is closed: the normalizer maps every interpretable inbound
// item onto exactly one of the types below and discards everything else.
type Event interface {
	isEvent()
}

// TradeEvent carries a trade execution.
type TradeEvent struct {
	Trade Trade
}

// BookEvent carries a full order-book snapshot.
type BookEvent struct {
	Book BookUpdate
}

// LastTradePriceEvent carries a last-trade-price notice. It updates the
// tracker like a trade's price does, but does not feed the volatility
// detector.
type LastTradePriceEvent struct {
	AssetID   string
	Price     float64
	Timestamp time.Time
}

// SubscribedEvent confirms a subscription on the current connection.
type SubscribedEvent struct {
	AssetID string
}

// ServerErrorEvent carries an error message sent by the venue. It is
// informational; the connection stays up.
type ServerErrorEvent struct {
	Message string
}

func (TradeEvent) isEvent()          {}
func (BookEvent) isEvent()           {}
func (LastTradePriceEvent) isEvent() {}
func (SubscribedEvent) isEvent()     {}
func (ServerErrorEvent) isEvent()    {}
