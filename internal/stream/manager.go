// Package stream owns the CLOB market-channel WebSocket session: connecting,
// subscribing, liveness probing, and reconnecting with exponential backoff.
// Inbound frames are normalized into typed events and handed to a Handler
// synchronously, so a slow consumer delays frame consumption rather than
// dropping frames.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/config"
	"github.com/rewired-gh/clobwatch/internal/models"
)

// Handler consumes normalized events, one at a time, in arrival order.
type Handler interface {
	HandleEvent(ev models.Event)
}

// subscribeMessage is the outbound control message for the public market
// channel, sent once per asset per connection.
type subscribeMessage struct {
	Auth      struct{} `json:"auth"`
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// Manager maintains a live session to one endpoint and guarantees that,
// whenever connected, every configured asset is subscribed exactly once.
// Derived state downstream survives reconnects; the subscription set does not.
type Manager struct {
	cfg        config.StreamConfig
	assetIDs   []string
	handler    Handler
	normalizer *Normalizer
	log        *zap.Logger
	dialer     *websocket.Dialer

	// Assets subscribed on the current connection. Cleared on every
	// reconnect so the subscribe pass re-sends everything.
	subscribed map[string]struct{}

	delay time.Duration // next reconnect delay
}

// NewManager creates a Manager for the given asset IDs. The asset list must
// not be empty; Run refuses to start without it.
func NewManager(cfg config.StreamConfig, assetIDs []string, handler Handler, log *zap.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		assetIDs:   assetIDs,
		handler:    handler,
		normalizer: NewNormalizer(log),
		log:        log,
		dialer:     websocket.DefaultDialer,
		subscribed: make(map[string]struct{}),
		delay:      cfg.ReconnectMinDelay,
	}
}

// Run connects and listens until ctx is cancelled, reconnecting with backoff
// after transport failures. Cancellation is the only way Run returns; the
// returned error is ctx.Err() or the empty-asset-list precondition failure.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.assetIDs) == 0 {
		return errors.New("no asset IDs configured")
	}

	m.log.Info("starting market stream",
		zap.String("url", m.cfg.WSURL),
		zap.Int("assets", len(m.assetIDs)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.connectAndListen(ctx); err != nil && ctx.Err() == nil {
			m.log.Warn("connection lost", zap.Error(err))
		}
		if err := ctx.Err(); err != nil {
			m.log.Info("market stream stopped")
			return err
		}

		delay := m.nextDelay()
		m.log.Info("reconnecting", zap.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.log.Info("market stream stopped")
			return ctx.Err()
		}
	}
}

// connectAndListen performs one full connection attempt: dial, subscribe,
// then read frames until the transport fails or ctx is cancelled.
func (m *Manager) connectAndListen(ctx context.Context) error {
	conn, _, err := m.dialer.DialContext(ctx, m.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.cfg.WSURL, err)
	}
	defer conn.Close()

	m.log.Info("connected", zap.String("url", m.cfg.WSURL))

	// New connection, new subscription set.
	m.subscribed = make(map[string]struct{})

	// Liveness: a ping every PingInterval, and the read deadline is pushed
	// forward on every pong. A dead peer fails the next ReadMessage once
	// PingInterval+PongTimeout passes without a pong.
	readDeadline := m.cfg.PingInterval + m.cfg.PongTimeout
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go m.pingLoop(pingCtx, conn)

	// Closing the socket is the only way to interrupt a blocked ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	m.subscribeAll(conn)

	// Listening reached: the backoff sequence starts over.
	m.resetDelay()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		for _, ev := range m.normalizer.Normalize(frame) {
			m.handler.HandleEvent(ev)
		}
	}
}

// subscribeAll sends one subscription per asset not yet recorded as
// subscribed on this connection. Send failures are logged and left out of the
// set so a later pass retries them; they never abort the connection.
func (m *Manager) subscribeAll(conn *websocket.Conn) {
	for _, id := range m.assetIDs {
		if _, ok := m.subscribed[id]; ok {
			continue
		}
		msg := subscribeMessage{AssetsIDs: []string{id}, Type: "MARKET"}
		if err := conn.WriteJSON(msg); err != nil {
			m.log.Warn("subscription send failed", zap.String("asset_id", id), zap.Error(err))
			continue
		}
		m.subscribed[id] = struct{}{}
		m.log.Info("subscribed", zap.String("asset_id", id))
	}
}

func (m *Manager) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				m.log.Warn("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// nextDelay returns the delay to apply before the next attempt and doubles
// the stored delay, capped at the configured maximum. After N consecutive
// failures the Nth delay is min(min_delay * 2^(N-1), max_delay).
func (m *Manager) nextDelay() time.Duration {
	d := m.delay
	next := m.delay * 2
	if next > m.cfg.ReconnectMaxDelay {
		next = m.cfg.ReconnectMaxDelay
	}
	m.delay = next
	return d
}

// resetDelay restores the minimum delay once an attempt reaches listening.
func (m *Manager) resetDelay() {
	m.delay = m.cfg.ReconnectMinDelay
}
