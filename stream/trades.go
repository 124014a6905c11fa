// Package stream delivers live VALR trades over the account websocket.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"valrgo/config"
	"valrgo/logger"
	"valrgo/models"
	"valrgo/valr"
)

const tradePath = "/ws/trade"

// TradeFeed subscribes to NEW_TRADE events for the configured pairs and
// forwards them, normalized, to the provided channel. The websocket
// handshake is signed with the same scheme as REST requests.
type TradeFeed struct {
	config  *config.Config
	client  *valr.Client
	out     chan<- models.Trade
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log
}

// NewTradeFeed creates a trade feed. The caller owns the output channel.
func NewTradeFeed(cfg *config.Config, client *valr.Client, out chan<- models.Trade) *TradeFeed {
	return &TradeFeed{
		config: cfg,
		client: client,
		out:    out,
		wg:     &sync.WaitGroup{},
		log:    logger.GetLogger(),
	}
}

// Start connects and begins streaming. The catalog is warmed first so trade
// pair ids resolve to canonical symbols.
func (f *TradeFeed) Start(ctx context.Context) error {
	cfg := f.config.Stream
	log := f.log.WithComponent("valr_stream").WithFields(logger.Fields{"operation": "start"})

	if !cfg.Enabled {
		log.Warn("trade stream is disabled")
		return fmt.Errorf("trade stream is disabled")
	}

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("trade feed already running")
	}
	f.running = true
	f.ctx = ctx
	f.mu.Unlock()

	if _, err := f.client.FetchMarkets(ctx); err != nil {
		log.WithError(err).Warn("market catalog warm-up failed; symbols will degrade to pair ids")
	}

	log.WithFields(logger.Fields{"pairs": cfg.Pairs}).Info("starting trade feed")
	f.wg.Add(1)
	go f.run(cfg)
	return nil
}

// Stop waits for the stream worker to exit. Cancel the context passed to
// Start to interrupt a live connection.
func (f *TradeFeed) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	f.log.WithComponent("valr_stream").Info("stopping trade feed")
	f.wg.Wait()
	f.log.WithComponent("valr_stream").Info("trade feed stopped")
}

func (f *TradeFeed) run(cfg config.StreamConfig) {
	defer f.wg.Done()
	log := f.log.WithComponent("valr_stream").WithFields(logger.Fields{"worker": "trade_stream"})

	for {
		if err := f.ctx.Err(); err != nil {
			log.Info("worker stopped due to context cancellation")
			return
		}
		if err := f.streamOnce(cfg, log); err != nil {
			log.WithError(err).Warn("stream session ended")
		}
		select {
		case <-f.ctx.Done():
			log.Info("worker stopped due to context cancellation")
			return
		case <-time.After(cfg.ReconnectDelay):
		}
	}
}

// streamOnce runs one websocket session: signed handshake, subscribe, read
// loop until error or cancellation.
func (f *TradeFeed) streamOnce(cfg config.StreamConfig, log *logger.Entry) error {
	headers, err := f.client.AuthHeaders("GET", tradePath, "")
	if err != nil {
		return err
	}

	url := strings.TrimRight(f.config.Exchange.WSURL, "/") + tradePath
	conn, _, err := websocket.DefaultDialer.DialContext(f.ctx, url, headers)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	sub := subscribeRequest{
		Type: "SUBSCRIBE",
		Subscriptions: []subscription{
			{Event: "NEW_TRADE", Pairs: cfg.Pairs},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.WithFields(logger.Fields{"pairs": cfg.Pairs}).Info("subscribed to trade events")

	// Unblock ReadMessage when the context is canceled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-f.ctx.Done():
			conn.SetReadDeadline(time.Now())
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if f.ctx.Err() != nil {
				return nil
			}
			return err
		}
		f.handleMessage(conn, payload, log)
	}
}

func (f *TradeFeed) handleMessage(conn *websocket.Conn, payload []byte, log *logger.Entry) {
	var msg eventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.WithError(err).Warn("unparseable stream message")
		return
	}

	switch msg.Type {
	case "PING":
		if err := conn.WriteJSON(map[string]string{"type": "PONG"}); err != nil {
			log.WithError(err).Warn("failed to answer ping")
		}
	case "NEW_TRADE":
		trade, ok := f.normalizeEvent(msg)
		if !ok {
			log.Warn("trade event missing data")
			return
		}
		select {
		case f.out <- trade:
			logger.RecordStreamMessage()
		case <-f.ctx.Done():
		default:
			log.Warn("trade channel full, dropping message")
		}
	default:
		// SUBSCRIBED acks, AUTHENTICATED and other event kinds are ignored.
	}
}

// normalizeEvent maps a NEW_TRADE event through the same projection rules as
// the REST trade history: decimal strings, RFC 3339 time, degrade to the raw
// pair id when the catalog does not know it.
func (f *TradeFeed) normalizeEvent(msg eventMessage) (models.Trade, bool) {
	if msg.Data == nil {
		return models.Trade{}, false
	}
	pair := msg.Data.CurrencyPair
	if pair == "" {
		pair = msg.CurrencyPairSymbol
	}
	return valr.NormalizeStreamTrade(valr.StreamTrade{
		ID:           msg.Data.ID,
		Price:        msg.Data.Price,
		Quantity:     msg.Data.Quantity,
		CurrencyPair: pair,
		TradedAt:     msg.Data.TradedAt,
		TakerSide:    msg.Data.TakerSide,
	}, f.client.SymbolFor(pair)), true
}

type subscribeRequest struct {
	Type          string         `json:"type"`
	Subscriptions []subscription `json:"subscriptions"`
}

type subscription struct {
	Event string   `json:"event"`
	Pairs []string `json:"pairs"`
}

type eventMessage struct {
	Type               string      `json:"type"`
	CurrencyPairSymbol string      `json:"currencyPairSymbol"`
	Data               *tradeEvent `json:"data"`
}

type tradeEvent struct {
	ID           string `json:"id"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	CurrencyPair string `json:"currencyPair"`
	TradedAt     string `json:"tradedAt"`
	TakerSide    string `json:"takerSide"`
}
