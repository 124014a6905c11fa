package valr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"valrgo/config"
	"valrgo/logger"
	"valrgo/models"
)

// Client is the VALR adapter facade. One call is one HTTP round trip: no
// implicit retries and no implicit pagination beyond the limit parameter.
// The market catalog is the only state shared between calls.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string

	transport Transport
	gate      Gate
	clock     Clock
	catalog   *Catalog
	log       *logger.Log
}

// NewClient wires the default collaborators: pooled HTTP transport, token
// bucket gate and wall clock. Credentials may be empty; public endpoints
// work without them.
func NewClient(cfg *config.Config) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.Exchange.RESTURL, "/"),
		apiKey:    cfg.Credentials.APIKey,
		apiSecret: cfg.Credentials.APISecret,
		transport: newHTTPTransport(cfg),
		gate:      newRateGate(cfg.RateLimit),
		clock:     systemClock{},
		log:       logger.GetLogger(),
	}
	c.catalog = NewCatalog(c.fetchPairs)
	return c
}

// Catalog exposes the session market catalog.
func (c *Client) Catalog() *Catalog { return c.catalog }

// SymbolFor resolves a pair id to its canonical symbol, falling back to the
// id itself when the catalog does not know it.
func (c *Client) SymbolFor(id string) string { return c.catalog.symbolFor(id) }

// AuthHeaders signs an arbitrary request path with the session credentials.
// The stream package uses it for the websocket handshake.
func (c *Client) AuthHeaders(method, pathWithQuery, body string) (http.Header, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, ErrCredentials
	}
	ts := c.clock.Now().UnixMilli()
	headers := http.Header{}
	headers.Set(headerAPIKey, c.apiKey)
	headers.Set(headerSignature, Sign(c.apiSecret, ts, method, pathWithQuery, body))
	headers.Set(headerTimestamp, strconv.FormatInt(ts, 10))
	return headers, nil
}

// call performs one round trip against a named endpoint and returns the raw
// body after the envelope check.
func (c *Client) call(ctx context.Context, name string, pathParams map[string]string, query url.Values, body []byte) ([]byte, error) {
	ep, ok := endpoints[name]
	if !ok {
		return nil, fmt.Errorf("valr: no such endpoint %q", name)
	}

	if ep.private && (c.apiKey == "" || c.apiSecret == "") {
		return nil, fmt.Errorf("%w (endpoint %s)", ErrCredentials, name)
	}

	path, err := buildPath(ep.path, pathParams, query)
	if err != nil {
		return nil, err
	}

	if err := c.gate.Wait(ctx, ep.weight); err != nil {
		return nil, err
	}

	headers := http.Header{}
	if len(body) > 0 {
		headers.Set("Content-Type", "application/json")
	}
	if ep.private {
		// The timestamp is generated once and reused in both the signature
		// input and the transmitted header.
		ts := c.clock.Now().UnixMilli()
		headers.Set(headerAPIKey, c.apiKey)
		headers.Set(headerSignature, Sign(c.apiSecret, ts, ep.method, path, string(body)))
		headers.Set(headerTimestamp, strconv.FormatInt(ts, 10))
	}

	log := c.log.WithComponent("valr_rest").WithFields(logger.Fields{
		"request_id": uuid.NewString(),
		"endpoint":   name,
		"method":     ep.method,
		"path":       path,
	})
	log.Debug("sending request")

	started := c.clock.Now()
	status, respBody, err := c.transport.Do(ctx, ep.method, c.baseURL+path, headers, body)
	logger.RecordRequest()
	if err != nil {
		// Transport failures surface unchanged, not interpreted.
		log.WithError(err).Warn("transport failure")
		return nil, err
	}
	logger.LogPerformanceEntry(log, "valr_rest", name, time.Since(started), logger.Fields{"status": status})

	if err := checkEnvelope(status, respBody); err != nil {
		log.WithError(err).Warn("exchange rejected request")
		return nil, err
	}
	return respBody, nil
}

// checkEnvelope treats a top-level message field as a universal failure
// signal regardless of HTTP status, before any entity normalization.
func checkEnvelope(status int, body []byte) error {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return &APIError{StatusCode: status, Message: env.Message, Envelope: append(json.RawMessage(nil), body...)}
	}
	if status >= http.StatusBadRequest {
		return &APIError{StatusCode: status, Message: http.StatusText(status), Envelope: append(json.RawMessage(nil), body...)}
	}
	return nil
}

// fetchPairs is the catalog's loader: one call to the public pair list,
// normalized into canonical markets with the raw record retained.
func (c *Client) fetchPairs(ctx context.Context) ([]models.Market, error) {
	body, err := c.call(ctx, "pairs", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse pairs: %w", err)
	}
	markets := make([]models.Market, 0, len(raws))
	for _, rawJSON := range raws {
		var raw pairRecord
		if err := json.Unmarshal(rawJSON, &raw); err != nil {
			return nil, fmt.Errorf("parse pair record: %w", err)
		}
		market, err := normalizeMarket(raw, rawJSON)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}
	return markets, nil
}

// FetchMarkets returns all tradable pairs, loading the catalog on first use.
func (c *Client) FetchMarkets(ctx context.Context) ([]models.Market, error) {
	return c.catalog.Load(ctx)
}

// FetchTicker returns the 24h market summary for one symbol.
func (c *Client) FetchTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return models.Ticker{}, err
	}
	body, err := c.call(ctx, "pairMarketSummary", map[string]string{"pair": market.ID}, nil, nil)
	if err != nil {
		return models.Ticker{}, err
	}
	var raw marketSummaryRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Ticker{}, fmt.Errorf("parse market summary: %w", err)
	}
	return normalizeTicker(raw, market.Symbol), nil
}

// FetchTickers returns 24h market summaries for all pairs, keyed by symbol.
// Summaries for pairs the catalog does not know keep the raw pair id.
func (c *Client) FetchTickers(ctx context.Context) (map[string]models.Ticker, error) {
	if _, err := c.catalog.Load(ctx); err != nil {
		return nil, err
	}
	body, err := c.call(ctx, "marketSummary", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var raws []marketSummaryRecord
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse market summaries: %w", err)
	}
	tickers := make(map[string]models.Ticker, len(raws))
	for _, raw := range raws {
		symbol := c.catalog.symbolFor(raw.CurrencyPair)
		tickers[symbol] = normalizeTicker(raw, symbol)
	}
	return tickers, nil
}

// FetchTrades returns recent public trades for a symbol, newest first as
// reported. since narrows the window, limit caps the page size.
func (c *Client) FetchTrades(ctx context.Context, symbol string, since *time.Time, limit int) ([]models.Trade, error) {
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if since != nil {
		query.Set("startTime", since.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.call(ctx, "pairTrades", map[string]string{"pair": market.ID}, query, nil)
	if err != nil {
		return nil, err
	}
	return c.parseTrades(body)
}

// FetchMyTrades returns the account's trade history for a symbol. The
// upstream route is per pair, so the symbol is required.
func (c *Client) FetchMyTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: FetchMyTrades needs a symbol", ErrMissingArgument)
	}
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.call(ctx, "accountTradeHistory", map[string]string{"pair": market.ID}, query, nil)
	if err != nil {
		return nil, err
	}
	return c.parseTrades(body)
}

func (c *Client) parseTrades(body []byte) ([]models.Trade, error) {
	var raws []tradeRecord
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse trades: %w", err)
	}
	trades := make([]models.Trade, 0, len(raws))
	for _, raw := range raws {
		trades = append(trades, normalizeTrade(raw, c.catalog.symbolFor(raw.CurrencyPair)))
	}
	return trades, nil
}

// FetchOrderBook returns the aggregated order book for a symbol.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string) (models.OrderBook, error) {
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return models.OrderBook{}, err
	}
	body, err := c.call(ctx, "pairOrderBook", map[string]string{"pair": market.ID}, nil, nil)
	if err != nil {
		return models.OrderBook{}, err
	}
	var raw orderBookResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.OrderBook{}, fmt.Errorf("parse order book: %w", err)
	}
	return normalizeOrderBook(raw, market.Symbol), nil
}

// FetchOrder looks up a single order by id. The upstream route is per pair,
// so both arguments are required.
func (c *Client) FetchOrder(ctx context.Context, id, symbol string) (models.Order, error) {
	if id == "" || symbol == "" {
		return models.Order{}, fmt.Errorf("%w: FetchOrder needs an order id and a symbol", ErrMissingArgument)
	}
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return models.Order{}, err
	}
	body, err := c.call(ctx, "orderByID", map[string]string{"pair": market.ID, "orderId": id}, nil, nil)
	if err != nil {
		return models.Order{}, err
	}
	var raw orderRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Order{}, fmt.Errorf("parse order: %w", err)
	}
	return normalizeOrder(raw, c.catalog.symbolFor(raw.CurrencyPair), body), nil
}

// FetchOpenOrders returns all open orders on the account. Pair ids the
// catalog does not know degrade to the raw id rather than failing: open
// orders may reference pairs delisted since placement.
func (c *Client) FetchOpenOrders(ctx context.Context) ([]models.Order, error) {
	body, err := c.call(ctx, "openOrders", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return c.parseOrders(body, "")
}

// FetchOrders returns the order history for a symbol. The upstream history
// endpoint is account wide, so results are filtered to the pair here.
func (c *Client) FetchOrders(ctx context.Context, symbol string, limit int) ([]models.Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: FetchOrders needs a symbol", ErrMissingArgument)
	}
	market, err := c.catalog.BySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.call(ctx, "orderHistory", nil, query, nil)
	if err != nil {
		return nil, err
	}
	return c.parseOrders(body, market.ID)
}

func (c *Client) parseOrders(body []byte, pairFilter string) ([]models.Order, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}
	orders := make([]models.Order, 0, len(raws))
	for _, rawJSON := range raws {
		var raw orderRecord
		if err := json.Unmarshal(rawJSON, &raw); err != nil {
			return nil, fmt.Errorf("parse order record: %w", err)
		}
		if pairFilter != "" && raw.CurrencyPair != pairFilter {
			continue
		}
		orders = append(orders, normalizeOrder(raw, c.catalog.symbolFor(raw.CurrencyPair), rawJSON))
	}
	return orders, nil
}

// FetchBalance returns the non-zero wallet balances keyed by currency code.
func (c *Client) FetchBalance(ctx context.Context) (models.BalanceSheet, error) {
	query := url.Values{}
	query.Set("excludeZeroBalances", "true")
	body, err := c.call(ctx, "balances", nil, query, nil)
	if err != nil {
		return nil, err
	}
	var raws []walletRecord
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse balances: %w", err)
	}
	return normalizeBalances(raws), nil
}

// FetchAccounts lists the subaccounts attached to the API key's profile.
func (c *Client) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	body, err := c.call(ctx, "subaccounts", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var raws []subaccountRecord
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse subaccounts: %w", err)
	}
	accounts := make([]models.Account, 0, len(raws))
	for _, raw := range raws {
		accounts = append(accounts, models.Account{ID: raw.ID, Name: raw.Label})
	}
	return accounts, nil
}

// FetchTime returns the exchange server time.
func (c *Client) FetchTime(ctx context.Context) (time.Time, error) {
	body, err := c.call(ctx, "serverTime", nil, nil, nil)
	if err != nil {
		return time.Time{}, err
	}
	var raw timeResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return time.Time{}, fmt.Errorf("parse server time: %w", err)
	}
	if t := optTime(raw.Time); t != nil {
		return *t, nil
	}
	if raw.EpochTime > 0 {
		return time.Unix(raw.EpochTime, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse server time: no usable field in %s", body)
}

// FetchStatus reports "ok" while the exchange is online and "maintenance"
// otherwise.
func (c *Client) FetchStatus(ctx context.Context) (string, error) {
	body, err := c.call(ctx, "serverStatus", nil, nil, nil)
	if err != nil {
		return "", err
	}
	var raw statusResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parse status: %w", err)
	}
	if raw.Status == "online" {
		return "ok", nil
	}
	return "maintenance", nil
}
