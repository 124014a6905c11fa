package valr

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"valrgo/logger"
)

type recordedRequest struct {
	method  string
	url     string
	headers http.Header
	body    []byte
}

// fakeTransport routes requests to canned responses by URL substring and
// records everything it saw.
type fakeTransport struct {
	responses map[string]fakeResponse
	requests  []recordedRequest
	err       error
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeTransport) Do(ctx context.Context, method, url string, headers http.Header, body []byte) (int, []byte, error) {
	f.requests = append(f.requests, recordedRequest{method: method, url: url, headers: headers, body: body})
	if f.err != nil {
		return 0, nil, f.err
	}
	for fragment, resp := range f.responses {
		if strings.Contains(url, fragment) {
			return resp.status, []byte(resp.body), nil
		}
	}
	return http.StatusNotFound, []byte(`{"code":-1,"message":"not found"}`), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type openGate struct{}

func (openGate) Wait(ctx context.Context, weight int) error { return nil }

const pairsBody = `[
	{"symbol":"BTCZAR","baseCurrency":"BTC","quoteCurrency":"ZAR","active":true,
	 "minBaseAmount":"0.0001","maxBaseAmount":"2","minQuoteAmount":"10","maxQuoteAmount":"100000",
	 "tickSize":"1","baseDecimalPlaces":"8","currencyPairType":"SPOT"},
	{"symbol":"ETHZAR","baseCurrency":"ETH","quoteCurrency":"ZAR","active":true,
	 "tickSize":"1","baseDecimalPlaces":"8","currencyPairType":"SPOT"}
]`

func newTestClient(t *testing.T, key, secret string, transport *fakeTransport) *Client {
	t.Helper()
	if transport.responses == nil {
		transport.responses = map[string]fakeResponse{}
	}
	if _, ok := transport.responses["/v1/public/pairs"]; !ok {
		transport.responses["/v1/public/pairs"] = fakeResponse{http.StatusOK, pairsBody}
	}
	c := &Client{
		baseURL:   "https://api.valr.com",
		apiKey:    key,
		apiSecret: secret,
		transport: transport,
		gate:      openGate{},
		clock:     fixedClock{t: time.UnixMilli(1700000000000)},
		log:       logger.GetLogger(),
	}
	c.catalog = NewCatalog(c.fetchPairs)
	return c
}

func TestPrivateCallWithoutCredentials(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(t, "", "", transport)

	_, err := c.FetchBalance(context.Background())
	if !errors.Is(err, ErrCredentials) {
		t.Fatalf("err = %v, want ErrCredentials", err)
	}
	// The failure happens before any network traffic.
	if len(transport.requests) != 0 {
		t.Fatalf("requests = %d, want 0", len(transport.requests))
	}
}

func TestPrivateCallSignsRequest(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/account/balances": {http.StatusOK, `[{"currency":"ZAR","available":"100","reserved":"0","total":"100"}]`},
	}}
	c := newTestClient(t, "key-1", "secret-1", transport)

	sheet, err := c.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("FetchBalance: %v", err)
	}
	if sheet["ZAR"].Free.String() != "100" {
		t.Fatalf("sheet = %+v", sheet)
	}

	var req *recordedRequest
	for i := range transport.requests {
		if strings.Contains(transport.requests[i].url, "balances") {
			req = &transport.requests[i]
		}
	}
	if req == nil {
		t.Fatalf("no balances request recorded")
	}
	if req.headers.Get(headerAPIKey) != "key-1" {
		t.Fatalf("api key header = %q", req.headers.Get(headerAPIKey))
	}
	ts := req.headers.Get(headerTimestamp)
	if ts != "1700000000000" {
		t.Fatalf("timestamp header = %q", ts)
	}
	millis, _ := strconv.ParseInt(ts, 10, 64)
	want := Sign("secret-1", millis, "GET", "/v1/account/balances?excludeZeroBalances=true", "")
	if got := req.headers.Get(headerSignature); got != want {
		t.Fatalf("signature = %q, want %q", got, want)
	}
}

func TestEnvelopeMessageBecomesAPIError(t *testing.T) {
	// A message field fails the call even on HTTP 200.
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/account/balances": {http.StatusOK, `{"code":-91,"message":"insufficient balance"}`},
	}}
	c := newTestClient(t, "k", "s", transport)

	_, err := c.FetchBalance(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Message != "insufficient balance" {
		t.Fatalf("Message = %q", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d", apiErr.StatusCode)
	}
	if len(apiErr.Envelope) == 0 {
		t.Fatalf("Envelope not retained")
	}
}

func TestHTTPErrorWithoutMessage(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/BTCZAR/marketsummary": {http.StatusBadGateway, `<html>bad gateway</html>`},
	}}
	c := newTestClient(t, "", "", transport)

	_, err := c.FetchTicker(context.Background(), "BTCZAR")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestTransportFailureSurfacesUnchanged(t *testing.T) {
	boom := errors.New("connection refused")
	transport := &fakeTransport{err: boom}
	c := newTestClient(t, "", "", transport)

	_, err := c.FetchMarkets(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}
}

func TestFetchTickerUnknownSymbol(t *testing.T) {
	c := newTestClient(t, "", "", &fakeTransport{})
	_, err := c.FetchTicker(context.Background(), "DOGEZAR")
	if !errors.Is(err, ErrUnknownMarket) {
		t.Fatalf("err = %v, want ErrUnknownMarket", err)
	}
}

func TestFetchTickersKeepsUnknownPairID(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/marketsummary": {http.StatusOK, `[
			{"currencyPair":"BTCZAR","lastTradedPrice":"1250000"},
			{"currencyPair":"OLDPAIR","lastTradedPrice":"5"}
		]`},
	}}
	c := newTestClient(t, "", "", transport)

	tickers, err := c.FetchTickers(context.Background())
	if err != nil {
		t.Fatalf("FetchTickers: %v", err)
	}
	if _, ok := tickers["BTCZAR"]; !ok {
		t.Fatalf("BTCZAR missing: %v", tickers)
	}
	// Summaries for pairs outside the catalog degrade to the raw id.
	if _, ok := tickers["OLDPAIR"]; !ok {
		t.Fatalf("OLDPAIR missing: %v", tickers)
	}
}

func TestFetchTradesQuery(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/BTCZAR/trades": {http.StatusOK, `[
			{"id":"t-1","price":"1250000","quantity":"0.005","currencyPair":"BTCZAR",
			 "tradedAt":"2024-03-01T10:15:00.000Z","takerSide":"buy"}
		]`},
	}}
	c := newTestClient(t, "", "", transport)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades, err := c.FetchTrades(context.Background(), "BTCZAR", &since, 10)
	if err != nil {
		t.Fatalf("FetchTrades: %v", err)
	}
	if len(trades) != 1 || trades[0].Side != "buy" {
		t.Fatalf("trades = %+v", trades)
	}

	last := transport.requests[len(transport.requests)-1]
	if !strings.Contains(last.url, "limit=10") {
		t.Fatalf("limit missing from %q", last.url)
	}
	if !strings.Contains(last.url, "startTime=2024-03-01T00%3A00%3A00Z") {
		t.Fatalf("startTime missing from %q", last.url)
	}
}

func TestFetchMyTradesRequiresSymbol(t *testing.T) {
	c := newTestClient(t, "k", "s", &fakeTransport{})
	_, err := c.FetchMyTrades(context.Background(), "", 0)
	if !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("err = %v, want ErrMissingArgument", err)
	}
}

func TestFetchOrderRequiresBothArguments(t *testing.T) {
	c := newTestClient(t, "k", "s", &fakeTransport{})
	if _, err := c.FetchOrder(context.Background(), "", "BTCZAR"); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("missing id: err = %v", err)
	}
	if _, err := c.FetchOrder(context.Background(), "o-1", ""); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("missing symbol: err = %v", err)
	}
}

func TestFetchOrdersFiltersByPair(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/orders/history": {http.StatusOK, `[
			{"orderId":"o-1","orderStatusType":"Filled","currencyPair":"BTCZAR","originalQuantity":"1"},
			{"orderId":"o-2","orderStatusType":"Filled","currencyPair":"ETHZAR","originalQuantity":"2"},
			{"orderId":"o-3","orderStatusType":"Cancelled","currencyPair":"BTCZAR","originalQuantity":"3"}
		]`},
	}}
	c := newTestClient(t, "k", "s", transport)

	orders, err := c.FetchOrders(context.Background(), "BTCZAR", 0)
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %+v", orders)
	}
	for _, o := range orders {
		if o.Symbol != "BTCZAR" {
			t.Fatalf("order %s has symbol %q", o.ID, o.Symbol)
		}
	}
}

func TestFetchTimePrefersISOField(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/time": {http.StatusOK, `{"epochTime":1709287200,"time":"2024-03-01T10:00:00.000Z"}`},
	}}
	c := newTestClient(t, "", "", transport)

	ts, err := c.FetchTime(context.Background())
	if err != nil {
		t.Fatalf("FetchTime: %v", err)
	}
	if !ts.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", ts)
	}
}

func TestFetchTimeEpochFallback(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/time": {http.StatusOK, `{"epochTime":1709287200}`},
	}}
	c := newTestClient(t, "", "", transport)

	ts, err := c.FetchTime(context.Background())
	if err != nil {
		t.Fatalf("FetchTime: %v", err)
	}
	if ts.Unix() != 1709287200 {
		t.Fatalf("time = %v", ts)
	}
}

func TestFetchStatus(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/public/status": {http.StatusOK, `{"status":"online"}`},
	}}
	c := newTestClient(t, "", "", transport)

	status, err := c.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	if status != "ok" {
		t.Fatalf("status = %q", status)
	}

	transport.responses["/v1/public/status"] = fakeResponse{http.StatusOK, `{"status":"read-only"}`}
	status, err = c.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	if status != "maintenance" {
		t.Fatalf("status = %q", status)
	}
}

func TestFetchAccounts(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/v1/account/subaccounts": {http.StatusOK, `[{"id":"996","label":"trading bot"}]`},
	}}
	c := newTestClient(t, "k", "s", transport)

	accounts, err := c.FetchAccounts(context.Background())
	if err != nil {
		t.Fatalf("FetchAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "996" || accounts[0].Name != "trading bot" {
		t.Fatalf("accounts = %+v", accounts)
	}
}

func TestAuthHeadersRequireCredentials(t *testing.T) {
	c := newTestClient(t, "", "", &fakeTransport{})
	if _, err := c.AuthHeaders("GET", "/ws/trade", ""); !errors.Is(err, ErrCredentials) {
		t.Fatalf("err = %v, want ErrCredentials", err)
	}

	c = newTestClient(t, "k", "s", &fakeTransport{})
	headers, err := c.AuthHeaders("GET", "/ws/trade", "")
	if err != nil {
		t.Fatalf("AuthHeaders: %v", err)
	}
	want := Sign("s", 1700000000000, "GET", "/ws/trade", "")
	if headers.Get(headerSignature) != want {
		t.Fatalf("signature = %q, want %q", headers.Get(headerSignature), want)
	}
}
