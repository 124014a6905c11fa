package valr

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// endpoint describes one upstream route: HTTP method, templated path with
// {param} placeholders, the rate weight charged against the admission gate
// and whether the call must be signed.
type endpoint struct {
	method  string
	path    string
	weight  int
	private bool
}

var endpoints = map[string]endpoint{
	// public
	"marketSummary":     {http.MethodGet, "/v1/public/marketsummary", 1, false},
	"pairMarketSummary": {http.MethodGet, "/v1/public/{pair}/marketsummary", 1, false},
	"pairs":             {http.MethodGet, "/v1/public/pairs", 1, false},
	"pairTrades":        {http.MethodGet, "/v1/public/{pair}/trades", 1, false},
	"pairOrderBook":     {http.MethodGet, "/v1/public/{pair}/orderbook", 1, false},
	"serverTime":        {http.MethodGet, "/v1/public/time", 1, false},
	"serverStatus":      {http.MethodGet, "/v1/public/status", 1, false},
	// private
	"balances":            {http.MethodGet, "/v1/account/balances", 1, true},
	"subaccounts":         {http.MethodGet, "/v1/account/subaccounts", 1, true},
	"accountTradeHistory": {http.MethodGet, "/v1/account/{pair}/tradehistory", 1, true},
	"orderByID":           {http.MethodGet, "/v1/orders/{pair}/orderid/{orderId}", 1, true},
	"openOrders":          {http.MethodGet, "/v1/orders/open", 1, true},
	"orderHistory":        {http.MethodGet, "/v1/orders/history", 1, true},
}

// buildPath substitutes path parameters into a template and appends the
// remaining parameters as a query string. Every placeholder must be bound.
func buildPath(template string, pathParams map[string]string, query url.Values) (string, error) {
	path := template
	for name, value := range pathParams {
		placeholder := "{" + name + "}"
		if !strings.Contains(path, placeholder) {
			return "", fmt.Errorf("path %s has no parameter %q", template, name)
		}
		path = strings.Replace(path, placeholder, url.PathEscape(value), 1)
	}
	if idx := strings.IndexByte(path, '{'); idx >= 0 {
		return "", fmt.Errorf("path %s left unbound parameter %s", template, path[idx:])
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}
