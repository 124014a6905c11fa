package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MarketKind distinguishes spot pairs from perpetual futures. VALR has no
// expiring futures, so "swap" is the only contract kind.
type MarketKind string

const (
	KindSpot MarketKind = "spot"
	KindSwap MarketKind = "swap"
)

// MarketLimits holds the exchange reported order size boundaries for a pair.
// Price limits are quoted in the quote currency, amount limits in the base
// currency. A nil bound means the exchange did not report one.
type MarketLimits struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	MinPrice  *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice  *decimal.Decimal `json:"max_price,omitempty"`
}

// Market is the canonical description of a tradable pair. ID is the exchange
// native pair identifier and is unique for the session; Symbol is derived from
// it and stable for the lifetime of the catalog that produced it.
type Market struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Base            string          `json:"base"`
	Quote           string          `json:"quote"`
	Active          bool            `json:"active"`
	Margin          bool            `json:"margin"`
	Kind            MarketKind      `json:"kind"`
	AmountPrecision decimal.Decimal `json:"amount_precision"`
	PricePrecision  decimal.Decimal `json:"price_precision"`
	Limits          MarketLimits    `json:"limits"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Ticker is a 24h rolling market summary. Open is approximated from the
// previous close because the upstream window has no literal open; Close,
// Percentage, Average and QuoteVolume are not derivable from this exchange's
// payload and are deliberately absent from the type.
type Ticker struct {
	Symbol        string           `json:"symbol"`
	Timestamp     *time.Time       `json:"timestamp,omitempty"`
	Bid           *decimal.Decimal `json:"bid,omitempty"`
	Ask           *decimal.Decimal `json:"ask,omitempty"`
	Last          *decimal.Decimal `json:"last,omitempty"`
	High          *decimal.Decimal `json:"high,omitempty"`
	Low           *decimal.Decimal `json:"low,omitempty"`
	Open          *decimal.Decimal `json:"open,omitempty"`
	PreviousClose *decimal.Decimal `json:"previous_close,omitempty"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	BaseVolume    *decimal.Decimal `json:"base_volume,omitempty"`
}

// Trade is a single execution. OrderID is only present on private trade
// history. Fee fields do not exist on this type: the fee currency depends on
// maker/taker role and side, neither of which the wire payload discloses.
type Trade struct {
	ID        string           `json:"id"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Symbol    string           `json:"symbol"`
	OrderID   string           `json:"order_id,omitempty"`
	Side      string           `json:"side,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// Order is the canonical view of an exchange order. Amount is the original
// quantity and Remaining the unfilled part; Filled, Cost and Average are not
// derivable from a single order fetch (partial fills may have happened at
// multiple prices) and are deliberately absent.
type Order struct {
	ID                 string           `json:"id"`
	ClientOrderID      string           `json:"client_order_id,omitempty"`
	Timestamp          *time.Time       `json:"timestamp,omitempty"`
	LastTradeTimestamp *time.Time       `json:"last_trade_timestamp,omitempty"`
	Status             OrderStatus      `json:"status"`
	Symbol             string           `json:"symbol"`
	Type               string           `json:"type,omitempty"`
	Side               string           `json:"side,omitempty"`
	TimeInForce        string           `json:"time_in_force,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	Remaining          *decimal.Decimal `json:"remaining,omitempty"`
	Raw                json.RawMessage  `json:"raw,omitempty"`
}

// Balance is the per-currency wallet state.
type Balance struct {
	Free  *decimal.Decimal `json:"free,omitempty"`
	Used  *decimal.Decimal `json:"used,omitempty"`
	Total *decimal.Decimal `json:"total,omitempty"`
}

// BalanceSheet aggregates balances by currency code. It carries no snapshot
// timestamp: the upstream payload only reports per-wallet update times.
type BalanceSheet map[string]Balance

// Account is a subaccount attached to the API key's profile.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// PriceLevel is one side entry of an order book.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderBook holds bids (descending) and asks (ascending) exactly as reported
// by the exchange; levels are relabeled, never re-sorted.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}
