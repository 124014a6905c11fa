package valr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"valrgo/models"
)

// optDecimal projects an optional decimal string field: absent or malformed
// values stay unset instead of failing the payload.
func optDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// optTime parses the exchange's ISO-8601 timestamps. Absent or unparseable
// values stay unset, never zero.
func optTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// firstOf returns the first non-empty string. The private and public variants
// of some payloads name the same field differently.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizeMarket builds the canonical market from a raw pair record.
// AmountPrecision interprets baseDecimalPlaces as a power-of-ten increment
// (8 -> 0.00000001); PricePrecision is the tick size verbatim. Both are
// exact decimals, so decimal place counts beyond float64 range are fine.
func normalizeMarket(raw pairRecord, rawJSON json.RawMessage) (models.Market, error) {
	places, err := strconv.ParseInt(raw.BaseDecimalPlaces, 10, 32)
	if err != nil {
		return models.Market{}, fmt.Errorf("pair %s: bad baseDecimalPlaces %q: %w", raw.Symbol, raw.BaseDecimalPlaces, err)
	}
	tick, err := decimal.NewFromString(raw.TickSize)
	if err != nil {
		return models.Market{}, fmt.Errorf("pair %s: bad tickSize %q: %w", raw.Symbol, raw.TickSize, err)
	}

	kind := models.KindSpot
	if raw.CurrencyPairType == "FUTURE" {
		// VALR futures are perpetuals, there are no expiring contracts.
		kind = models.KindSwap
	}

	return models.Market{
		ID:              raw.Symbol,
		Symbol:          raw.Symbol,
		Base:            raw.BaseCurrency,
		Quote:           raw.QuoteCurrency,
		Active:          raw.Active,
		Margin:          raw.MarginTradingAllowed,
		Kind:            kind,
		AmountPrecision: decimal.New(1, -int32(places)),
		PricePrecision:  tick,
		Limits: models.MarketLimits{
			MinAmount: optDecimal(raw.MinBaseAmount),
			MaxAmount: optDecimal(raw.MaxBaseAmount),
			// Price limits pair min/max quote amount. The upstream reference
			// implementation read a nonexistent field for the max; corrected
			// here to the matching maxQuoteAmount.
			MinPrice: optDecimal(raw.MinQuoteAmount),
			MaxPrice: optDecimal(raw.MaxQuoteAmount),
		},
		Raw: rawJSON,
	}, nil
}

// normalizeTicker maps a market summary. Open is the previous close: the
// upstream 24h rolling window reports no literal open, so this is an
// approximation by design.
func normalizeTicker(raw marketSummaryRecord, symbol string) models.Ticker {
	previousClose := optDecimal(raw.PreviousClosePrice)
	return models.Ticker{
		Symbol:        symbol,
		Timestamp:     optTime(raw.Created),
		Bid:           optDecimal(raw.BidPrice),
		Ask:           optDecimal(raw.AskPrice),
		Last:          optDecimal(raw.LastTradedPrice),
		High:          optDecimal(raw.HighPrice),
		Low:           optDecimal(raw.LowPrice),
		Open:          previousClose,
		PreviousClose: previousClose,
		Change:        optDecimal(raw.ChangeFromPrevious),
		BaseVolume:    optDecimal(raw.BaseVolume),
	}
}

// normalizeTrade maps a public or private trade record. Fees stay unset: the
// fee currency depends on maker/taker role and side, and the payload does not
// disclose the role.
func normalizeTrade(raw tradeRecord, symbol string) models.Trade {
	return models.Trade{
		ID:        raw.ID,
		Timestamp: optTime(raw.TradedAt),
		Symbol:    symbol,
		OrderID:   raw.OrderID,
		Side:      firstOf(raw.Side, raw.TakerSide),
		Price:     optDecimal(raw.Price),
		Amount:    optDecimal(raw.Quantity),
	}
}

func normalizeOrder(raw orderRecord, symbol string, rawJSON json.RawMessage) models.Order {
	return models.Order{
		ID:                 raw.OrderID,
		ClientOrderID:      raw.CustomerOrderID,
		Timestamp:          optTime(firstOf(raw.OrderCreatedAt, raw.CreatedAt)),
		LastTradeTimestamp: optTime(firstOf(raw.OrderUpdatedAt, raw.UpdatedAt)),
		Status:             models.ParseOrderStatus(raw.OrderStatusType),
		Symbol:             symbol,
		Type:               firstOf(raw.OrderType, raw.Type),
		Side:               firstOf(raw.OrderSide, raw.Side),
		TimeInForce:        raw.TimeInForce,
		Price:              optDecimal(firstOf(raw.OriginalPrice, raw.Price)),
		Amount:             optDecimal(raw.OriginalQuantity),
		Remaining:          optDecimal(raw.RemainingQuantity),
		Raw:                rawJSON,
	}
}

// StreamTrade is the shape of a NEW_TRADE websocket event payload.
type StreamTrade struct {
	ID           string
	Price        string
	Quantity     string
	CurrencyPair string
	TradedAt     string
	TakerSide    string
}

// NormalizeStreamTrade applies the same projection rules to a websocket trade
// as the REST trade endpoints: string decimals, RFC 3339 time, taker side.
func NormalizeStreamTrade(raw StreamTrade, symbol string) models.Trade {
	return normalizeTrade(tradeRecord{
		ID:        raw.ID,
		Price:     raw.Price,
		Quantity:  raw.Quantity,
		TradedAt:  raw.TradedAt,
		TakerSide: raw.TakerSide,
	}, symbol)
}

func normalizeBalances(raws []walletRecord) models.BalanceSheet {
	sheet := make(models.BalanceSheet, len(raws))
	for _, w := range raws {
		sheet[w.Currency] = models.Balance{
			Free:  optDecimal(w.Available),
			Used:  optDecimal(w.Reserved),
			Total: optDecimal(w.Total),
		}
	}
	return sheet
}

// normalizeOrderBook relabels book levels without re-sorting: bids arrive
// descending and asks ascending, as reported.
func normalizeOrderBook(raw orderBookResponse, symbol string) models.OrderBook {
	book := models.OrderBook{
		Symbol:    symbol,
		Timestamp: optTime(raw.LastChange),
		Bids:      make([]models.PriceLevel, 0, len(raw.Bids)),
		Asks:      make([]models.PriceLevel, 0, len(raw.Asks)),
	}
	for _, e := range raw.Bids {
		if level, ok := bookLevel(e); ok {
			book.Bids = append(book.Bids, level)
		}
	}
	for _, e := range raw.Asks {
		if level, ok := bookLevel(e); ok {
			book.Asks = append(book.Asks, level)
		}
	}
	return book
}

func bookLevel(e bookEntry) (models.PriceLevel, bool) {
	price := optDecimal(e.Price)
	qty := optDecimal(e.Quantity)
	if price == nil || qty == nil {
		return models.PriceLevel{}, false
	}
	return models.PriceLevel{Price: *price, Quantity: *qty}, true
}
