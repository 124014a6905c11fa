package valr

// Typed projections of the VALR wire formats. All numeric fields arrive as
// decimal strings and stay strings here; conversion happens in the
// normalizers so a single missing or malformed field never fails a payload.

type pairRecord struct {
	Symbol               string `json:"symbol"`
	BaseCurrency         string `json:"baseCurrency"`
	QuoteCurrency        string `json:"quoteCurrency"`
	ShortName            string `json:"shortName"`
	Active               bool   `json:"active"`
	MinBaseAmount        string `json:"minBaseAmount"`
	MaxBaseAmount        string `json:"maxBaseAmount"`
	MinQuoteAmount       string `json:"minQuoteAmount"`
	MaxQuoteAmount       string `json:"maxQuoteAmount"`
	TickSize             string `json:"tickSize"`
	BaseDecimalPlaces    string `json:"baseDecimalPlaces"`
	MarginTradingAllowed bool   `json:"marginTradingAllowed"`
	CurrencyPairType     string `json:"currencyPairType"`
}

type marketSummaryRecord struct {
	CurrencyPair       string `json:"currencyPair"`
	AskPrice           string `json:"askPrice"`
	BidPrice           string `json:"bidPrice"`
	LastTradedPrice    string `json:"lastTradedPrice"`
	PreviousClosePrice string `json:"previousClosePrice"`
	BaseVolume         string `json:"baseVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Created            string `json:"created"`
	ChangeFromPrevious string `json:"changeFromPrevious"`
	MarkPrice          string `json:"markPrice"`
}

// tradeRecord covers both the public and the private trade history shape;
// TakerSide is only present on public trades, Side and OrderID only on
// private ones.
type tradeRecord struct {
	ID           string `json:"id"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	CurrencyPair string `json:"currencyPair"`
	TradedAt     string `json:"tradedAt"`
	TakerSide    string `json:"takerSide"`
	Side         string `json:"side"`
	SequenceID   int64  `json:"sequenceId"`
	OrderID      string `json:"orderId"`
	QuoteVolume  string `json:"quoteVolume"`
}

type orderRecord struct {
	OrderID           string `json:"orderId"`
	OrderStatusType   string `json:"orderStatusType"`
	CurrencyPair      string `json:"currencyPair"`
	OriginalPrice     string `json:"originalPrice"`
	Price             string `json:"price"`
	RemainingQuantity string `json:"remainingQuantity"`
	OriginalQuantity  string `json:"originalQuantity"`
	OrderSide         string `json:"orderSide"`
	Side              string `json:"side"`
	OrderType         string `json:"orderType"`
	Type              string `json:"type"`
	FailedReason      string `json:"failedReason"`
	OrderUpdatedAt    string `json:"orderUpdatedAt"`
	UpdatedAt         string `json:"updatedAt"`
	OrderCreatedAt    string `json:"orderCreatedAt"`
	CreatedAt         string `json:"createdAt"`
	CustomerOrderID   string `json:"customerOrderId"`
	TimeInForce       string `json:"timeInForce"`
}

type walletRecord struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Reserved  string `json:"reserved"`
	Total     string `json:"total"`
	UpdatedAt string `json:"updatedAt"`
}

type subaccountRecord struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type bookEntry struct {
	Side         string `json:"side"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	CurrencyPair string `json:"currencyPair"`
	OrderCount   int    `json:"orderCount"`
}

type orderBookResponse struct {
	Asks       []bookEntry `json:"Asks"`
	Bids       []bookEntry `json:"Bids"`
	LastChange string      `json:"LastChange"`
}

type timeResponse struct {
	EpochTime int64  `json:"epochTime"`
	Time      string `json:"time"`
}

type statusResponse struct {
	Status string `json:"status"`
}
