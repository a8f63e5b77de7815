package model

// BinanceExchangeInfo represents the exchange information response from the
// Binance spot and futures APIs
type BinanceExchangeInfo struct {
	Timezone   string          `json:"timezone"`
	ServerTime int64           `json:"serverTime"`
	Symbols    []BinanceSymbol `json:"symbols"`
}

// BinanceSymbol represents a trading symbol from the Binance API
type BinanceSymbol struct {
	Symbol       string          `json:"symbol"`
	Status       string          `json:"status"`
	BaseAsset    string          `json:"baseAsset"`
	QuoteAsset   string          `json:"quoteAsset"`
	ContractType string          `json:"contractType,omitempty"` // futures only
	Filters      []BinanceFilter `json:"filters"`
}

// BinanceFilter represents one entry of a symbol's filter list; only the
// price and lot-size filters are consumed
type BinanceFilter struct {
	FilterType string `json:"filterType"`
	TickSize   string `json:"tickSize,omitempty"`
	StepSize   string `json:"stepSize,omitempty"`
}

// BinanceKlineEvent is the websocket kline event envelope
type BinanceKlineEvent struct {
	EventType string         `json:"e"`
	Symbol    string         `json:"s"`
	Kline     BinanceWsKline `json:"k"`
}

// BinanceWsKline is the kline payload inside a websocket kline event
type BinanceWsKline struct {
	StartTime int64  `json:"t"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	IsFinal   bool   `json:"x"`
}
