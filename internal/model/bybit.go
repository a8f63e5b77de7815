package model

import (
	"encoding/json"
)

// BybitResponse is the common envelope of every Bybit v5 REST response
type BybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// BybitInstrumentsResult is the result payload of the instruments-info endpoint
type BybitInstrumentsResult struct {
	Category string            `json:"category"`
	List     []BybitInstrument `json:"list"`
}

// BybitInstrument represents one tradable instrument from Bybit
type BybitInstrument struct {
	Symbol        string               `json:"symbol"`
	Status        string               `json:"status"`
	BaseCoin      string               `json:"baseCoin"`
	QuoteCoin     string               `json:"quoteCoin"`
	ContractType  string               `json:"contractType,omitempty"` // linear only
	PriceFilter   BybitPriceFilter     `json:"priceFilter"`
	LotSizeFilter BybitLotSizeFilter   `json:"lotSizeFilter"`
}

// BybitPriceFilter carries the instrument's tick size
type BybitPriceFilter struct {
	TickSize string `json:"tickSize"`
}

// BybitLotSizeFilter carries the instrument's quantity step
type BybitLotSizeFilter struct {
	QtyStep             string `json:"qtyStep,omitempty"`
	BasePrecision       string `json:"basePrecision,omitempty"`
	MinOrderQty         string `json:"minOrderQty,omitempty"`
}

// BybitKlineResult is the result payload of the kline endpoint. Each list
// entry is [start, open, high, low, close, volume, turnover] as strings,
// ordered newest first.
type BybitKlineResult struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

// BybitWsMessage is the websocket push envelope
type BybitWsMessage struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Op    string          `json:"op,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// BybitWsKline is one kline entry of a websocket kline push
type BybitWsKline struct {
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Interval string `json:"interval"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
	Confirm  bool   `json:"confirm"`
}
