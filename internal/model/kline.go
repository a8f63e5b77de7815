package model

// Kline represents one OHLCV candlestick bar. OpenTime is epoch milliseconds
// aligned to the bar's resolution; identity is open time plus the
// (symbol, resolution) context the bar was fetched under.
type Kline struct {
	OpenTime int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// KlineUpdate is a streaming kline plus a flag distinguishing an in-progress
// bar tick (subject to revision) from a closed, immutable bar. Updates that
// carry the same open time as a known bar replace it, never append.
type KlineUpdate struct {
	Kline
	IsFinal bool `json:"isFinal"`
}
