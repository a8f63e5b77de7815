package model

import (
	"encoding/json"
)

// OKXResponse is the common envelope of every OKX v5 REST response
type OKXResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// OKXInstrument represents one tradable instrument from OKX. Spot instruments
// carry baseCcy/quoteCcy; swaps carry ctValCcy/settleCcy instead.
type OKXInstrument struct {
	InstID    string `json:"instId"`
	InstType  string `json:"instType"`
	State     string `json:"state"`
	BaseCcy   string `json:"baseCcy"`
	QuoteCcy  string `json:"quoteCcy"`
	CtValCcy  string `json:"ctValCcy"`
	SettleCcy string `json:"settleCcy"`
	CtType    string `json:"ctType"`
	TickSz    string `json:"tickSz"`
	LotSz     string `json:"lotSz"`
}

// OKXWsMessage is the websocket push envelope. Event is set on
// subscribe/error frames, Data on market pushes.
type OKXWsMessage struct {
	Arg   OKXWsArg        `json:"arg"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OKXWsArg identifies the channel a websocket message belongs to
type OKXWsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}
