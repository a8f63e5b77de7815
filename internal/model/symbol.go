package model

import (
	"strings"
)

// Exchange identifies one of the supported exchanges
type Exchange string

const (
	ExchangeBinance Exchange = "BINANCE"
	ExchangeBybit   Exchange = "BYBIT"
	ExchangeOKX     Exchange = "OKX"
)

// SupportedExchanges lists every exchange the service can route to
var SupportedExchanges = []Exchange{ExchangeBinance, ExchangeBybit, ExchangeOKX}

// MarketType distinguishes spot markets from perpetual futures
type MarketType string

const (
	MarketSpot    MarketType = "spot"
	MarketFutures MarketType = "futures"
)

// SymbolInfo represents one tradable instrument on one exchange/market
// combination, normalized across exchanges
type SymbolInfo struct {
	Symbol            string     `json:"symbol"` // native exchange code, e.g. "BTCUSDT"
	BaseAsset         string     `json:"baseAsset"`
	QuoteAsset        string     `json:"quoteAsset"`
	Exchange          Exchange   `json:"exchange"`
	MarketType        MarketType `json:"marketType"`
	PricePrecision    int        `json:"pricePrecision"`
	QuantityPrecision int        `json:"quantityPrecision"`
	DisplaySymbol     string     `json:"displaySymbol"` // "BASE/QUOTE" or "BASE/QUOTE.P"
	FullName          string     `json:"fullName"`      // "EXCHANGE:BASE/QUOTE[.P]"
}

// BuildDisplaySymbol formats the human display symbol: "BASE/QUOTE" for spot
// and "BASE/QUOTE.P" for perpetual futures
func BuildDisplaySymbol(baseAsset, quoteAsset string, marketType MarketType) string {
	display := strings.ToUpper(baseAsset) + "/" + strings.ToUpper(quoteAsset)
	if marketType == MarketFutures {
		display += ".P"
	}
	return display
}

// BuildFullName builds the fully-qualified symbol name used as the single
// string identifier across subsystem boundaries
func BuildFullName(exchange Exchange, baseAsset, quoteAsset string, marketType MarketType) string {
	return string(exchange) + ":" + BuildDisplaySymbol(baseAsset, quoteAsset, marketType)
}

// ParsedSymbol is the result of decomposing a fully-qualified symbol name
type ParsedSymbol struct {
	Exchange   Exchange
	MarketType MarketType
	Symbol     string // native exchange code
	Display    string // display symbol without the exchange prefix
}

// ParseFullName decomposes a fully-qualified name ("BINANCE:BTC/USDT.P") into
// exchange, market type and native symbol. A string without a recognized
// exchange prefix is treated as a Binance spot symbol rather than rejected.
func ParseFullName(fullName string) ParsedSymbol {
	exchange := ExchangeBinance
	display := fullName

	if idx := strings.Index(fullName, ":"); idx >= 0 {
		prefix := Exchange(strings.ToUpper(fullName[:idx]))
		for _, ex := range SupportedExchanges {
			if prefix == ex {
				exchange = ex
				display = fullName[idx+1:]
				break
			}
		}
	}

	marketType := MarketSpot
	if strings.HasSuffix(display, ".P") {
		marketType = MarketFutures
		display = strings.TrimSuffix(display, ".P")
	}

	native := strings.ToUpper(strings.ReplaceAll(display, "/", ""))

	parsed := ParsedSymbol{
		Exchange:   exchange,
		MarketType: marketType,
		Symbol:     native,
		Display:    strings.ToUpper(display),
	}
	if marketType == MarketFutures {
		parsed.Display += ".P"
	}
	return parsed
}
