package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

const (
	binanceSpotAPIBaseURL    = "https://api.binance.com/api/v3"
	binanceFuturesAPIBaseURL = "https://fapi.binance.com/fapi/v1"
	binanceSpotWSBaseURL     = "wss://stream.binance.com:9443/ws"
	binanceFuturesWSBaseURL  = "wss://fstream.binance.com/ws"
)

// BinanceClient adapts the Binance spot and USD-M futures public APIs to the
// unified exchange contract
type BinanceClient struct {
	spotBaseURL    string
	futuresBaseURL string
	spotWSURL      string
	futuresWSURL   string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewBinanceClient creates a new Binance adapter
func NewBinanceClient(logger *zap.Logger) *BinanceClient {
	return &BinanceClient{
		spotBaseURL:    binanceSpotAPIBaseURL,
		futuresBaseURL: binanceFuturesAPIBaseURL,
		spotWSURL:      binanceSpotWSBaseURL,
		futuresWSURL:   binanceFuturesWSBaseURL,
		httpClient:     newHTTPClient(),
		logger:         logger,
	}
}

// Exchange identifies this adapter
func (c *BinanceClient) Exchange() model.Exchange {
	return model.ExchangeBinance
}

// GetSymbols fetches all tradable instruments for the given market type, or
// both spot and futures when marketType is nil
func (c *BinanceClient) GetSymbols(ctx context.Context, marketType *model.MarketType) ([]model.SymbolInfo, error) {
	markets := []model.MarketType{model.MarketSpot, model.MarketFutures}
	if marketType != nil {
		markets = []model.MarketType{*marketType}
	}

	var symbols []model.SymbolInfo
	for _, market := range markets {
		baseURL := c.spotBaseURL
		if market == model.MarketFutures {
			baseURL = c.futuresBaseURL
		}

		var info model.BinanceExchangeInfo
		if err := getJSON(ctx, c.httpClient, baseURL+"/exchangeInfo", &info); err != nil {
			return nil, fmt.Errorf("failed to fetch Binance %s exchange info: %w", market, err)
		}

		for _, s := range info.Symbols {
			if s.Status != "TRADING" {
				continue
			}
			if market == model.MarketFutures && s.ContractType != "PERPETUAL" {
				continue
			}
			symbols = append(symbols, c.toSymbolInfo(s, market))
		}
	}

	c.logger.Debug("Fetched Binance symbols", zap.Int("count", len(symbols)))
	return symbols, nil
}

func (c *BinanceClient) toSymbolInfo(s model.BinanceSymbol, market model.MarketType) model.SymbolInfo {
	pricePrecision := DefaultPrecision
	quantityPrecision := DefaultPrecision
	for _, f := range s.Filters {
		switch f.FilterType {
		case "PRICE_FILTER":
			pricePrecision = decimalPlaces(f.TickSize)
		case "LOT_SIZE":
			quantityPrecision = decimalPlaces(f.StepSize)
		}
	}

	return model.SymbolInfo{
		Symbol:            s.Symbol,
		BaseAsset:         s.BaseAsset,
		QuoteAsset:        s.QuoteAsset,
		Exchange:          model.ExchangeBinance,
		MarketType:        market,
		PricePrecision:    pricePrecision,
		QuantityPrecision: quantityPrecision,
		DisplaySymbol:     model.BuildDisplaySymbol(s.BaseAsset, s.QuoteAsset, market),
		FullName:          model.BuildFullName(model.ExchangeBinance, s.BaseAsset, s.QuoteAsset, market),
	}
}

// FetchKlines fetches historical bars in ascending open-time order
func (c *BinanceClient) FetchKlines(ctx context.Context, symbol string, marketType model.MarketType, interval string, query KlineQuery) ([]model.Kline, error) {
	baseURL := c.spotBaseURL
	if marketType == model.MarketFutures {
		baseURL = c.futuresBaseURL
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(capLimit(query.Limit)))
	if query.StartTime != nil {
		params.Add("startTime", strconv.FormatInt(*query.StartTime, 10))
	}
	if query.EndTime != nil {
		params.Add("endTime", strconv.FormatInt(*query.EndTime, 10))
	}

	var rawKlines [][]interface{}
	if err := getJSON(ctx, c.httpClient, baseURL+"/klines?"+params.Encode(), &rawKlines); err != nil {
		return nil, fmt.Errorf("failed to fetch Binance klines for %s: %w", symbol, err)
	}

	klines := make([]model.Kline, 0, len(rawKlines))
	for i, raw := range rawKlines {
		kline, ok := parseBinanceRawKline(raw)
		if !ok {
			c.logger.Warn("Skipping malformed Binance kline",
				zap.String("symbol", symbol),
				zap.Int("index", i))
			continue
		}
		klines = append(klines, kline)
	}

	sort.Slice(klines, func(i, j int) bool { return klines[i].OpenTime < klines[j].OpenTime })
	return klines, nil
}

// parseBinanceRawKline converts one raw kline array
// [openTime, open, high, low, close, volume, ...] into a unified bar
func parseBinanceRawKline(raw []interface{}) (model.Kline, bool) {
	if len(raw) < 6 {
		return model.Kline{}, false
	}

	openTime, ok := raw[0].(float64)
	if !ok {
		return model.Kline{}, false
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := raw[i].(string)
		if !ok {
			return model.Kline{}, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Kline{}, false
		}
		values[i-1] = v
	}

	return model.Kline{
		OpenTime: int64(openTime),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, true
}

// SubscribeKline opens a kline stream for one symbol and interval. Binance
// subscribes through the stream path, so no subscription frame is sent; the
// server pings and the websocket library answers with pongs automatically.
func (c *BinanceClient) SubscribeKline(symbol string, marketType model.MarketType, interval string, onKline KlineCallback) UnsubscribeFunc {
	wsBase := c.spotWSURL
	if marketType == model.MarketFutures {
		wsBase = c.futuresWSURL
	}
	streamURL := fmt.Sprintf("%s/%s@kline_%s", wsBase, strings.ToLower(symbol), interval)

	stream := openKlineStream(streamConfig{
		name:   fmt.Sprintf("binance:%s@%s", symbol, interval),
		url:    streamURL,
		logger: c.logger,
		handle: func(message []byte) {
			var event model.BinanceKlineEvent
			if err := json.Unmarshal(message, &event); err != nil || event.EventType != "kline" {
				return
			}

			open, err1 := strconv.ParseFloat(event.Kline.Open, 64)
			high, err2 := strconv.ParseFloat(event.Kline.High, 64)
			low, err3 := strconv.ParseFloat(event.Kline.Low, 64)
			closePrice, err4 := strconv.ParseFloat(event.Kline.Close, 64)
			volume, err5 := strconv.ParseFloat(event.Kline.Volume, 64)
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
				return
			}

			onKline(model.KlineUpdate{
				Kline: model.Kline{
					OpenTime: event.Kline.StartTime,
					Open:     open,
					High:     high,
					Low:      low,
					Close:    closePrice,
					Volume:   volume,
				},
				IsFinal: event.Kline.IsFinal,
			})
		},
	})

	return stream.Close
}

// MapResolution maps a charting-library resolution token to a Binance
// interval token
func (c *BinanceClient) MapResolution(resolution string) string {
	switch resolution {
	case "1":
		return "1m"
	case "3":
		return "3m"
	case "5":
		return "5m"
	case "15":
		return "15m"
	case "30":
		return "30m"
	case "60":
		return "1h"
	case "120":
		return "2h"
	case "240":
		return "4h"
	case "360":
		return "6h"
	case "720":
		return "12h"
	case "D", "1D":
		return "1d"
	case "W", "1W":
		return "1w"
	case "M", "1M":
		return "1M"
	default:
		return "1h"
	}
}
