package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	bybitAPIBaseURL    = "https://api.bybit.com"
	bybitSpotWSURL     = "wss://stream.bybit.com/v5/public/spot"
	bybitLinearWSURL   = "wss://stream.bybit.com/v5/public/linear"
	bybitPingInterval  = 20 * time.Second
)

// BybitClient adapts the Bybit v5 public API to the unified exchange
// contract. Spot maps to the "spot" category and perpetual futures to
// "linear".
type BybitClient struct {
	baseURL    string
	spotWSURL  string
	linearWSURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBybitClient creates a new Bybit adapter
func NewBybitClient(logger *zap.Logger) *BybitClient {
	return &BybitClient{
		baseURL:     bybitAPIBaseURL,
		spotWSURL:   bybitSpotWSURL,
		linearWSURL: bybitLinearWSURL,
		httpClient:  newHTTPClient(),
		logger:      logger,
	}
}

// Exchange identifies this adapter
func (c *BybitClient) Exchange() model.Exchange {
	return model.ExchangeBybit
}

func bybitCategory(marketType model.MarketType) string {
	if marketType == model.MarketFutures {
		return "linear"
	}
	return "spot"
}

// GetSymbols fetches all tradable instruments for the given market type, or
// both spot and futures when marketType is nil
func (c *BybitClient) GetSymbols(ctx context.Context, marketType *model.MarketType) ([]model.SymbolInfo, error) {
	markets := []model.MarketType{model.MarketSpot, model.MarketFutures}
	if marketType != nil {
		markets = []model.MarketType{*marketType}
	}

	var symbols []model.SymbolInfo
	for _, market := range markets {
		params := url.Values{}
		params.Add("category", bybitCategory(market))
		params.Add("limit", "1000")

		var resp model.BybitResponse
		reqURL := c.baseURL + "/v5/market/instruments-info?" + params.Encode()
		if err := getJSON(ctx, c.httpClient, reqURL, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch Bybit %s instruments: %w", market, err)
		}
		if resp.RetCode != 0 {
			return nil, fmt.Errorf("Bybit instruments request failed: %s (code %d)", resp.RetMsg, resp.RetCode)
		}

		var result model.BybitInstrumentsResult
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to decode Bybit instruments: %w", err)
		}

		for _, inst := range result.List {
			if inst.Status != "Trading" {
				continue
			}
			if market == model.MarketFutures && inst.ContractType != "LinearPerpetual" {
				continue
			}
			symbols = append(symbols, c.toSymbolInfo(inst, market))
		}
	}

	c.logger.Debug("Fetched Bybit symbols", zap.Int("count", len(symbols)))
	return symbols, nil
}

func (c *BybitClient) toSymbolInfo(inst model.BybitInstrument, market model.MarketType) model.SymbolInfo {
	// Spot lot sizes come as basePrecision, linear contracts as qtyStep
	qtyStep := inst.LotSizeFilter.QtyStep
	if qtyStep == "" {
		qtyStep = inst.LotSizeFilter.BasePrecision
	}

	return model.SymbolInfo{
		Symbol:            inst.Symbol,
		BaseAsset:         inst.BaseCoin,
		QuoteAsset:        inst.QuoteCoin,
		Exchange:          model.ExchangeBybit,
		MarketType:        market,
		PricePrecision:    decimalPlaces(inst.PriceFilter.TickSize),
		QuantityPrecision: decimalPlaces(qtyStep),
		DisplaySymbol:     model.BuildDisplaySymbol(inst.BaseCoin, inst.QuoteCoin, market),
		FullName:          model.BuildFullName(model.ExchangeBybit, inst.BaseCoin, inst.QuoteCoin, market),
	}
}

// FetchKlines fetches historical bars. Bybit returns newest-first, so the
// list is reversed into ascending open-time order.
func (c *BybitClient) FetchKlines(ctx context.Context, symbol string, marketType model.MarketType, interval string, query KlineQuery) ([]model.Kline, error) {
	params := url.Values{}
	params.Add("category", bybitCategory(marketType))
	params.Add("symbol", symbol)
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(capLimit(query.Limit)))
	if query.StartTime != nil {
		params.Add("start", strconv.FormatInt(*query.StartTime, 10))
	}
	if query.EndTime != nil {
		params.Add("end", strconv.FormatInt(*query.EndTime, 10))
	}

	var resp model.BybitResponse
	reqURL := c.baseURL + "/v5/market/kline?" + params.Encode()
	if err := getJSON(ctx, c.httpClient, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch Bybit klines for %s: %w", symbol, err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("Bybit kline request failed: %s (code %d)", resp.RetMsg, resp.RetCode)
	}

	var result model.BybitKlineResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode Bybit klines: %w", err)
	}

	klines := make([]model.Kline, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		kline, ok := parseBybitRawKline(result.List[i])
		if !ok {
			c.logger.Warn("Skipping malformed Bybit kline",
				zap.String("symbol", symbol),
				zap.Int("index", i))
			continue
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

// parseBybitRawKline converts one raw entry
// [start, open, high, low, close, volume, turnover] into a unified bar
func parseBybitRawKline(raw []string) (model.Kline, bool) {
	if len(raw) < 6 {
		return model.Kline{}, false
	}

	openTime, err := strconv.ParseInt(raw[0], 10, 64)
	if err != nil {
		return model.Kline{}, false
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(raw[i], 64)
		if err != nil {
			return model.Kline{}, false
		}
		values[i-1] = v
	}

	return model.Kline{
		OpenTime: openTime,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, true
}

// SubscribeKline opens a kline stream for one symbol and interval. Bybit
// requires an explicit subscribe frame and an application-level ping every
// 20 seconds.
func (c *BybitClient) SubscribeKline(symbol string, marketType model.MarketType, interval string, onKline KlineCallback) UnsubscribeFunc {
	wsURL := c.spotWSURL
	if marketType == model.MarketFutures {
		wsURL = c.linearWSURL
	}
	topic := fmt.Sprintf("kline.%s.%s", interval, symbol)

	stream := openKlineStream(streamConfig{
		name:         fmt.Sprintf("bybit:%s@%s", symbol, interval),
		url:          wsURL,
		logger:       c.logger,
		pingInterval: bybitPingInterval,
		pingPayload:  []byte(`{"op":"ping"}`),
		subscribe: func(conn *websocket.Conn) error {
			return conn.WriteJSON(map[string]interface{}{
				"op":   "subscribe",
				"args": []string{topic},
			})
		},
		handle: func(message []byte) {
			var msg model.BybitWsMessage
			if err := json.Unmarshal(message, &msg); err != nil || msg.Topic != topic {
				return
			}

			var entries []model.BybitWsKline
			if err := json.Unmarshal(msg.Data, &entries); err != nil {
				return
			}

			for _, k := range entries {
				open, err1 := strconv.ParseFloat(k.Open, 64)
				high, err2 := strconv.ParseFloat(k.High, 64)
				low, err3 := strconv.ParseFloat(k.Low, 64)
				closePrice, err4 := strconv.ParseFloat(k.Close, 64)
				volume, err5 := strconv.ParseFloat(k.Volume, 64)
				if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
					continue
				}

				onKline(model.KlineUpdate{
					Kline: model.Kline{
						OpenTime: k.Start,
						Open:     open,
						High:     high,
						Low:      low,
						Close:    closePrice,
						Volume:   volume,
					},
					IsFinal: k.Confirm,
				})
			}
		},
	})

	return stream.Close
}

// MapResolution maps a charting-library resolution token to a Bybit interval
// token; Bybit shares the minute vocabulary but uses bare D/W/M
func (c *BybitClient) MapResolution(resolution string) string {
	switch resolution {
	case "1", "3", "5", "15", "30", "60", "120", "240", "360", "720":
		return resolution
	case "D", "1D":
		return "D"
	case "W", "1W":
		return "W"
	case "M", "1M":
		return "M"
	default:
		return "60"
	}
}
