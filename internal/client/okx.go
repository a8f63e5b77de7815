package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	okxAPIBaseURL   = "https://www.okx.com"
	okxWSBaseURL    = "wss://ws.okx.com:8443/ws/v5/business"
	okxPingInterval = 25 * time.Second
)

// okxQuoteCurrencies is the suffix list used to split a unified native symbol
// ("BTCUSDT") back into an OKX instrument id ("BTC-USDT"). Ordered so longer
// suffixes win before their prefixes.
var okxQuoteCurrencies = []string{"USDT", "USDC", "TUSD", "DAI", "BTC", "ETH", "EUR", "USD"}

// OKXClient adapts the OKX v5 public API to the unified exchange contract.
// Spot maps to the SPOT instrument type and perpetual futures to linear SWAP.
type OKXClient struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOKXClient creates a new OKX adapter
func NewOKXClient(logger *zap.Logger) *OKXClient {
	return &OKXClient{
		baseURL:    okxAPIBaseURL,
		wsURL:      okxWSBaseURL,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// Exchange identifies this adapter
func (c *OKXClient) Exchange() model.Exchange {
	return model.ExchangeOKX
}

// toInstID converts a unified native symbol into an OKX instrument id by
// splitting on a known quote-currency suffix: "BTCUSDT" becomes "BTC-USDT"
// and, for futures, "BTC-USDT-SWAP"
func toInstID(symbol string, marketType model.MarketType) string {
	instID := symbol
	for _, quote := range okxQuoteCurrencies {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			instID = symbol[:len(symbol)-len(quote)] + "-" + quote
			break
		}
	}
	if marketType == model.MarketFutures {
		instID += "-SWAP"
	}
	return instID
}

// GetSymbols fetches all live instruments for the given market type, or both
// spot and futures when marketType is nil. Non-linear (inverse) swaps are
// filtered out.
func (c *OKXClient) GetSymbols(ctx context.Context, marketType *model.MarketType) ([]model.SymbolInfo, error) {
	markets := []model.MarketType{model.MarketSpot, model.MarketFutures}
	if marketType != nil {
		markets = []model.MarketType{*marketType}
	}

	var symbols []model.SymbolInfo
	for _, market := range markets {
		instType := "SPOT"
		if market == model.MarketFutures {
			instType = "SWAP"
		}

		var resp model.OKXResponse
		reqURL := c.baseURL + "/api/v5/public/instruments?instType=" + instType
		if err := getJSON(ctx, c.httpClient, reqURL, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch OKX %s instruments: %w", market, err)
		}
		if resp.Code != "0" {
			return nil, fmt.Errorf("OKX instruments request failed: %s (code %s)", resp.Msg, resp.Code)
		}

		var instruments []model.OKXInstrument
		if err := json.Unmarshal(resp.Data, &instruments); err != nil {
			return nil, fmt.Errorf("failed to decode OKX instruments: %w", err)
		}

		for _, inst := range instruments {
			if inst.State != "live" {
				continue
			}
			if market == model.MarketFutures && inst.CtType != "linear" {
				continue
			}
			info, ok := c.toSymbolInfo(inst, market)
			if !ok {
				continue
			}
			symbols = append(symbols, info)
		}
	}

	c.logger.Debug("Fetched OKX symbols", zap.Int("count", len(symbols)))
	return symbols, nil
}

func (c *OKXClient) toSymbolInfo(inst model.OKXInstrument, market model.MarketType) (model.SymbolInfo, bool) {
	base := inst.BaseCcy
	quote := inst.QuoteCcy
	if base == "" || quote == "" {
		// Swap instruments carry no baseCcy/quoteCcy; recover both from the
		// instrument id ("BTC-USDT-SWAP")
		parts := strings.Split(inst.InstID, "-")
		if len(parts) < 2 {
			return model.SymbolInfo{}, false
		}
		base, quote = parts[0], parts[1]
	}

	return model.SymbolInfo{
		Symbol:            strings.ToUpper(base + quote),
		BaseAsset:         base,
		QuoteAsset:        quote,
		Exchange:          model.ExchangeOKX,
		MarketType:        market,
		PricePrecision:    decimalPlaces(inst.TickSz),
		QuantityPrecision: decimalPlaces(inst.LotSz),
		DisplaySymbol:     model.BuildDisplaySymbol(base, quote, market),
		FullName:          model.BuildFullName(model.ExchangeOKX, base, quote, market),
	}, true
}

// FetchKlines fetches historical bars. OKX returns newest-first, so the list
// is reversed into ascending open-time order.
func (c *OKXClient) FetchKlines(ctx context.Context, symbol string, marketType model.MarketType, interval string, query KlineQuery) ([]model.Kline, error) {
	params := url.Values{}
	params.Add("instId", toInstID(symbol, marketType))
	params.Add("bar", interval)
	params.Add("limit", strconv.Itoa(capLimit(query.Limit)))
	if query.StartTime != nil {
		// "before" returns records newer than the given timestamp
		params.Add("before", strconv.FormatInt(*query.StartTime-1, 10))
	}
	if query.EndTime != nil {
		// "after" returns records older than the given timestamp
		params.Add("after", strconv.FormatInt(*query.EndTime+1, 10))
	}

	var resp model.OKXResponse
	reqURL := c.baseURL + "/api/v5/market/candles?" + params.Encode()
	if err := getJSON(ctx, c.httpClient, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch OKX candles for %s: %w", symbol, err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("OKX candles request failed: %s (code %s)", resp.Msg, resp.Code)
	}

	var rawCandles [][]string
	if err := json.Unmarshal(resp.Data, &rawCandles); err != nil {
		return nil, fmt.Errorf("failed to decode OKX candles: %w", err)
	}

	klines := make([]model.Kline, 0, len(rawCandles))
	for i := len(rawCandles) - 1; i >= 0; i-- {
		kline, _, ok := parseOKXRawCandle(rawCandles[i])
		if !ok {
			c.logger.Warn("Skipping malformed OKX candle",
				zap.String("symbol", symbol),
				zap.Int("index", i))
			continue
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

// parseOKXRawCandle converts one raw candle array
// [ts, open, high, low, close, volume, ..., confirm] into a unified bar plus
// its confirmation flag
func parseOKXRawCandle(raw []string) (model.Kline, bool, bool) {
	if len(raw) < 6 {
		return model.Kline{}, false, false
	}

	openTime, err := strconv.ParseInt(raw[0], 10, 64)
	if err != nil {
		return model.Kline{}, false, false
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(raw[i], 64)
		if err != nil {
			return model.Kline{}, false, false
		}
		values[i-1] = v
	}

	isFinal := len(raw) > 8 && raw[8] == "1"

	return model.Kline{
		OpenTime: openTime,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, isFinal, true
}

// SubscribeKline opens a candle stream for one symbol and interval. OKX
// requires an explicit subscribe frame and a literal "ping" every 25 seconds;
// the "pong" replies are dropped by the JSON parse below.
func (c *OKXClient) SubscribeKline(symbol string, marketType model.MarketType, interval string, onKline KlineCallback) UnsubscribeFunc {
	instID := toInstID(symbol, marketType)
	channel := "candle" + interval

	stream := openKlineStream(streamConfig{
		name:         fmt.Sprintf("okx:%s@%s", instID, interval),
		url:          c.wsURL,
		logger:       c.logger,
		pingInterval: okxPingInterval,
		pingPayload:  []byte("ping"),
		subscribe: func(conn *websocket.Conn) error {
			return conn.WriteJSON(map[string]interface{}{
				"op": "subscribe",
				"args": []map[string]string{
					{"channel": channel, "instId": instID},
				},
			})
		},
		handle: func(message []byte) {
			var msg model.OKXWsMessage
			if err := json.Unmarshal(message, &msg); err != nil || msg.Event != "" {
				return
			}
			if msg.Arg.Channel != channel || msg.Arg.InstID != instID {
				return
			}

			var rawCandles [][]string
			if err := json.Unmarshal(msg.Data, &rawCandles); err != nil {
				return
			}

			for _, raw := range rawCandles {
				kline, isFinal, ok := parseOKXRawCandle(raw)
				if !ok {
					continue
				}
				onKline(model.KlineUpdate{Kline: kline, IsFinal: isFinal})
			}
		},
	})

	return stream.Close
}

// MapResolution maps a charting-library resolution token to an OKX bar token
func (c *OKXClient) MapResolution(resolution string) string {
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
		return "1H"
	case "120":
		return "2H"
	case "240":
		return "4H"
	case "360":
		return "6H"
	case "720":
		return "12H"
	case "D", "1D":
		return "1D"
	case "W", "1W":
		return "1W"
	case "M", "1M":
		return "1M"
	default:
		return "1H"
	}
}
