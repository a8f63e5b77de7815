package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

const binanceExchangeInfoFixture = `{
	"symbols": [
		{
			"symbol": "BTCUSDT",
			"status": "TRADING",
			"baseAsset": "BTC",
			"quoteAsset": "USDT",
			"filters": [
				{"filterType": "PRICE_FILTER", "tickSize": "0.01000000"},
				{"filterType": "LOT_SIZE", "stepSize": "0.00001000"}
			]
		},
		{
			"symbol": "LUNAUSDT",
			"status": "BREAK",
			"baseAsset": "LUNA",
			"quoteAsset": "USDT",
			"filters": []
		}
	]
}`

const binanceKlinesFixture = `[
	[1700003600000, "35100.0", "35200.0", "35000.0", "35150.0", "120.5", 1700007199999],
	[1700000000000, "35000.0", "35100.0", "34900.0", "35050.0", "100.0", 1700003599999]
]`

func newTestBinanceClient(serverURL string) *BinanceClient {
	c := NewBinanceClient(zap.NewNop())
	c.spotBaseURL = serverURL
	c.futuresBaseURL = serverURL
	return c
}

func TestBinanceGetSymbols(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangeInfo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(binanceExchangeInfoFixture))
	}))
	defer server.Close()

	c := newTestBinanceClient(server.URL)
	market := model.MarketSpot
	symbols, err := c.GetSymbols(context.Background(), &market)
	if err != nil {
		t.Fatalf("GetSymbols: %v", err)
	}

	if len(symbols) != 1 {
		t.Fatalf("expected 1 tradable symbol, got %d", len(symbols))
	}

	s := symbols[0]
	if s.Symbol != "BTCUSDT" {
		t.Errorf("symbol: got %s", s.Symbol)
	}
	if s.PricePrecision != 2 {
		t.Errorf("price precision: got %d, want 2", s.PricePrecision)
	}
	if s.QuantityPrecision != 5 {
		t.Errorf("quantity precision: got %d, want 5", s.QuantityPrecision)
	}
	if s.FullName != "BINANCE:BTC/USDT" {
		t.Errorf("full name: got %s", s.FullName)
	}
}

func TestBinanceFetchKlinesAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/klines" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol query param: got %s", got)
		}
		w.Write([]byte(binanceKlinesFixture))
	}))
	defer server.Close()

	c := newTestBinanceClient(server.URL)
	klines, err := c.FetchKlines(context.Background(), "BTCUSDT", model.MarketSpot, "1h", KlineQuery{Limit: 2})
	if err != nil {
		t.Fatalf("FetchKlines: %v", err)
	}

	if len(klines) != 2 {
		t.Fatalf("expected 2 klines, got %d", len(klines))
	}
	if klines[0].OpenTime != 1700000000000 || klines[1].OpenTime != 1700003600000 {
		t.Errorf("klines not in ascending open-time order: %d, %d",
			klines[0].OpenTime, klines[1].OpenTime)
	}
	if klines[0].Close != 35050.0 {
		t.Errorf("first close: got %f", klines[0].Close)
	}
}

func TestParseBinanceRawKline(t *testing.T) {
	kline, ok := parseBinanceRawKline([]interface{}{
		float64(1700000000000), "100.5", "101.0", "99.5", "100.8", "42.0",
	})
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if kline.OpenTime != 1700000000000 || kline.High != 101.0 || kline.Volume != 42.0 {
		t.Errorf("unexpected kline: %+v", kline)
	}

	if _, ok := parseBinanceRawKline([]interface{}{float64(1), "1", "2"}); ok {
		t.Error("expected short array to fail")
	}
	if _, ok := parseBinanceRawKline([]interface{}{float64(1), "x", "2", "3", "4", "5"}); ok {
		t.Error("expected non-numeric price to fail")
	}
}

func TestBinanceMapResolution(t *testing.T) {
	c := NewBinanceClient(zap.NewNop())
	tests := []struct {
		resolution string
		want       string
	}{
		{"1", "1m"},
		{"60", "1h"},
		{"240", "4h"},
		{"D", "1d"},
		{"1D", "1d"},
		{"W", "1w"},
		{"M", "1M"},
		{"unknown", "1h"},
	}
	for _, tt := range tests {
		if got := c.MapResolution(tt.resolution); got != tt.want {
			t.Errorf("MapResolution(%q) = %q, want %q", tt.resolution, got, tt.want)
		}
	}
}
