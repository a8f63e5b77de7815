package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

func TestToInstID(t *testing.T) {
	tests := []struct {
		symbol     string
		marketType model.MarketType
		want       string
	}{
		{"BTCUSDT", model.MarketSpot, "BTC-USDT"},
		{"BTCUSDT", model.MarketFutures, "BTC-USDT-SWAP"},
		{"ETHBTC", model.MarketSpot, "ETH-BTC"},
		{"SOLUSDC", model.MarketSpot, "SOL-USDC"},
		// No known quote suffix leaves the symbol as-is
		{"WEIRDPAIR", model.MarketSpot, "WEIRDPAIR"},
	}
	for _, tt := range tests {
		if got := toInstID(tt.symbol, tt.marketType); got != tt.want {
			t.Errorf("toInstID(%q, %s) = %q, want %q", tt.symbol, tt.marketType, got, tt.want)
		}
	}
}

const okxInstrumentsFixture = `{
	"code": "0",
	"msg": "",
	"data": [
		{
			"instId": "BTC-USDT-SWAP",
			"instType": "SWAP",
			"state": "live",
			"ctType": "linear",
			"tickSz": "0.1",
			"lotSz": "1"
		},
		{
			"instId": "BTC-USD-SWAP",
			"instType": "SWAP",
			"state": "live",
			"ctType": "inverse",
			"tickSz": "0.1",
			"lotSz": "1"
		}
	]
}`

const okxCandlesFixture = `{
	"code": "0",
	"msg": "",
	"data": [
		["1700003600000", "35150.0", "35250.0", "35100.0", "35200.0", "80.0", "0", "0", "1"],
		["1700000000000", "35000.0", "35150.0", "34950.0", "35150.0", "95.0", "0", "0", "1"]
	]
}`

func TestOKXGetSymbolsRecoversSwapAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/public/instruments" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(okxInstrumentsFixture))
	}))
	defer server.Close()

	c := NewOKXClient(zap.NewNop())
	c.baseURL = server.URL

	market := model.MarketFutures
	symbols, err := c.GetSymbols(context.Background(), &market)
	if err != nil {
		t.Fatalf("GetSymbols: %v", err)
	}

	if len(symbols) != 1 {
		t.Fatalf("expected only the linear swap, got %d symbols", len(symbols))
	}
	s := symbols[0]
	if s.Symbol != "BTCUSDT" || s.BaseAsset != "BTC" || s.QuoteAsset != "USDT" {
		t.Errorf("assets not recovered from instId: %+v", s)
	}
	if s.FullName != "OKX:BTC/USDT.P" {
		t.Errorf("full name: got %s", s.FullName)
	}
}

func TestOKXFetchKlinesReversesNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/candles" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("instId"); got != "BTC-USDT" {
			t.Errorf("instId: got %s, want BTC-USDT", got)
		}
		w.Write([]byte(okxCandlesFixture))
	}))
	defer server.Close()

	c := NewOKXClient(zap.NewNop())
	c.baseURL = server.URL

	klines, err := c.FetchKlines(context.Background(), "BTCUSDT", model.MarketSpot, "1H", KlineQuery{Limit: 2})
	if err != nil {
		t.Fatalf("FetchKlines: %v", err)
	}

	if len(klines) != 2 {
		t.Fatalf("expected 2 klines, got %d", len(klines))
	}
	if klines[0].OpenTime != 1700000000000 || klines[1].OpenTime != 1700003600000 {
		t.Errorf("klines not reversed into ascending order: %d, %d",
			klines[0].OpenTime, klines[1].OpenTime)
	}
}

func TestParseOKXRawCandleConfirmFlag(t *testing.T) {
	final := []string{"1700000000000", "1", "2", "0.5", "1.5", "10", "0", "0", "1"}
	kline, isFinal, ok := parseOKXRawCandle(final)
	if !ok || !isFinal {
		t.Errorf("expected confirmed candle, ok=%v isFinal=%v", ok, isFinal)
	}
	if kline.OpenTime != 1700000000000 || kline.Close != 1.5 {
		t.Errorf("unexpected kline: %+v", kline)
	}

	forming := []string{"1700000000000", "1", "2", "0.5", "1.5", "10", "0", "0", "0"}
	if _, isFinal, ok := parseOKXRawCandle(forming); !ok || isFinal {
		t.Errorf("expected unconfirmed candle, ok=%v isFinal=%v", ok, isFinal)
	}

	// A short candle without the confirm column still parses, as unconfirmed
	if _, isFinal, ok := parseOKXRawCandle(final[:6]); !ok || isFinal {
		t.Errorf("expected 6-column candle to parse unconfirmed, ok=%v isFinal=%v", ok, isFinal)
	}
}

func TestOKXMapResolution(t *testing.T) {
	c := NewOKXClient(zap.NewNop())
	tests := []struct {
		resolution string
		want       string
	}{
		{"1", "1m"},
		{"60", "1H"},
		{"240", "4H"},
		{"D", "1D"},
		{"1W", "1W"},
		{"M", "1M"},
		{"unknown", "1H"},
	}
	for _, tt := range tests {
		if got := c.MapResolution(tt.resolution); got != tt.want {
			t.Errorf("MapResolution(%q) = %q, want %q", tt.resolution, got, tt.want)
		}
	}
}
