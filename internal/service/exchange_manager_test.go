package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/cache"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/client"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

// fakeExchangeClient serves a fixed symbol list and records call counts
type fakeExchangeClient struct {
	exchange   model.Exchange
	symbols    []model.SymbolInfo
	err        error
	getCalls   atomic.Int32
	fetchCalls atomic.Int32

	lastFetchSymbol   string
	lastFetchInterval string
	lastSubSymbol     string
	lastSubInterval   string
}

func (f *fakeExchangeClient) Exchange() model.Exchange { return f.exchange }

func (f *fakeExchangeClient) GetSymbols(ctx context.Context, marketType *model.MarketType) ([]model.SymbolInfo, error) {
	f.getCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if marketType == nil {
		return f.symbols, nil
	}
	var out []model.SymbolInfo
	for _, s := range f.symbols {
		if s.MarketType == *marketType {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeExchangeClient) FetchKlines(ctx context.Context, symbol string, marketType model.MarketType, interval string, query client.KlineQuery) ([]model.Kline, error) {
	f.fetchCalls.Add(1)
	f.lastFetchSymbol = symbol
	f.lastFetchInterval = interval
	return []model.Kline{{OpenTime: 1700000000000, Close: 100}}, nil
}

func (f *fakeExchangeClient) SubscribeKline(symbol string, marketType model.MarketType, interval string, onKline client.KlineCallback) client.UnsubscribeFunc {
	f.lastSubSymbol = symbol
	f.lastSubInterval = interval
	return func() {}
}

func (f *fakeExchangeClient) MapResolution(resolution string) string {
	if resolution == "60" {
		return "1h"
	}
	return resolution
}

func symbolFixture(exchange model.Exchange, base, quote string, market model.MarketType) model.SymbolInfo {
	return model.SymbolInfo{
		Symbol:        base + quote,
		BaseAsset:     base,
		QuoteAsset:    quote,
		Exchange:      exchange,
		MarketType:    market,
		DisplaySymbol: model.BuildDisplaySymbol(base, quote, market),
		FullName:      model.BuildFullName(exchange, base, quote, market),
	}
}

func newTestManager(clients ...client.ExchangeClient) *ExchangeManager {
	return NewExchangeManager(clients, cache.NewSymbolCache(time.Hour), zap.NewNop())
}

func TestGetAllSymbolsMergesAndToleratesFailure(t *testing.T) {
	binance := &fakeExchangeClient{
		exchange: model.ExchangeBinance,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeBinance, "BTC", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ETH", "USDT", model.MarketSpot),
		},
	}
	bybit := &fakeExchangeClient{
		exchange: model.ExchangeBybit,
		err:      errors.New("gateway timeout"),
	}
	okx := &fakeExchangeClient{
		exchange: model.ExchangeOKX,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeOKX, "SOL", "USDT", model.MarketSpot),
		},
	}

	m := newTestManager(binance, bybit, okx)
	symbols, err := m.GetAllSymbols(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("GetAllSymbols: %v", err)
	}

	// A failing exchange contributes nothing; merge order follows registration
	if len(symbols) != 3 {
		t.Fatalf("expected 3 merged symbols, got %d", len(symbols))
	}
	if symbols[0].Exchange != model.ExchangeBinance || symbols[2].Exchange != model.ExchangeOKX {
		t.Errorf("merge order broken: %v, %v", symbols[0].Exchange, symbols[2].Exchange)
	}
}

func TestGetAllSymbolsUsesCache(t *testing.T) {
	binance := &fakeExchangeClient{
		exchange: model.ExchangeBinance,
		symbols:  []model.SymbolInfo{symbolFixture(model.ExchangeBinance, "BTC", "USDT", model.MarketSpot)},
	}
	m := newTestManager(binance)

	if _, err := m.GetAllSymbols(context.Background(), nil, nil); err != nil {
		t.Fatalf("first GetAllSymbols: %v", err)
	}
	if _, err := m.GetAllSymbols(context.Background(), nil, nil); err != nil {
		t.Fatalf("second GetAllSymbols: %v", err)
	}

	if calls := binance.getCalls.Load(); calls != 1 {
		t.Errorf("expected one upstream fetch, got %d", calls)
	}
}

func TestSearchSymbolsEmptyQueryRanking(t *testing.T) {
	binance := &fakeExchangeClient{
		exchange: model.ExchangeBinance,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeBinance, "ZRX", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ETH", "BTC", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ADA", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "BTC", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "LTC", "BTC", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ETH", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "AXS", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "SOL", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "DOGE", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "XMR", "USDT", model.MarketSpot),
		},
	}
	m := newTestManager(binance)

	result, err := m.SearchSymbols(context.Background(), "", SearchOptions{Limit: 100})
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}
	if result.Total != 10 {
		t.Fatalf("total: got %d, want 10", result.Total)
	}

	// Popular USDT-quoted pairs lead in popularity order, then remaining USDT
	// pairs alphabetically by base, then everything else
	wantOrder := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "ADAUSDT", "DOGEUSDT", "AXSUSDT", "XMRUSDT", "ZRXUSDT", "ETHBTC", "LTCBTC"}
	for i, want := range wantOrder {
		if result.Symbols[i].Symbol != want {
			t.Errorf("position %d: got %s, want %s", i, result.Symbols[i].Symbol, want)
		}
	}
}

func TestSearchSymbolsQueryRanksExactBaseFirst(t *testing.T) {
	binance := &fakeExchangeClient{
		exchange: model.ExchangeBinance,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeBinance, "WBTC", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "BTC", "USDC", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "BTC", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ETH", "USDT", model.MarketSpot),
		},
	}
	m := newTestManager(binance)

	result, err := m.SearchSymbols(context.Background(), "btc", SearchOptions{Limit: 100})
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}

	// ETHUSDT matches nothing; exact-base BTC pairs lead with USDT quote first
	if result.Total != 3 {
		t.Fatalf("total: got %d, want 3", result.Total)
	}
	if result.Symbols[0].Symbol != "BTCUSDT" {
		t.Errorf("first: got %s, want BTCUSDT", result.Symbols[0].Symbol)
	}
	if result.Symbols[1].Symbol != "BTCUSDC" {
		t.Errorf("second: got %s, want BTCUSDC", result.Symbols[1].Symbol)
	}
	if result.Symbols[2].Symbol != "WBTCUSDT" {
		t.Errorf("third: got %s, want WBTCUSDT", result.Symbols[2].Symbol)
	}
}

func TestSearchSymbolsPaging(t *testing.T) {
	binance := &fakeExchangeClient{
		exchange: model.ExchangeBinance,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeBinance, "BTC", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "ETH", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBinance, "SOL", "USDT", model.MarketSpot),
		},
	}
	m := newTestManager(binance)

	result, err := m.SearchSymbols(context.Background(), "", SearchOptions{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total: got %d, want 3", result.Total)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Symbol != "ETHUSDT" {
		t.Errorf("page: got %+v", result.Symbols)
	}

	// Offset beyond the match count yields an empty page, not an error
	result, err = m.SearchSymbols(context.Background(), "", SearchOptions{Offset: 10, Limit: 5})
	if err != nil {
		t.Fatalf("SearchSymbols past end: %v", err)
	}
	if len(result.Symbols) != 0 || result.Total != 3 {
		t.Errorf("past-end page: got %d symbols, total %d", len(result.Symbols), result.Total)
	}
}

func TestResolveSymbolInfo(t *testing.T) {
	bybit := &fakeExchangeClient{
		exchange: model.ExchangeBybit,
		symbols: []model.SymbolInfo{
			symbolFixture(model.ExchangeBybit, "ETH", "USDT", model.MarketSpot),
			symbolFixture(model.ExchangeBybit, "ETH", "USDT", model.MarketFutures),
		},
	}
	m := newTestManager(bybit)

	info, err := m.ResolveSymbolInfo(context.Background(), "BYBIT:ETH/USDT.P")
	if err != nil {
		t.Fatalf("ResolveSymbolInfo: %v", err)
	}
	if info.MarketType != model.MarketFutures || info.Symbol != "ETHUSDT" {
		t.Errorf("resolved wrong record: %+v", info)
	}

	if _, err := m.ResolveSymbolInfo(context.Background(), "BYBIT:XXX/USDT"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestFetchKlinesRoutesAndMapsResolution(t *testing.T) {
	okx := &fakeExchangeClient{exchange: model.ExchangeOKX}
	m := newTestManager(okx)

	if _, err := m.FetchKlines(context.Background(), "OKX:BTC/USDT.P", "60", client.KlineQuery{}); err != nil {
		t.Fatalf("FetchKlines: %v", err)
	}
	if okx.lastFetchSymbol != "BTCUSDT" {
		t.Errorf("native symbol: got %s", okx.lastFetchSymbol)
	}
	if okx.lastFetchInterval != "1h" {
		t.Errorf("mapped interval: got %s", okx.lastFetchInterval)
	}
}

func TestSubscribeKlineRoutes(t *testing.T) {
	binance := &fakeExchangeClient{exchange: model.ExchangeBinance}
	m := newTestManager(binance)

	unsub, err := m.SubscribeKline("BINANCE:ETH/USDT", "60", func(model.KlineUpdate) {})
	if err != nil {
		t.Fatalf("SubscribeKline: %v", err)
	}
	defer unsub()

	if binance.lastSubSymbol != "ETHUSDT" || binance.lastSubInterval != "1h" {
		t.Errorf("subscription routing: %s @ %s", binance.lastSubSymbol, binance.lastSubInterval)
	}
}
