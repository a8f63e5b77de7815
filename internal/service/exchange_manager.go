package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/cache"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/client"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

// popularBaseAssets drives the default ("popularity") search ordering: these
// bases rank ahead of everything else, in this order
var popularBaseAssets = []string{
	"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "MATIC",
	"LINK", "LTC", "UNI", "ATOM", "XLM", "NEAR", "APT", "ARB", "OP", "FIL",
	"TRX", "ETC", "ICP", "AAVE", "INJ", "SUI", "PEPE", "SHIB", "TON", "TIA",
}

// SearchOptions narrows and pages a symbol search
type SearchOptions struct {
	Exchange   *model.Exchange
	MarketType *model.MarketType
	Offset     int
	Limit      int
}

// SearchResult is one page of matches plus the total match count, which
// callers use to drive infinite-scroll termination
type SearchResult struct {
	Symbols []model.SymbolInfo `json:"symbols"`
	Total   int                `json:"total"`
}

// ExchangeManager is the single entry point hiding the existence of multiple
// exchanges from the rest of the system. It routes by parsed fully-qualified
// symbol, merges and caches symbol catalogs, and is the only place resolution
// mapping and symbol parsing occur.
type ExchangeManager struct {
	clients map[model.Exchange]client.ExchangeClient
	order   []model.Exchange
	cache   *cache.SymbolCache
	logger  *zap.Logger
}

// NewExchangeManager creates a manager over the given exchange clients. The
// client slice order fixes the merged catalog order.
func NewExchangeManager(clients []client.ExchangeClient, symbolCache *cache.SymbolCache, logger *zap.Logger) *ExchangeManager {
	m := &ExchangeManager{
		clients: make(map[model.Exchange]client.ExchangeClient, len(clients)),
		cache:   symbolCache,
		logger:  logger,
	}
	for _, c := range clients {
		m.clients[c.Exchange()] = c
		m.order = append(m.order, c.Exchange())
	}
	return m
}

func symbolCacheKey(exchange *model.Exchange, marketType *model.MarketType) string {
	ex := "all"
	if exchange != nil {
		ex = string(*exchange)
	}
	market := "all"
	if marketType != nil {
		market = string(*marketType)
	}
	return ex + "|" + market
}

// GetAllSymbols returns the symbol catalog for one exchange, or the merged
// catalog across every registered exchange when exchange is nil. The merged
// fetch runs concurrently and tolerates individual exchange failures: a
// failing exchange contributes zero symbols. Results are cached.
func (m *ExchangeManager) GetAllSymbols(ctx context.Context, exchange *model.Exchange, marketType *model.MarketType) ([]model.SymbolInfo, error) {
	key := symbolCacheKey(exchange, marketType)
	if symbols, ok := m.cache.Get(key); ok {
		return symbols, nil
	}

	if exchange != nil {
		cl, ok := m.clients[*exchange]
		if !ok {
			return nil, fmt.Errorf("unknown exchange: %s", *exchange)
		}
		symbols, err := cl.GetSymbols(ctx, marketType)
		if err != nil {
			return nil, err
		}
		m.cache.Set(key, symbols)
		return symbols, nil
	}

	results := make([][]model.SymbolInfo, len(m.order))
	var wg sync.WaitGroup
	for i, ex := range m.order {
		wg.Add(1)
		go func(i int, ex model.Exchange) {
			defer wg.Done()
			symbols, err := m.clients[ex].GetSymbols(ctx, marketType)
			if err != nil {
				m.logger.Warn("Exchange symbol fetch failed, contributing no symbols",
					zap.String("exchange", string(ex)),
					zap.Error(err))
				return
			}
			results[i] = symbols
		}(i, ex)
	}
	wg.Wait()

	// Merge order follows client registration order, not arrival time
	var merged []model.SymbolInfo
	for _, symbols := range results {
		merged = append(merged, symbols...)
	}

	m.cache.Set(key, merged)
	return merged, nil
}

// SearchSymbols performs a case-insensitive substring match against native
// symbol, base asset, quote asset and display symbol, ranks the matches, and
// returns the requested page plus the total match count
func (m *ExchangeManager) SearchSymbols(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	all, err := m.GetAllSymbols(ctx, opts.Exchange, opts.MarketType)
	if err != nil {
		return SearchResult{}, err
	}

	upperQuery := strings.ToUpper(strings.TrimSpace(query))
	var matches []model.SymbolInfo
	for _, s := range all {
		if upperQuery == "" ||
			strings.Contains(strings.ToUpper(s.Symbol), upperQuery) ||
			strings.Contains(strings.ToUpper(s.BaseAsset), upperQuery) ||
			strings.Contains(strings.ToUpper(s.QuoteAsset), upperQuery) ||
			strings.Contains(strings.ToUpper(s.DisplaySymbol), upperQuery) {
			matches = append(matches, s)
		}
	}

	rankSymbols(matches, upperQuery)

	total := len(matches)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if opts.Limit > 0 && offset+opts.Limit < total {
		end = offset + opts.Limit
	}

	return SearchResult{Symbols: matches[offset:end], Total: total}, nil
}

// rankSymbols orders matches in place. With an empty query this is the
// popularity ordering: USDT-quoted pairs first, well-known bases next, then
// alphabetical by base. A non-empty query additionally ranks exact base-asset
// matches first.
func rankSymbols(symbols []model.SymbolInfo, upperQuery string) {
	sort.SliceStable(symbols, func(i, j int) bool {
		a, b := symbols[i], symbols[j]

		if upperQuery != "" {
			aExact := strings.ToUpper(a.BaseAsset) == upperQuery
			bExact := strings.ToUpper(b.BaseAsset) == upperQuery
			if aExact != bExact {
				return aExact
			}
		}

		aUSDT := a.QuoteAsset == "USDT"
		bUSDT := b.QuoteAsset == "USDT"
		if aUSDT != bUSDT {
			return aUSDT
		}

		if upperQuery == "" {
			aRank := popularityRank(a.BaseAsset)
			bRank := popularityRank(b.BaseAsset)
			if aRank != bRank {
				return aRank < bRank
			}
		}

		return a.BaseAsset < b.BaseAsset
	})
}

func popularityRank(baseAsset string) int {
	upper := strings.ToUpper(baseAsset)
	for i, base := range popularBaseAssets {
		if base == upper {
			return i
		}
	}
	return len(popularBaseAssets)
}

// ResolveSymbolInfo looks up one symbol's full metadata record by its
// fully-qualified name
func (m *ExchangeManager) ResolveSymbolInfo(ctx context.Context, fullName string) (*model.SymbolInfo, error) {
	parsed := model.ParseFullName(fullName)
	canonical := string(parsed.Exchange) + ":" + parsed.Display

	symbols, err := m.GetAllSymbols(ctx, &parsed.Exchange, &parsed.MarketType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s symbols: %w", parsed.Exchange, err)
	}

	for i := range symbols {
		if symbols[i].FullName == canonical {
			return &symbols[i], nil
		}
	}
	return nil, fmt.Errorf("symbol not found: %s", fullName)
}

// FetchKlines parses the fully-qualified symbol, maps the charting-library
// resolution to the exchange's native interval and delegates to the right
// client
func (m *ExchangeManager) FetchKlines(ctx context.Context, fullName, resolution string, query client.KlineQuery) ([]model.Kline, error) {
	parsed := model.ParseFullName(fullName)
	cl, ok := m.clients[parsed.Exchange]
	if !ok {
		return nil, fmt.Errorf("unknown exchange: %s", parsed.Exchange)
	}
	return cl.FetchKlines(ctx, parsed.Symbol, parsed.MarketType, cl.MapResolution(resolution), query)
}

// SubscribeKline parses the fully-qualified symbol and opens a live kline
// subscription on the right client
func (m *ExchangeManager) SubscribeKline(fullName, resolution string, onKline client.KlineCallback) (client.UnsubscribeFunc, error) {
	parsed := model.ParseFullName(fullName)
	cl, ok := m.clients[parsed.Exchange]
	if !ok {
		return nil, fmt.Errorf("unknown exchange: %s", parsed.Exchange)
	}
	return cl.SubscribeKline(parsed.Symbol, parsed.MarketType, cl.MapResolution(resolution), onKline), nil
}
