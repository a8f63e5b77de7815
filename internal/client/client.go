package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
)

const (
	// MaxKlinesLimit caps historical kline fetches across all exchanges
	MaxKlinesLimit = 1000

	// DefaultPrecision is used when tick/step-size metadata carries no
	// fractional digits
	DefaultPrecision = 2
)

// KlineCallback receives every live kline update for a subscription
type KlineCallback func(model.KlineUpdate)

// UnsubscribeFunc tears down one kline subscription. It is idempotent; after
// it returns no further callback invocations or reconnect attempts occur.
type UnsubscribeFunc func()

// KlineQuery bounds a historical kline fetch. Start/End are optional epoch
// millisecond bounds; Limit is capped at MaxKlinesLimit.
type KlineQuery struct {
	StartTime *int64
	EndTime   *int64
	Limit     int
}

// ExchangeClient is the capability contract every exchange adapter satisfies.
// The rest of the system depends only on this interface, never on an
// exchange's wire format. Symbols passed in are always native exchange codes;
// intervals are always the exchange's native vocabulary.
type ExchangeClient interface {
	// Exchange identifies the adapter
	Exchange() model.Exchange

	// GetSymbols fetches all tradable instruments for the given market type,
	// or for both spot and futures when marketType is nil
	GetSymbols(ctx context.Context, marketType *model.MarketType) ([]model.SymbolInfo, error)

	// FetchKlines fetches historical bars in ascending open-time order
	FetchKlines(ctx context.Context, symbol string, marketType model.MarketType, interval string, query KlineQuery) ([]model.Kline, error)

	// SubscribeKline opens a persistent push connection for one symbol and
	// interval, reconnecting internally on unexpected closes
	SubscribeKline(symbol string, marketType model.MarketType, interval string, onKline KlineCallback) UnsubscribeFunc

	// MapResolution maps a charting-library resolution token to the
	// exchange's native interval token, falling back to one hour
	MapResolution(resolution string) string
}

// getJSON performs a GET request and decodes the JSON response into target
func getJSON(ctx context.Context, httpClient *http.Client, reqURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// newHTTPClient returns the HTTP client shared by all exchange adapters
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// decimalPlaces counts the significant decimal digits of a tick/step size
// string: "0.01000000" yields 2, "0.00025" yields 5. A value with no non-zero
// fractional digit yields DefaultPrecision.
func decimalPlaces(step string) int {
	idx := strings.Index(step, ".")
	if idx < 0 {
		return DefaultPrecision
	}

	fraction := strings.TrimRight(step[idx+1:], "0")
	if fraction == "" {
		return DefaultPrecision
	}
	return len(fraction)
}

// capLimit clamps a requested kline count to the exchange maximum
func capLimit(limit int) int {
	if limit <= 0 || limit > MaxKlinesLimit {
		return MaxKlinesLimit
	}
	return limit
}
