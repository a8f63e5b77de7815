package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/client"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

// BarProvider is the slice of the exchange manager the datafeed consumes
type BarProvider interface {
	FetchKlines(ctx context.Context, fullName, resolution string, query client.KlineQuery) ([]model.Kline, error)
	SubscribeKline(fullName, resolution string, onKline client.KlineCallback) (client.UnsubscribeFunc, error)
}

// BarCallback receives each synchronized bar for a widget subscription
type BarCallback func(model.Kline)

// DatafeedService bridges the charting widget's pull/push bar contract to the
// exchange manager. It keeps one "current forming candle" per
// (symbol, resolution) pair so live ticks update the right bar, and one
// unsubscribe handle per widget listener so unsubscription is targeted.
type DatafeedService struct {
	provider BarProvider
	logger   *zap.Logger

	mu          sync.Mutex
	currentBars map[string]model.Kline
	seeded      map[string]bool
	subs        map[string]client.UnsubscribeFunc
	lastPrices  map[string]float64
}

// NewDatafeedService creates a datafeed over the given provider
func NewDatafeedService(provider BarProvider, logger *zap.Logger) *DatafeedService {
	return &DatafeedService{
		provider:    provider,
		logger:      logger,
		currentBars: make(map[string]model.Kline),
		seeded:      make(map[string]bool),
		subs:        make(map[string]client.UnsubscribeFunc),
		lastPrices:  make(map[string]float64),
	}
}

func barKey(fullName, resolution string) string {
	return fullName + "|" + resolution
}

// GetBars serves one historical-bars request. The second return value is the
// explicit no-data flag: true means there is no more history in the requested
// range, as opposed to an error. On the first request for a
// (symbol, resolution) pair the last returned bar seeds the current-bar state.
func (s *DatafeedService) GetBars(ctx context.Context, fullName, resolution string, from, to int64, countBack int) ([]model.Kline, bool, error) {
	query := client.KlineQuery{Limit: countBack}
	if from > 0 {
		start := from
		query.StartTime = &start
	}
	if to > 0 {
		end := to
		query.EndTime = &end
	}

	klines, err := s.provider.FetchKlines(ctx, fullName, resolution, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch bars for %s: %w", fullName, err)
	}

	if len(klines) == 0 {
		return nil, true, nil
	}

	key := barKey(fullName, resolution)
	s.mu.Lock()
	if !s.seeded[key] {
		s.seeded[key] = true
		s.currentBars[key] = klines[len(klines)-1]
	}
	s.mu.Unlock()

	return klines, false, nil
}

// SubscribeBars opens a live bar subscription for one widget listener. A
// second subscription under the same listener id replaces the first.
func (s *DatafeedService) SubscribeBars(fullName, resolution, listenerID string, onBar BarCallback) error {
	key := barKey(fullName, resolution)

	unsubscribe, err := s.provider.SubscribeKline(fullName, resolution, func(update model.KlineUpdate) {
		bar := s.applyTick(key, fullName, update)
		onBar(bar)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe bars for %s: %w", fullName, err)
	}

	s.mu.Lock()
	previous := s.subs[listenerID]
	s.subs[listenerID] = unsubscribe
	s.mu.Unlock()

	if previous != nil {
		previous()
	}

	s.logger.Debug("Bar subscription opened",
		zap.String("symbol", fullName),
		zap.String("resolution", resolution),
		zap.String("listenerId", listenerID))
	return nil
}

// applyTick folds one live tick into the remembered current bar. A tick with
// a strictly newer open time starts a new bar; a tick for the same bar merges
// by running max/min on high/low and overwriting close and volume, because
// intra-bar ticks report the bar-so-far, not deltas.
func (s *DatafeedService) applyTick(key, fullName string, update model.KlineUpdate) model.Kline {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.currentBars[key]
	if !ok || update.OpenTime > current.OpenTime {
		current = update.Kline
	} else {
		if update.High > current.High {
			current.High = update.High
		}
		if update.Low < current.Low {
			current.Low = update.Low
		}
		current.Close = update.Close
		current.Volume = update.Volume
	}

	s.currentBars[key] = current
	s.lastPrices[fullName] = current.Close
	return current
}

// UnsubscribeBars tears down the subscription registered under listenerID.
// Unknown ids are ignored.
func (s *DatafeedService) UnsubscribeBars(listenerID string) {
	s.mu.Lock()
	unsubscribe := s.subs[listenerID]
	delete(s.subs, listenerID)
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		s.logger.Debug("Bar subscription closed", zap.String("listenerId", listenerID))
	}
}

// LastPrice returns the most recent live close seen for a fully-qualified
// symbol across all of its subscriptions
func (s *DatafeedService) LastPrice(fullName string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.lastPrices[fullName]
	return price, ok
}
