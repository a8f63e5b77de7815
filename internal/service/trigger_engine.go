package service

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the trigger evaluation tick
	DefaultPollInterval = time.Second

	// DefaultCooldown is the minimum time between successive firings of the
	// same trigger
	DefaultCooldown = 30 * time.Second

	// DefaultTolerance is the relative tolerance applied to condition
	// evaluation, as a fraction of the target value
	DefaultTolerance = 0.001
)

// shapeKeywords maps drawing source types to the substring used to find a
// matching shape when no explicit entity reference is given
var shapeKeywords = map[model.TriggerSourceType]string{
	model.SourceHorizontalLine: "horiz",
	model.SourceTrendline:      "trend",
	model.SourceFibRetracement: "fib",
}

// studyKeywords maps indicator source types to the substring matched against
// study names, case-insensitively. This is a best-effort heuristic; when
// several studies match, the first found wins.
var studyKeywords = map[model.TriggerSourceType]string{
	model.SourceEMA:           "ema",
	model.SourceSMA:           "sma",
	model.SourceRSI:           "rsi",
	model.SourceMACD:          "macd",
	model.SourceBollingerBand: "bollinger",
}

// TriggerCallback is invoked once per firing; the caller owns trigger storage
// and is responsible for persisting the new lastTriggeredAt
type TriggerCallback func(trigger model.Trigger, price, target float64, firedAt time.Time)

// TriggerAccessors decouple the engine from any specific widget or storage
// instance: the chart handle, live price and active trigger list are all
// supplied by the caller and re-read every tick
type TriggerAccessors struct {
	Chart    func() ChartHandle
	Price    func() (float64, bool)
	Triggers func() []model.Trigger
}

// TriggerEngineOptions tune the evaluation loop; zero values fall back to the
// defaults above
type TriggerEngineOptions struct {
	PollInterval time.Duration
	Cooldown     time.Duration
	Tolerance    float64
}

// TriggerEngine continuously checks whether any active trigger's condition
// has become true against live market data. It fires the callback at most
// once per cooldown window per trigger and never owns trigger storage.
type TriggerEngine struct {
	opts        TriggerEngineOptions
	accessors   TriggerAccessors
	onTriggered TriggerCallback
	logger      *zap.Logger
	now         func() time.Time

	mu   sync.Mutex
	stop chan struct{}
}

// NewTriggerEngine creates an engine; Start must be called to begin polling
func NewTriggerEngine(opts TriggerEngineOptions, accessors TriggerAccessors, onTriggered TriggerCallback, logger *zap.Logger) *TriggerEngine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return &TriggerEngine{
		opts:        opts,
		accessors:   accessors,
		onTriggered: onTriggered,
		logger:      logger,
		now:         time.Now,
	}
}

// Start begins the polling loop, replacing any previously running loop
func (e *TriggerEngine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stop != nil {
		close(e.stop)
	}
	stop := make(chan struct{})
	e.stop = stop

	go func() {
		ticker := time.NewTicker(e.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.evaluateTick()
			}
		}
	}()

	e.logger.Info("Trigger engine started",
		zap.Duration("pollInterval", e.opts.PollInterval),
		zap.Duration("cooldown", e.opts.Cooldown))
}

// Stop halts the polling loop synchronously; safe to call when not running
func (e *TriggerEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stop != nil {
		close(e.stop)
		e.stop = nil
		e.logger.Info("Trigger engine stopped")
	}
}

// evaluateTick runs one evaluation pass. An unavailable chart handle or price
// skips the whole tick; an unresolvable target skips that trigger. Neither is
// an error.
func (e *TriggerEngine) evaluateTick() {
	handle := e.accessors.Chart()
	if handle == nil {
		return
	}
	price, ok := e.accessors.Price()
	if !ok {
		return
	}

	now := e.now()
	for _, trigger := range e.accessors.Triggers() {
		if !trigger.Active {
			continue
		}
		if trigger.LastTriggeredAt != nil && now.Sub(*trigger.LastTriggeredAt) < e.opts.Cooldown {
			continue
		}

		target, resolved := e.resolveTarget(handle, trigger)
		if !resolved {
			continue
		}

		if e.evaluateCondition(trigger.Condition, price, target) {
			e.logger.Info("Trigger fired",
				zap.String("triggerId", trigger.ID),
				zap.String("name", trigger.Name),
				zap.Float64("price", price),
				zap.Float64("target", target))
			e.onTriggered(trigger, price, target, now)
		}
	}
}

// resolveTarget computes the price level a trigger is watching. Any
// resolution failure reports false: the condition is simply not met this
// tick.
func (e *TriggerEngine) resolveTarget(handle ChartHandle, trigger model.Trigger) (float64, bool) {
	switch trigger.Type {
	case model.TriggerDrawingTouch:
		return e.resolveDrawingTarget(handle, trigger)
	case model.TriggerIndicatorCross:
		return e.resolveIndicatorTarget(handle, trigger)
	default:
		// PATTERN triggers are reserved for future extension and never match
		return 0, false
	}
}

func (e *TriggerEngine) resolveDrawingTarget(handle ChartHandle, trigger model.Trigger) (float64, bool) {
	shape, ok := findShape(handle, trigger.Source)
	if !ok {
		return 0, false
	}

	points, err := handle.ShapePoints(shape.ID)
	if err != nil || len(points) == 0 {
		return 0, false
	}

	switch trigger.Source.Type {
	case model.SourceHorizontalLine:
		return points[0].Price, true

	case model.SourceTrendline:
		if len(points) < 2 {
			return 0, false
		}
		p1, p2 := points[0], points[1]
		if p2.Time == p1.Time {
			return p1.Price, true
		}
		nowMs := e.now().UnixMilli()
		ratio := float64(nowMs-p1.Time) / float64(p2.Time-p1.Time)
		return p1.Price + (p2.Price-p1.Price)*ratio, true

	case model.SourceFibRetracement:
		if len(points) < 2 {
			return 0, false
		}
		p1, p2 := points[0], points[1]
		return p2.Price + (p1.Price-p2.Price)*trigger.Source.FibLevel(), true

	default:
		return 0, false
	}
}

func findShape(handle ChartHandle, source model.TriggerSource) (model.ChartShape, bool) {
	shapes := handle.Shapes()

	if source.EntityID != "" {
		for _, shape := range shapes {
			if shape.ID == source.EntityID {
				return shape, true
			}
		}
		return model.ChartShape{}, false
	}

	keyword, ok := shapeKeywords[source.Type]
	if !ok {
		return model.ChartShape{}, false
	}
	for _, shape := range shapes {
		if strings.Contains(strings.ToLower(shape.Name), keyword) {
			return shape, true
		}
	}
	return model.ChartShape{}, false
}

func (e *TriggerEngine) resolveIndicatorTarget(handle ChartHandle, trigger model.Trigger) (float64, bool) {
	studies := handle.Studies()

	if trigger.Source.EntityID != "" {
		for _, study := range studies {
			if study.ID == trigger.Source.EntityID && study.Value != nil {
				return *study.Value, true
			}
		}
	}

	keyword, ok := studyKeywords[trigger.Source.Type]
	if !ok {
		return 0, false
	}
	for _, study := range studies {
		if strings.Contains(strings.ToLower(study.Name), keyword) && study.Value != nil {
			return *study.Value, true
		}
	}
	return 0, false
}

// evaluateCondition compares the live price against the resolved target
// within a relative tolerance band. CROSS_ABOVE/CROSS_BELOW capture the
// crossing instant inside the band, not sustained position beyond it; a fast
// move can step over the band between polls, which is accepted behavior.
func (e *TriggerEngine) evaluateCondition(condition model.TriggerCondition, price, target float64) bool {
	tolerance := math.Abs(target) * e.opts.Tolerance

	switch condition {
	case model.ConditionTouch:
		// Strictly inside the band; a price sitting exactly on the boundary
		// does not count as a touch
		return math.Abs(price-target) < tolerance
	case model.ConditionCrossAbove:
		return price >= target && price <= target+tolerance
	case model.ConditionCrossBelow:
		return price <= target && price >= target-tolerance
	case model.ConditionInside:
		return price <= target
	case model.ConditionOutside:
		return price >= target
	default:
		return false
	}
}
