package notifier

import (
	"context"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

// TriggerEvent is the payload published when a trigger fires
type TriggerEvent struct {
	TriggerID string                  `json:"triggerId"`
	Name      string                  `json:"name"`
	Type      model.TriggerType       `json:"type"`
	Condition model.TriggerCondition  `json:"condition"`
	Action    model.TriggerActionType `json:"action"`
	Symbol    string                  `json:"symbol"`
	Price     float64                 `json:"price"`
	Target    float64                 `json:"target"`
	FiredAt   time.Time               `json:"firedAt"`
}

// Notifier delivers trigger firings to whoever listens. Delivery is
// best-effort; a failing notifier never blocks evaluation.
type Notifier interface {
	Notify(ctx context.Context, event TriggerEvent) error
}

// LogNotifier reports firings through the service log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the trigger event
func (n *LogNotifier) Notify(_ context.Context, event TriggerEvent) error {
	n.logger.Info("Trigger alert",
		zap.String("triggerId", event.TriggerID),
		zap.String("name", event.Name),
		zap.String("symbol", event.Symbol),
		zap.String("condition", string(event.Condition)),
		zap.String("action", string(event.Action)),
		zap.Float64("price", event.Price),
		zap.Float64("target", event.Target))
	return nil
}

// MultiNotifier fans one event out to several notifiers; each failure is
// logged by its notifier's caller and does not stop the rest
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier composes notifiers into one
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, logger: logger}
}

// Notify delivers the event to every composed notifier
func (n *MultiNotifier) Notify(ctx context.Context, event TriggerEvent) error {
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			n.logger.Warn("Notifier delivery failed",
				zap.String("triggerId", event.TriggerID),
				zap.Error(err))
		}
	}
	return nil
}
