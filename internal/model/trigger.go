package model

import (
	"time"
)

// TriggerType classifies what kind of chart entity a trigger watches
type TriggerType string

const (
	TriggerDrawingTouch   TriggerType = "DRAWING_TOUCH"
	TriggerIndicatorCross TriggerType = "INDICATOR_CROSS"
	TriggerPattern        TriggerType = "PATTERN"
)

// TriggerSourceType is the closed set of chart entities a trigger can target
type TriggerSourceType string

const (
	SourceTrendline      TriggerSourceType = "trendline"
	SourceHorizontalLine TriggerSourceType = "horizontal_line"
	SourceFibRetracement TriggerSourceType = "fib_retracement"
	SourceBollingerBand  TriggerSourceType = "bollinger_band"
	SourceEMA            TriggerSourceType = "ema"
	SourceSMA            TriggerSourceType = "sma"
	SourceRSI            TriggerSourceType = "rsi"
	SourceMACD           TriggerSourceType = "macd"
)

// TriggerCondition is the comparison applied between live price and the
// resolved target value
type TriggerCondition string

const (
	ConditionTouch      TriggerCondition = "TOUCH"
	ConditionCrossAbove TriggerCondition = "CROSS_ABOVE"
	ConditionCrossBelow TriggerCondition = "CROSS_BELOW"
	ConditionInside     TriggerCondition = "INSIDE"
	ConditionOutside    TriggerCondition = "OUTSIDE"
)

// TriggerActionType is what happens when a trigger fires
type TriggerActionType string

const (
	ActionNotify     TriggerActionType = "NOTIFY"
	ActionEntryLong  TriggerActionType = "ENTRY_LONG"
	ActionEntryShort TriggerActionType = "ENTRY_SHORT"
)

// TriggerSource describes where the trigger's target value comes from: a
// source type, an optional reference to a specific chart entity, and optional
// numeric parameters such as a fibonacci level
type TriggerSource struct {
	Type     TriggerSourceType  `json:"type" binding:"required,oneof=trendline horizontal_line fib_retracement bollinger_band ema sma rsi macd"`
	EntityID string             `json:"entityId,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// TriggerAction describes the action taken on firing, with action-specific
// parameters (e.g. a simulated position size for entries)
type TriggerAction struct {
	Type   TriggerActionType  `json:"type" binding:"required,oneof=NOTIFY ENTRY_LONG ENTRY_SHORT"`
	Params map[string]float64 `json:"params,omitempty"`
}

// Trigger is a user-defined watch condition evaluated against live market
// data. Field names and the closed enums form the persisted record contract;
// any component constructing a Trigger (the assistant command executor
// included) must use this shape.
type Trigger struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            TriggerType      `json:"type"`
	Source          TriggerSource    `json:"source"`
	Condition       TriggerCondition `json:"condition"`
	Action          TriggerAction    `json:"action"`
	Symbol          string           `json:"symbol"` // fully-qualified name
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"createdAt"`
	LastTriggeredAt *time.Time       `json:"lastTriggeredAt,omitempty"`
}

// FibLevel returns the fibonacci level parameter for a retracement source,
// defaulting to 0.618 when unspecified
func (s TriggerSource) FibLevel() float64 {
	if level, ok := s.Params["level"]; ok {
		return level
	}
	return 0.618
}
