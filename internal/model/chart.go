package model

// ChartPoint is one geometric anchor of a drawn shape, a time/price pair.
// Time is epoch milliseconds.
type ChartPoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// ChartStudy is one active indicator study on the chart. Value carries the
// study's most recent plotted value when the widget reports one.
type ChartStudy struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Value *float64 `json:"value,omitempty"`
}

// ChartShape is one user-drawn shape with its point geometry
type ChartShape struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartState is the widget-reported live chart state the core reads through
// the chart handle
type ChartState struct {
	Symbol     string       `json:"symbol" binding:"required"`
	Resolution string       `json:"resolution" binding:"required"`
	RangeFrom  int64        `json:"rangeFrom"`
	RangeTo    int64        `json:"rangeTo"`
	Studies    []ChartStudy `json:"studies"`
	Shapes     []ChartShape `json:"shapes"`
}

// ChartSnapshot is a point-in-time, immutable capture of what the chart
// currently shows, usable by non-chart consumers
type ChartSnapshot struct {
	Symbol     string       `json:"symbol"`
	Resolution string       `json:"resolution"`
	RangeFrom  int64        `json:"rangeFrom"`
	RangeTo    int64        `json:"rangeTo"`
	Studies    []ChartStudy `json:"studies"`
	Shapes     []ChartShape `json:"shapes"`
	CapturedAt int64        `json:"capturedAt"` // epoch ms
}
