package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
)

// ChartHandle is the read-only view of the charting widget's live state that
// chart context capture and the trigger engine depend on. The widget itself
// stays outside this core; the handle is backed by whatever the widget last
// reported.
type ChartHandle interface {
	Symbol() string
	Resolution() string
	VisibleRange() (from, to int64)
	Studies() []model.ChartStudy
	Shapes() []model.ChartShape
	ShapePoints(id string) ([]model.ChartPoint, error)
}

// ChartStateStore holds the latest widget-reported chart state and implements
// ChartHandle over it. Reports replace the state wholesale; readers always
// see a consistent snapshot.
type ChartStateStore struct {
	mu    sync.RWMutex
	state *model.ChartState
}

// NewChartStateStore creates an empty store; Ready reports false until the
// widget's first state report arrives
func NewChartStateStore() *ChartStateStore {
	return &ChartStateStore{}
}

// Update replaces the stored chart state
func (s *ChartStateStore) Update(state model.ChartState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
}

// Ready reports whether a chart state has been reported yet
func (s *ChartStateStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil
}

// Symbol returns the active fully-qualified symbol
func (s *ChartStateStore) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.Symbol
}

// Resolution returns the active resolution
func (s *ChartStateStore) Resolution() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.Resolution
}

// VisibleRange returns the visible time range in epoch milliseconds
func (s *ChartStateStore) VisibleRange() (int64, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return 0, 0
	}
	return s.state.RangeFrom, s.state.RangeTo
}

// Studies returns the active indicator studies
func (s *ChartStateStore) Studies() []model.ChartStudy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	return s.state.Studies
}

// Shapes returns the user-drawn shapes
func (s *ChartStateStore) Shapes() []model.ChartShape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	return s.state.Shapes
}

// ShapePoints returns the point geometry of one shape by id
func (s *ChartStateStore) ShapePoints(id string) ([]model.ChartPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, fmt.Errorf("no chart state reported")
	}
	for _, shape := range s.state.Shapes {
		if shape.ID == id {
			return shape.Points, nil
		}
	}
	return nil, fmt.Errorf("shape not found: %s", id)
}

// CaptureChartContext produces an immutable point-in-time snapshot of what
// the chart currently shows. Nothing is cached; every call re-reads the
// handle. A shape whose geometry cannot be retrieved contributes an empty
// points list rather than failing the capture.
func CaptureChartContext(handle ChartHandle) model.ChartSnapshot {
	from, to := handle.VisibleRange()

	studies := handle.Studies()
	snapshotStudies := make([]model.ChartStudy, len(studies))
	copy(snapshotStudies, studies)

	shapes := handle.Shapes()
	snapshotShapes := make([]model.ChartShape, 0, len(shapes))
	for _, shape := range shapes {
		points, err := handle.ShapePoints(shape.ID)
		if err != nil {
			points = []model.ChartPoint{}
		}
		snapshotShapes = append(snapshotShapes, model.ChartShape{
			ID:     shape.ID,
			Name:   shape.Name,
			Points: points,
		})
	}

	return model.ChartSnapshot{
		Symbol:     handle.Symbol(),
		Resolution: handle.Resolution(),
		RangeFrom:  from,
		RangeTo:    to,
		Studies:    snapshotStudies,
		Shapes:     snapshotShapes,
		CapturedAt: time.Now().UnixMilli(),
	}
}
