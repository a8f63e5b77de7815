package handler

import (
	"net/http"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/service"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChartHandler receives the widget's chart-state reports and serves context
// snapshots to non-chart consumers such as the assistant
type ChartHandler struct {
	store  *service.ChartStateStore
	logger *zap.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(store *service.ChartStateStore, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{store: store, logger: logger}
}

// UpdateState handles a chart-state report from the widget
// POST /api/v1/chart/state
func (h *ChartHandler) UpdateState(c *gin.Context) {
	var state model.ChartState
	if err := c.ShouldBindJSON(&state); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid chart state: "+err.Error())
		return
	}

	h.store.Update(state)
	c.Status(http.StatusNoContent)
}

// GetContext handles a chart-context capture request
// GET /api/v1/chart/context
func (h *ChartHandler) GetContext(c *gin.Context) {
	if !h.store.Ready() {
		utils.SendErrorResponse(c, http.StatusNotFound, "No chart state reported yet")
		return
	}

	c.JSON(http.StatusOK, service.CaptureChartContext(h.store))
}
