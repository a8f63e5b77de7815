package handler

import (
	"net/http"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/repository"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TriggerHandler manages the trigger lifecycle: create, toggle, delete.
// Triggers are never edited in place; both the UI and the assistant's
// command-execution path go through these endpoints.
type TriggerHandler struct {
	triggers *repository.TriggerRepository
	logger   *zap.Logger
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(triggers *repository.TriggerRepository, logger *zap.Logger) *TriggerHandler {
	return &TriggerHandler{triggers: triggers, logger: logger}
}

// createTriggerRequest carries a new trigger; the closed enums are enforced
// at the binding layer
type createTriggerRequest struct {
	Name      string                 `json:"name" binding:"required"`
	Type      model.TriggerType      `json:"type" binding:"required,oneof=DRAWING_TOUCH INDICATOR_CROSS PATTERN"`
	Source    model.TriggerSource    `json:"source" binding:"required"`
	Condition model.TriggerCondition `json:"condition" binding:"required,oneof=TOUCH CROSS_ABOVE CROSS_BELOW INSIDE OUTSIDE"`
	Action    model.TriggerAction    `json:"action" binding:"required"`
	Symbol    string                 `json:"symbol" binding:"required,fullsymbol"`
	Active    *bool                  `json:"active"`
}

// ListTriggers returns all stored triggers
// GET /api/v1/triggers
func (h *TriggerHandler) ListTriggers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"triggers": h.triggers.List()})
}

// CreateTrigger stores a new trigger
// POST /api/v1/triggers
func (h *TriggerHandler) CreateTrigger(c *gin.Context) {
	var req createTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid trigger: "+err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	trigger, err := h.triggers.Create(model.Trigger{
		Name:      req.Name,
		Type:      req.Type,
		Source:    req.Source,
		Condition: req.Condition,
		Action:    req.Action,
		Symbol:    req.Symbol,
		Active:    active,
	})
	if err != nil {
		h.logger.Error("Failed to create trigger", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create trigger")
		return
	}

	h.logger.Info("Trigger created",
		zap.String("triggerId", trigger.ID),
		zap.String("symbol", trigger.Symbol),
		zap.String("type", string(trigger.Type)))
	c.JSON(http.StatusCreated, trigger)
}

// toggleTriggerRequest flips a trigger's active flag
type toggleTriggerRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ToggleTrigger activates or deactivates a trigger
// POST /api/v1/triggers/:id/toggle
func (h *TriggerHandler) ToggleTrigger(c *gin.Context) {
	var req toggleTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid toggle request: "+err.Error())
		return
	}

	trigger, err := h.triggers.SetActive(c.Param("id"), *req.Active)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Trigger not found")
		return
	}
	c.JSON(http.StatusOK, trigger)
}

// DeleteTrigger removes a trigger
// DELETE /api/v1/triggers/:id
func (h *TriggerHandler) DeleteTrigger(c *gin.Context) {
	if err := h.triggers.Delete(c.Param("id")); err != nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Trigger not found")
		return
	}
	c.Status(http.StatusNoContent)
}
