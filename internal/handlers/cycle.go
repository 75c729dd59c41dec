package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
	"github.com/archalign/validation-backend/internal/services"
)

type CycleHandler struct {
	log          *logger.Logger
	cycleService services.CycleService
}

func NewCycleHandler(log *logger.Logger, cycleService services.CycleService) *CycleHandler {
	return &CycleHandler{log: log.With("handler", "CycleHandler"), cycleService: cycleService}
}

type runCycleRequest struct {
	RuleSetID *uuid.UUID `json:"rule_set_id,omitempty"`
}

// Run starts an asynchronous validation cycle and returns 202 with the
// running cycle row for polling.
func (h *CycleHandler) Run(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req runCycleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
			return
		}
	}
	cycle, err := h.cycleService.Run(c.Request.Context(), rd.TenantID, rd.UserID.String(), req.RuleSetID)
	if err != nil {
		h.log.Error("Failed to start validation cycle", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, cycle)
}

func (h *CycleHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	cycle, err := h.cycleService.Get(c.Request.Context(), rd.TenantID, cycleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, cycle)
}

func (h *CycleHandler) Cancel(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	if err := h.cycleService.RequestCancel(c.Request.Context(), rd.TenantID, cycleID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CycleHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	history, err := h.cycleService.History(c.Request.Context(), rd.TenantID, skip, limit)
	if err != nil {
		h.log.Error("Failed to list cycle history", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}
