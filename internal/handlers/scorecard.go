package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
	"github.com/archalign/validation-backend/internal/services"
)

type ScorecardHandler struct {
	log              *logger.Logger
	scorecardService services.ScorecardService
}

func NewScorecardHandler(log *logger.Logger, scorecardService services.ScorecardService) *ScorecardHandler {
	return &ScorecardHandler{log: log.With("handler", "ScorecardHandler"), scorecardService: scorecardService}
}

// Get returns the scorecard for ?cycle_id= or, when omitted, the most recent
// completed cycle.
func (h *ScorecardHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var cycleID *uuid.UUID
	if raw := c.Query("cycle_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
			return
		}
		cycleID = &parsed
	}
	scorecard, err := h.scorecardService.Get(c.Request.Context(), rd.TenantID, cycleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, scorecard)
}
