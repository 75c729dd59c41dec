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

type IssueHandler struct {
	log          *logger.Logger
	issueService services.IssueService
}

func NewIssueHandler(log *logger.Logger, issueService services.IssueService) *IssueHandler {
	return &IssueHandler{log: log.With("handler", "IssueHandler"), issueService: issueService}
}

func (h *IssueHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	includeSuppressed := c.Query("include_suppressed") == "true"
	list, err := h.issueService.List(c.Request.Context(), rd.TenantID, skip, limit, includeSuppressed)
	if err != nil {
		h.log.Error("Failed to list issues", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}

func (h *IssueHandler) Resolve(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	issue, err := h.issueService.Resolve(c.Request.Context(), rd.TenantID, issueID, rd.UserID.String())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, issue)
}
