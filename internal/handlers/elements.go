package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
	"github.com/archalign/validation-backend/internal/services"
)

type ElementHandler struct {
	log            *logger.Logger
	elementService services.ElementService
}

func NewElementHandler(log *logger.Logger, elementService services.ElementService) *ElementHandler {
	return &ElementHandler{log: log.With("handler", "ElementHandler"), elementService: elementService}
}

type upsertElementsRequest struct {
	Elements []*services.ElementInput `json:"elements" binding:"required"`
}

func (h *ElementHandler) UpsertElements(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req upsertElementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	elements, err := h.elementService.UpsertElements(c.Request.Context(), rd.TenantID, req.Elements)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"elements": elements})
}

func (h *ElementHandler) ListElements(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	elements, err := h.elementService.ListElements(c.Request.Context(), rd.TenantID)
	if err != nil {
		h.log.Error("Failed to list elements", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"elements": elements})
}

type upsertRelationshipsRequest struct {
	Relationships []*services.RelationshipInput `json:"relationships" binding:"required"`
}

func (h *ElementHandler) UpsertRelationships(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req upsertRelationshipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	relationships, err := h.elementService.UpsertRelationships(c.Request.Context(), rd.TenantID, req.Relationships)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"relationships": relationships})
}

func (h *ElementHandler) ListRelationships(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	relationships, err := h.elementService.ListRelationships(c.Request.Context(), rd.TenantID)
	if err != nil {
		h.log.Error("Failed to list relationships", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"relationships": relationships})
}
