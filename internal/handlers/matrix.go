package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
	"github.com/archalign/validation-backend/internal/services"
	"github.com/archalign/validation-backend/internal/types"
)

type MatrixHandler struct {
	log           *logger.Logger
	matrixService services.MatrixService
}

func NewMatrixHandler(log *logger.Logger, matrixService services.MatrixService) *MatrixHandler {
	return &MatrixHandler{log: log.With("handler", "MatrixHandler"), matrixService: matrixService}
}

func (h *MatrixHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sourceLayer := c.Query("source_layer")
	targetLayer := c.Query("target_layer")
	if sourceLayer != "" && !types.ValidLayer(sourceLayer) {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", fmt.Errorf("unknown layer %s", sourceLayer))
		return
	}
	if targetLayer != "" && !types.ValidLayer(targetLayer) {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", fmt.Errorf("unknown layer %s", targetLayer))
		return
	}
	refresh := c.Query("refresh") == "true"
	cells, err := h.matrixService.List(c.Request.Context(), rd.TenantID, sourceLayer, targetLayer, refresh)
	if err != nil {
		h.log.Error("Failed to list traceability matrix", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"cells": cells})
}
