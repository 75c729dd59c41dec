package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
	"github.com/archalign/validation-backend/internal/services"
)

type ExceptionHandler struct {
	log              *logger.Logger
	exceptionService services.ExceptionService
}

func NewExceptionHandler(log *logger.Logger, exceptionService services.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{log: log.With("handler", "ExceptionHandler"), exceptionService: exceptionService}
}

func (h *ExceptionHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateExceptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	exception, err := h.exceptionService.Create(c.Request.Context(), rd.TenantID, rd.UserID.String(), &input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exception)
}

func (h *ExceptionHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	exceptions, err := h.exceptionService.List(c.Request.Context(), rd.TenantID)
	if err != nil {
		h.log.Error("Failed to list exceptions", "tenant_id", rd.TenantID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"exceptions": exceptions})
}
