package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/services"
)

type RuleHandler struct {
	log         *logger.Logger
	ruleService services.RuleService
}

func NewRuleHandler(log *logger.Logger, ruleService services.RuleService) *RuleHandler {
	return &RuleHandler{log: log.With("handler", "RuleHandler"), ruleService: ruleService}
}

func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.ruleService.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list rules", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"rules": rules})
}

func (h *RuleHandler) Create(c *gin.Context) {
	var input services.CreateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	rule, err := h.ruleService.Create(c.Request.Context(), &input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

type toggleRuleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *RuleHandler) Toggle(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	var req toggleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "unprocessable", err)
		return
	}
	rule, err := h.ruleService.Toggle(c.Request.Context(), ruleID, *req.IsActive)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, rule)
}
