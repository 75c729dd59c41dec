package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/archalign/validation-backend/internal/handlers"
	"github.com/archalign/validation-backend/internal/middleware"
	"github.com/archalign/validation-backend/internal/observability"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	CycleHandler     *handlers.CycleHandler
	IssueHandler     *handlers.IssueHandler
	ScorecardHandler *handlers.ScorecardHandler
	MatrixHandler    *handlers.MatrixHandler
	ExceptionHandler *handlers.ExceptionHandler
	RuleHandler      *handlers.RuleHandler
	ElementHandler   *handlers.ElementHandler
	HealthHandler    *handlers.HealthHandler
	Metrics          *observability.Metrics
	AllowOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	if observability.OtelEnabled() {
		router.Use(otelgin.Middleware("validation-backend"))
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}

	validation := router.Group("/validation")

	// Public
	validation.GET("/health", cfg.HealthHandler.Health)
	validation.GET("/metrics", cfg.Metrics.Handler())

	// Authenticated
	protected := validation.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.GET("/run/:id", cfg.CycleHandler.Get)
	protected.GET("/issues", cfg.IssueHandler.List)
	protected.POST("/issues/:id/resolve", cfg.IssueHandler.Resolve)
	protected.GET("/scorecard", cfg.ScorecardHandler.Get)
	protected.GET("/traceability-matrix", cfg.MatrixHandler.Get)
	protected.GET("/history", cfg.CycleHandler.History)
	protected.GET("/exceptions", cfg.ExceptionHandler.List)
	protected.GET("/rules", cfg.RuleHandler.List)
	protected.GET("/elements", cfg.ElementHandler.ListElements)
	protected.GET("/relationships", cfg.ElementHandler.ListRelationships)

	// Admin/Owner
	admin := protected.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/run", cfg.CycleHandler.Run)
	admin.DELETE("/run/:id", cfg.CycleHandler.Cancel)
	admin.POST("/exceptions", cfg.ExceptionHandler.Create)
	admin.POST("/rules", cfg.RuleHandler.Create)
	admin.PATCH("/rules/:id", cfg.RuleHandler.Toggle)
	admin.PUT("/elements", cfg.ElementHandler.UpsertElements)
	admin.PUT("/relationships", cfg.ElementHandler.UpsertRelationships)

	return router
}

// ParseOrigins splits a comma separated CORS_ALLOW_ORIGINS value.
func ParseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
