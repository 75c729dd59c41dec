package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	redisclient "github.com/archalign/validation-backend/internal/clients/redis"
	"github.com/archalign/validation-backend/internal/db"
	"github.com/archalign/validation-backend/internal/logger"
)

type HealthHandler struct {
	log      *logger.Logger
	postgres *db.PostgresService
	cache    redisclient.Probe
}

// NewHealthHandler takes a nil cache probe when Redis is not configured;
// the cache section then reports "disabled" without failing the check.
func NewHealthHandler(log *logger.Logger, postgres *db.PostgresService, cache redisclient.Probe) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler"), postgres: postgres, cache: cache}
}

// Health reports dependency status. Postgres down means the service cannot
// serve anything and returns 503; the cache is probe-only and merely noted.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	pgStatus := "ok"
	if err := h.postgres.Ping(); err != nil {
		h.log.Error("Postgres health check failed", "error", err)
		pgStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	var cacheLatency string
	if h.cache != nil {
		latency, err := h.cache.Ping(c.Request.Context())
		if err != nil {
			cacheStatus = "unavailable"
		} else {
			cacheStatus = "ok"
			cacheLatency = latency.Round(time.Microsecond).String()
		}
	}

	body := gin.H{
		"status":   pgStatus,
		"postgres": pgStatus,
		"cache":    cacheStatus,
	}
	if cacheLatency != "" {
		body["cache_latency"] = cacheLatency
	}
	c.JSON(status, body)
}
