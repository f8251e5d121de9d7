package handlers

import (
	"context"
	"net/http"
	"time"

	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
	logger *logger.Logger
}

func NewHealthHandler(checks map[string]HealthChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: log,
	}
}

// Index handles GET /.
func (handler *HealthHandler) Index(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Hello, API is running!")
}

// Health handles GET /health and probes every registered dependency.
func (handler *HealthHandler) Health(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(handler.checks))
	for name, check := range handler.checks {
		if err := check.HealthCheck(checkCtx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			handler.logger.Warn("health check failed", "component", name, "error", err.Error())
			continue
		}
		components[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	ctx.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
