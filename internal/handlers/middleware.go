package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyUID is where the auth middleware stores the verified user id.
const ContextKeyUID = "uid"

type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

// RequireAuth rejects requests without a verifiable bearer token.
func RequireAuth(verifier TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "invalid or expired token",
			})
			return
		}

		uid, err := verifier.Verify(ctx.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Warn("token verification rejected", "path", ctx.Request.URL.Path, "error", err.Error())
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "invalid or expired token",
			})
			return
		}

		ctx.Set(ContextKeyUID, uid)
		ctx.Next()
	}
}

// RequestLogger tags each request with an id and records the outcome.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		startTime := time.Now()
		requestID := uuid.New().String()
		ctx.Set("request_id", requestID)
		ctx.Header("X-Request-ID", requestID)

		ctx.Next()

		log.Info("request completed",
			"request_id", requestID,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
	}
}
