package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AnswerGenerator is the surface the handler needs from the assistant pipeline.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string, profile models.UserProfile) (string, error)
}

type AssistantHandler struct {
	assistant AnswerGenerator
	logger    *logger.Logger
}

func NewAssistantHandler(assistant AnswerGenerator, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		logger:    log,
	}
}

// Generate handles POST /generate.
func (handler *AssistantHandler) Generate(ctx *gin.Context) {
	startTime := time.Now()

	var request models.GenerateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "prompt and user_data are required",
		})
		return
	}

	answer, err := handler.assistant.Generate(ctx.Request.Context(), request.Prompt, *request.UserData)
	if err != nil {
		handler.logger.LogService("handler", "generate", time.Since(startTime), map[string]interface{}{
			"uid": request.UserData.UID,
		}, err)

		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Type == models.ErrorTypeValidation {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: appErr.Message})
			return
		}

		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "an internal error occurred",
		})
		return
	}

	handler.logger.LogService("handler", "generate", time.Since(startTime), map[string]interface{}{
		"uid": request.UserData.UID,
	}, nil)

	ctx.JSON(http.StatusOK, models.GenerateResponse{Response: answer})
}
