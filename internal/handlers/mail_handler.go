package handlers

import (
	"context"
	"net/http"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type MailSender interface {
	SendWelcome(ctx context.Context, to string, name string) error
}

type MailHandler struct {
	mail   MailSender
	logger *logger.Logger
}

func NewMailHandler(mail MailSender, log *logger.Logger) *MailHandler {
	return &MailHandler{
		mail:   mail,
		logger: log,
	}
}

// SendMail handles POST /send-mail. Delivery failures are logged but the
// endpoint still reports success, matching the fire-and-forget contract.
func (handler *MailHandler) SendMail(ctx *gin.Context) {
	startTime := time.Now()

	var request models.SendMailRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "a valid email and name are required",
		})
		return
	}

	err := handler.mail.SendWelcome(ctx.Request.Context(), request.Email, request.Name)
	handler.logger.LogService("handler", "send_mail", time.Since(startTime), map[string]interface{}{
		"recipient": request.Email,
	}, err)

	ctx.JSON(http.StatusOK, models.MessageResponse{Message: "New event email sent"})
}
