package handlers

import (
	"context"
	"net/http"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
	"intra-ai-assistant/internal/services"

	"github.com/gin-gonic/gin"
)

type NewsRetriever interface {
	RecentNews(ctx context.Context, profile models.UserProfile, numArticles int) []models.NewsArticle
}

type NewsHandler struct {
	news   NewsRetriever
	logger *logger.Logger
}

func NewNewsHandler(news NewsRetriever, log *logger.Logger) *NewsHandler {
	return &NewsHandler{
		news:   news,
		logger: log,
	}
}

// RecentNews handles POST /recent-news.
func (handler *NewsHandler) RecentNews(ctx *gin.Context) {
	startTime := time.Now()

	var request models.RecentNewsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "user_data is required",
		})
		return
	}

	articles := handler.news.RecentNews(ctx.Request.Context(), *request.UserData, services.DefaultNewsArticleCap)

	handler.logger.LogService("handler", "recent_news", time.Since(startTime), map[string]interface{}{
		"uid":      request.UserData.UID,
		"articles": len(articles),
	}, nil)

	if len(articles) == 0 {
		ctx.JSON(http.StatusOK, models.RecentNewsResponse{
			Message: "no recent news found",
			News:    []models.NewsArticle{},
		})
		return
	}

	ctx.JSON(http.StatusOK, models.RecentNewsResponse{News: articles})
}
