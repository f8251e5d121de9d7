package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/handlers"
	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Assistant *handlers.AssistantHandler
	News      *handlers.NewsHandler
	Mail      *handlers.MailHandler
	Health    *handlers.HealthHandler
	Verifier  handlers.TokenVerifier
}

type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

func New(cfg config.ServerConfig, h Handlers, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestLogger(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", h.Health.Index)
	router.GET("/health", h.Health.Health)
	router.POST("/send-mail", h.Mail.SendMail)

	protected := router.Group("/")
	protected.Use(handlers.RequireAuth(h.Verifier, log))
	protected.POST("/generate", h.Assistant.Generate)
	protected.POST("/recent-news", h.News.RecentNews)

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.RequestTimeout,
			IdleTimeout:  120 * time.Second,
		},
		logger: log,
	}
}

func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
