package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/handlers"
	"intra-ai-assistant/internal/pkg/logger"
	"intra-ai-assistant/internal/server"
	"intra-ai-assistant/internal/services"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log, err := logger.New(logger.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize logger")
	}

	gemini, err := services.NewGeminiService(cfg.Gemini, log)
	if err != nil {
		log.Error("failed to initialize gemini service", "error", err.Error())
		os.Exit(1)
	}
	defer gemini.Close()

	tavily, err := services.NewTavilyService(cfg.Tavily, log)
	if err != nil {
		log.Error("failed to initialize tavily service", "error", err.Error())
		os.Exit(1)
	}

	scraper, err := services.NewScraperService(cfg.Scraper, log)
	if err != nil {
		log.Error("failed to initialize scraper service", "error", err.Error())
		os.Exit(1)
	}

	// Progress streaming is optional; without Redis the pipeline runs silent.
	var progress services.ProgressPublisher
	healthChecks := map[string]handlers.HealthChecker{
		"gemini": gemini,
		"tavily": tavily,
	}
	if cfg.Redis.URL != "" {
		redis, err := services.NewRedisService(cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, progress updates disabled", "error", err.Error())
		} else {
			progress = redis
			healthChecks["redis"] = redis
			defer redis.Close()
		}
	}

	auth, err := services.NewAuthService(cfg.Auth, log)
	if err != nil {
		log.Error("failed to initialize auth service", "error", err.Error())
		os.Exit(1)
	}

	mail, err := services.NewMailService(cfg.Mail, log)
	if err != nil {
		log.Error("failed to initialize mail service", "error", err.Error())
		os.Exit(1)
	}

	agent := services.NewAgentService(gemini, tavily, log)
	builder := services.NewResponseBuilder(gemini, log)
	assistant := services.NewAssistantService(gemini, tavily, agent, builder, progress, log)
	news := services.NewNewsService(gemini, tavily, scraper, progress, log)

	srv := server.New(cfg.Server, server.Handlers{
		Assistant: handlers.NewAssistantHandler(assistant, log),
		News:      handlers.NewNewsHandler(news, log),
		Mail:      handlers.NewMailHandler(mail, log),
		Health:    handlers.NewHealthHandler(healthChecks, log),
		Verifier:  auth,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
		}
	}
}
