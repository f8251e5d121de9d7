package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

// RedisService streams per-stage pipeline updates so a frontend can show
// progress while a request runs. Nothing durable is kept here: streams are
// capped and hold telemetry only.
type RedisService struct {
	client *redis.Client
	config config.RedisConfig
	logger *logger.Logger
}

func NewRedisService(cfg config.RedisConfig, log *logger.Logger) (*RedisService, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connection to Redis failed: %w", err)
	}

	log.Info("Redis service initialized", "pool_size", cfg.PoolSize)

	return &RedisService{client: client, config: cfg, logger: log}, nil
}

func (service *RedisService) PublishStageUpdate(ctx context.Context, userID, stage, status, message string) error {
	streamName := fmt.Sprintf("user:%s:agent_updates", userID)

	id, err := service.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		MaxLen: 256,
		Approx: true,
		Values: map[string]interface{}{
			"type":      "stage_update",
			"stage":     stage,
			"status":    status,
			"message":   message,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		return models.NewExternalError("REDIS_PUBLISH_FAILED", "failed to publish stage update").WithCause(err)
	}

	service.logger.WithFields(logger.Fields{
		"stream_name": streamName,
		"message_id":  id,
		"stage":       stage,
		"status":      status,
	}).Debug("published stage update")

	return nil
}

func (service *RedisService) HealthCheck(ctx context.Context) error {
	if err := service.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection unhealthy: %w", err)
	}
	return nil
}

func (service *RedisService) Close() error {
	if err := service.client.Close(); err != nil {
		return fmt.Errorf("error closing Redis connection: %w", err)
	}
	service.logger.Info("Redis service closed")
	return nil
}
