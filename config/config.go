package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Tavily  TavilyConfig
	Auth    AuthConfig
	Mail    MailConfig
	Redis   RedisConfig
	Scraper ScraperConfig
	Logging LogConfig
}

type ServerConfig struct {
	Port           string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type AuthConfig struct {
	VerifyURL string
	Timeout   time.Duration
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
	Support  string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ScraperConfig struct {
	MaxConcurrency int
	Timeout        time.Duration
	MinContentSize int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
	File   string
}

func LoadConfig() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			CORSOrigins:    splitEnv("CORS_ORIGINS", "http://localhost:4200"),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 120*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:      os.Getenv("GEMINI_API_KEY"),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:   getIntEnv("GEMINI_MAX_TOKENS", 8192),
			Temperature: 0.3,
			Timeout:     getDurationEnv("GEMINI_TIMEOUT", 30*time.Second),
			MaxRetries:  max(getIntEnv("GEMINI_MAX_RETRIES", 2), 1),
			RetryDelay:  getDurationEnv("GEMINI_RETRY_DELAY", 2*time.Second),
		},
		Tavily: TavilyConfig{
			APIKey:     os.Getenv("TAVILY_API_KEY"),
			BaseURL:    getEnv("TAVILY_BASE_URL", "https://api.tavily.com"),
			Timeout:    getDurationEnv("TAVILY_TIMEOUT", 20*time.Second),
			MaxRetries: max(getIntEnv("TAVILY_MAX_RETRIES", 2), 1),
		},
		Auth: AuthConfig{
			VerifyURL: os.Getenv("AUTH_VERIFY_URL"),
			Timeout:   getDurationEnv("AUTH_TIMEOUT", 10*time.Second),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   getEnv("SMTP_SENDER", os.Getenv("SMTP_USERNAME")),
			Support:  getEnv("SUPPORT_EMAIL", "support@assistant.local"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Scraper: ScraperConfig{
			MaxConcurrency: getIntEnv("SCRAPER_MAX_CONCURRENCY", 3),
			Timeout:        getDurationEnv("SCRAPER_TIMEOUT", 30*time.Second),
			MinContentSize: getIntEnv("SCRAPER_MIN_CONTENT_SIZE", 200),
		},
		Logging: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
			File:   getEnv("LOG_FILE", "logs/assistant.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Tavily.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
