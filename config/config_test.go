package config_test

import (
	"os"
	"testing"
	"time"

	"intra-ai-assistant/config"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("TAVILY_API_KEY", "test-tavily-key")
	os.Setenv("CORS_ORIGINS", "http://localhost:4200, https://app.example.com")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("TAVILY_API_KEY")
		os.Unsetenv("CORS_ORIGINS")
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "test-gemini-key" {
		t.Errorf("Expected Gemini API key 'test-gemini-key', got %s", cfg.Gemini.APIKey)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://app.example.com" {
		t.Errorf("Expected 2 trimmed CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("GEMINI_MODEL")
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("TAVILY_API_KEY", "test-tavily-key")

	defer func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("TAVILY_API_KEY")
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %s", cfg.Gemini.Model)
	}
	if cfg.Tavily.BaseURL != "https://api.tavily.com" {
		t.Errorf("Expected default Tavily base URL, got %s", cfg.Tavily.BaseURL)
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("Expected default Gemini timeout 30s, got %v", cfg.Gemini.Timeout)
	}
}

func TestLoadConfigClampsRetries(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("TAVILY_API_KEY", "test-tavily-key")
	os.Setenv("GEMINI_MAX_RETRIES", "0")
	os.Setenv("TAVILY_MAX_RETRIES", "0")

	defer func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("TAVILY_API_KEY")
		os.Unsetenv("GEMINI_MAX_RETRIES")
		os.Unsetenv("TAVILY_MAX_RETRIES")
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Gemini.MaxRetries != 1 {
		t.Errorf("Expected Gemini retries clamped to 1, got %d", cfg.Gemini.MaxRetries)
	}
	if cfg.Tavily.MaxRetries != 1 {
		t.Errorf("Expected Tavily retries clamped to 1, got %d", cfg.Tavily.MaxRetries)
	}
}

func TestLoadConfigRequiresKeys(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")
	os.Setenv("TAVILY_API_KEY", "test-tavily-key")
	defer os.Unsetenv("TAVILY_API_KEY")

	if _, err := config.LoadConfig(); err == nil {
		t.Error("Expected error when GEMINI_API_KEY is missing")
	}

	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("TAVILY_API_KEY")

	if _, err := config.LoadConfig(); err == nil {
		t.Error("Expected error when TAVILY_API_KEY is missing")
	}
}
