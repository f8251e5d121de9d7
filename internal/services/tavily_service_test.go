package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
)

func newTavilyTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *TavilyService) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewTavilyService(config.TavilyConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, newTestLogger(t))
	if err != nil {
		t.Fatalf("Failed to build tavily service: %v", err)
	}
	return server, service
}

func TestTavilySearch(t *testing.T) {
	var received tavilySearchRequest
	_, service := newTavilyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected /search path, got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"title": "T1", "url": "https://one.example", "content": "c1", "score": 0.9},
				{"title": "T2", "url": "https://two.example", "content": "c2", "score": 0.4},
			},
		})
	})

	results, err := service.Search(context.Background(), "go release", models.SearchOptions{
		MaxResults:     20,
		IncludeDomains: []string{"reuters.com"},
		TimeRange:      "day",
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if received.APIKey != "test-key" {
		t.Errorf("Expected api_key in request body, got %q", received.APIKey)
	}
	if received.Query != "go release" || received.MaxResults != 20 || received.TimeRange != "day" {
		t.Errorf("Unexpected request payload: %+v", received)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Title != "T1" || results[0].URL != "https://one.example" {
		t.Errorf("Expected provider order preserved, got %+v", results[0])
	}
}

func TestTavilySearchDefaultsMaxResults(t *testing.T) {
	var received tavilySearchRequest
	_, service := newTavilyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	})

	if _, err := service.Search(context.Background(), "q", models.SearchOptions{}); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if received.MaxResults != 5 {
		t.Errorf("Expected default max_results 5, got %d", received.MaxResults)
	}
}

func TestTavilySearchRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	_, service := newTavilyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"title": "T", "url": "https://x.example", "content": "c"},
			},
		})
	})

	results, err := service.Search(context.Background(), "flaky", models.SearchOptions{})
	if err != nil {
		t.Fatalf("Expected retry to recover, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestTavilySearchExhaustsRetries(t *testing.T) {
	_, service := newTavilyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := service.Search(context.Background(), "down", models.SearchOptions{}); err == nil {
		t.Error("Expected error after retries exhausted")
	}
}
