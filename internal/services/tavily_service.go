package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

// TavilyService wraps the Tavily web-search API behind a circuit breaker with
// bounded retries.
type TavilyService struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	config     config.TavilyConfig
	logger     *logger.Logger
}

type tavilySearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	TimeRange      string   `json:"time_range,omitempty"`
	SearchDepth    string   `json:"search_depth"`
}

type tavilySearchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func NewTavilyService(cfg config.TavilyConfig, log *logger.Logger) (*TavilyService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily API key required")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tavily",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("search circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	service := &TavilyService{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
		logger:     log,
	}

	log.Info("Tavily service initialized",
		"base_url", cfg.BaseURL,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
	)

	return service, nil
}

// Search returns results in the provider's relevance order. At most one retry
// follows a transient failure; a second failure is returned to the caller.
func (service *TavilyService) Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.SearchResult, error) {
	startTime := time.Now()

	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}

	operation := func() ([]models.SearchResult, error) {
		raw, err := service.breaker.Execute(func() (interface{}, error) {
			return service.doSearch(ctx, query, opts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return raw.([]models.SearchResult), nil
	}

	results, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(service.config.MaxRetries)),
	)

	service.logger.LogService("tavily", "search", time.Since(startTime), map[string]interface{}{
		"query":         query,
		"max_results":   opts.MaxResults,
		"time_range":    opts.TimeRange,
		"results_count": len(results),
	}, err)

	if err != nil {
		return nil, models.WrapExternalError("TAVILY", err)
	}

	return results, nil
}

func (service *TavilyService) doSearch(ctx context.Context, query string, opts models.SearchOptions) ([]models.SearchResult, error) {
	payload := tavilySearchRequest{
		APIKey:         service.config.APIKey,
		Query:          query,
		MaxResults:     opts.MaxResults,
		IncludeDomains: opts.IncludeDomains,
		ExcludeDomains: opts.ExcludeDomains,
		TimeRange:      opts.TimeRange,
		SearchDepth:    "basic",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.config.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := service.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned HTTP %d", resp.StatusCode)
	}

	var parsed tavilySearchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}

	return results, nil
}

func (service *TavilyService) HealthCheck(ctx context.Context) error {
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := service.Search(testCtx, "health check", models.SearchOptions{MaxResults: 1})
	if err != nil {
		return fmt.Errorf("tavily health check failed: %w", err)
	}
	return nil
}
