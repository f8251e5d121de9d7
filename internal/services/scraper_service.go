package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

// ScraperService fetches full page text for search results whose snippet is
// too thin to summarize or extract from.
type ScraperService struct {
	collector *colly.Collector
	config    config.ScraperConfig
	logger    *logger.Logger

	mu         sync.Mutex
	userAgents []string
	uaIndex    int
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func NewScraperService(cfg config.ScraperConfig, log *logger.Logger) (*ScraperService, error) {
	collector := colly.NewCollector()
	collector.SetRequestTimeout(cfg.Timeout)
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       1 * time.Second,
	})

	service := &ScraperService{
		collector: collector,
		config:    cfg,
		logger:    log,
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/120.0",
		},
	}

	log.Info("Scraper service initialized",
		"max_concurrency", cfg.MaxConcurrency,
		"timeout", cfg.Timeout,
		"min_content_size", cfg.MinContentSize,
	)

	return service, nil
}

// EnrichResults replaces the content of thin results with scraped page text
// where possible. Results that cannot be scraped come back unchanged.
func (service *ScraperService) EnrichResults(ctx context.Context, results []models.SearchResult) []models.SearchResult {
	startTime := time.Now()

	enriched := make([]models.SearchResult, len(results))
	copy(enriched, results)

	concurrency := service.config.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	scrapedCount := 0
	var mu sync.Mutex

	for i := range enriched {
		if len(enriched[i].Content) >= service.config.MinContentSize || enriched[i].URL == "" {
			continue
		}

		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			text, err := service.scrapePageText(ctx, enriched[index].URL)
			if err != nil {
				service.logger.Debug("scrape failed, keeping original snippet",
					"url", enriched[index].URL,
					"error", err.Error(),
				)
				return
			}

			if len(text) > len(enriched[index].Content) {
				mu.Lock()
				enriched[index].Content = text
				scrapedCount++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	service.logger.LogService("scraper", "enrich_results", time.Since(startTime), map[string]interface{}{
		"total_results": len(results),
		"enriched":      scrapedCount,
	}, nil)

	return enriched
}

func (service *ScraperService) scrapePageText(ctx context.Context, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}

	c := service.collector.Clone()

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", service.nextUserAgent())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var text string
	var scrapeErr error

	c.OnHTML("html", func(e *colly.HTMLElement) {
		text = extractArticleText(e)
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Visit(targetURL); err != nil && scrapeErr == nil {
			scrapeErr = err
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return "", models.NewTimeoutError("SCRAPER_TIMEOUT", "page scrape timed out").WithCause(ctx.Err())
	}

	if scrapeErr != nil {
		return "", scrapeErr
	}

	cleaned := cleanScrapedText(text)
	if len(cleaned) < service.config.MinContentSize {
		return "", fmt.Errorf("no substantial content found")
	}

	return cleaned, nil
}

func (service *ScraperService) nextUserAgent() string {
	service.mu.Lock()
	defer service.mu.Unlock()
	ua := service.userAgents[service.uaIndex]
	service.uaIndex = (service.uaIndex + 1) % len(service.userAgents)
	return ua
}

// extractArticleText prefers article paragraphs, falling back to all body
// paragraphs when the page has no article element.
func extractArticleText(e *colly.HTMLElement) string {
	var paragraphs []string

	selection := e.DOM.Find("article p")
	if selection.Length() == 0 {
		selection = e.DOM.Find("body p")
	}

	selection.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 30 {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n\n")
}

func cleanScrapedText(content string) string {
	content = whitespaceRe.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)
	if len(content) > 15000 {
		content = content[:15000] + "..."
	}
	return content
}

func (service *ScraperService) HealthCheck(ctx context.Context) error {
	// The scraper has no remote dependency of its own to probe.
	return nil
}
