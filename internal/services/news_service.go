package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

const (
	// newsSearchResultCap is how many raw candidates are requested from the
	// search provider before extraction.
	newsSearchResultCap = 20

	// DefaultNewsArticleCap bounds how many articles a response may carry.
	DefaultNewsArticleCap = 10

	// newsRetentionWindow is the inclusive recency cutoff applied after
	// extraction.
	newsRetentionWindow = 7 * 24 * time.Hour

	newsSearchTimeRange = "day"
)

var newsIncludeDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"techcrunch.com",
	"theverge.com",
	"cnbc.com",
	"bbc.com",
	"economictimes.indiatimes.com",
}

var newsExcludeDomains = []string{"wikipedia.org"}

// NewsService retrieves, extracts and ranks recent news matching a user's
// interests and skills. Every provider or extraction failure inside the
// pipeline degrades to an empty article list; it never aborts the request.
type NewsService struct {
	llm      LanguageModel
	search   SearchProvider
	scraper  *ScraperService
	progress ProgressPublisher
	logger   *logger.Logger

	// now is replaceable in tests.
	now func() time.Time
}

func NewNewsService(llm LanguageModel, search SearchProvider, scraper *ScraperService, progress ProgressPublisher, log *logger.Logger) *NewsService {
	return &NewsService{
		llm:      llm,
		search:   search,
		scraper:  scraper,
		progress: progress,
		logger:   log,
		now:      time.Now,
	}
}

// RecentNews runs the full retrieval pipeline and returns at most numArticles
// articles, most recent first. numArticles <= 0 selects the default cap.
func (service *NewsService) RecentNews(ctx context.Context, profile models.UserProfile, numArticles int) []models.NewsArticle {
	startTime := time.Now()

	if numArticles <= 0 {
		numArticles = DefaultNewsArticleCap
	}

	query := service.buildNewsQuery(profile)
	service.publishStage(ctx, profile.UID, "news_search", "processing", "Searching recent news")

	results, err := service.search.Search(ctx, query, models.SearchOptions{
		MaxResults:     newsSearchResultCap,
		IncludeDomains: newsIncludeDomains,
		ExcludeDomains: newsExcludeDomains,
		TimeRange:      newsSearchTimeRange,
	})
	if err != nil {
		service.logger.WithError(err).Warn("news search failed, returning no articles",
			"user_id", profile.UID,
			"query", query,
		)
		return []models.NewsArticle{}
	}

	if len(results) == 0 {
		service.logger.Info("news search returned no candidates", "user_id", profile.UID)
		return []models.NewsArticle{}
	}

	results = service.enrichThinResults(ctx, results)

	service.publishStage(ctx, profile.UID, "news_extraction", "processing", "Extracting structured articles")

	articles, err := service.llm.ExtractNewsArticles(ctx, renderRawResults(results), numArticles)
	if err != nil {
		service.logger.WithError(err).Warn("news extraction failed, returning no articles",
			"user_id", profile.UID,
		)
		return []models.NewsArticle{}
	}

	filtered := service.filterRecent(articles, profile.UID)
	sortByRecency(filtered)

	if len(filtered) > numArticles {
		filtered = filtered[:numArticles]
	}

	service.logger.LogService("news", "recent_news", time.Since(startTime), map[string]interface{}{
		"user_id":     profile.UID,
		"candidates":  len(results),
		"extracted":   len(articles),
		"returned":    len(filtered),
		"max_allowed": numArticles,
	}, nil)
	service.publishStage(ctx, profile.UID, "news_extraction", "completed", fmt.Sprintf("Found %d recent articles", len(filtered)))

	return filtered
}

func (service *NewsService) buildNewsQuery(profile models.UserProfile) string {
	today := service.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("latest news as of %s related to %s and %s",
		today,
		strings.Join(profile.Interests, ", "),
		strings.Join(profile.Skills, ", "),
	)
}

// filterRecent keeps an article iff it carries the Recent sentinel or a
// parseable timestamp within the retention window (inclusive at exactly 7
// days). Everything else is dropped and logged.
func (service *NewsService) filterRecent(articles []models.NewsArticle, userID string) []models.NewsArticle {
	nowTime := service.now()
	kept := make([]models.NewsArticle, 0, len(articles))

	for _, article := range articles {
		if article.IsRecentSentinel() {
			kept = append(kept, article)
			continue
		}

		ts, ok := models.ParseArticleDate(article.Date)
		if !ok {
			service.logger.Warn("dropping article with unparsable date",
				"user_id", userID,
				"date", article.Date,
				"url", article.URL,
			)
			continue
		}

		if nowTime.Sub(ts) > newsRetentionWindow {
			service.logger.Debug("dropping article outside retention window",
				"user_id", userID,
				"date", article.Date,
				"url", article.URL,
			)
			continue
		}

		kept = append(kept, article)
	}

	return kept
}

// sortByRecency orders most-recent-first. Articles without a parseable
// timestamp (the sentinel, after filtering) sort as maximum, so they appear
// first.
func sortByRecency(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, iok := models.ParseArticleDate(articles[i].Date)
		tj, jok := models.ParseArticleDate(articles[j].Date)

		if !iok && !jok {
			return false
		}
		if !iok {
			return true
		}
		if !jok {
			return false
		}
		return ti.After(tj)
	})
}

// enrichThinResults fetches full page text for results whose content is too
// short to extract from. Scrape failures leave the result untouched.
func (service *NewsService) enrichThinResults(ctx context.Context, results []models.SearchResult) []models.SearchResult {
	if service.scraper == nil {
		return results
	}
	return service.scraper.EnrichResults(ctx, results)
}

func renderRawResults(results []models.SearchResult) string {
	var sb strings.Builder
	for i, result := range results {
		fmt.Fprintf(&sb, "Result %d\nTitle: %s\nURL: %s\nContent: %s\n\n", i+1, result.Title, result.URL, result.Content)
	}
	return sb.String()
}

func (service *NewsService) publishStage(ctx context.Context, userID, stage, status, message string) {
	if service.progress == nil {
		return
	}
	if err := service.progress.PublishStageUpdate(ctx, userID, stage, status, message); err != nil {
		service.logger.WithError(err).Debug("failed to publish stage update", "stage", stage)
	}
}
