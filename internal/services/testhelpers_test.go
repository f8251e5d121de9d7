package services

import (
	"context"
	"testing"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.LogConfig{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return log
}

// fakeLLM implements LanguageModel with per-method overrides.
type fakeLLM struct {
	relevantFn  func(ctx context.Context, query string, profile models.UserProfile) (bool, error)
	decideFn    func(ctx context.Context, state *models.AgentState, tools []models.ToolDefinition) (*models.AgentOutcome, error)
	summarizeFn func(ctx context.Context, result models.SearchResult) (string, error)
	overallFn   func(ctx context.Context, combined string) (string, error)
	extractFn   func(ctx context.Context, rawResults string, limit int) ([]models.NewsArticle, error)
}

func (f *fakeLLM) IsQueryRelevant(ctx context.Context, query string, profile models.UserProfile) (bool, error) {
	if f.relevantFn != nil {
		return f.relevantFn(ctx, query, profile)
	}
	return true, nil
}

func (f *fakeLLM) Decide(ctx context.Context, state *models.AgentState, tools []models.ToolDefinition) (*models.AgentOutcome, error) {
	if f.decideFn != nil {
		return f.decideFn(ctx, state, tools)
	}
	return &models.AgentOutcome{Kind: models.OutcomeFinalAnswer, FinalAnswer: "done"}, nil
}

func (f *fakeLLM) SummarizeResult(ctx context.Context, result models.SearchResult) (string, error) {
	if f.summarizeFn != nil {
		return f.summarizeFn(ctx, result)
	}
	return "line one\nline two\nline three", nil
}

func (f *fakeLLM) SummarizeOverall(ctx context.Context, combined string) (string, error) {
	if f.overallFn != nil {
		return f.overallFn(ctx, combined)
	}
	return "overall summary", nil
}

func (f *fakeLLM) ExtractNewsArticles(ctx context.Context, rawResults string, limit int) ([]models.NewsArticle, error) {
	if f.extractFn != nil {
		return f.extractFn(ctx, rawResults, limit)
	}
	return nil, nil
}

// fakeSearch implements SearchProvider.
type fakeSearch struct {
	searchFn func(ctx context.Context, query string, opts models.SearchOptions) ([]models.SearchResult, error)
	calls    int
}

func (f *fakeSearch) Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.SearchResult, error) {
	f.calls++
	if f.searchFn != nil {
		return f.searchFn(ctx, query, opts)
	}
	return nil, nil
}

func makeResults(count int) []models.SearchResult {
	results := make([]models.SearchResult, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, models.SearchResult{
			Title:   "Result Title",
			URL:     "https://example.com/article",
			Content: "article body text",
		})
	}
	return results
}
