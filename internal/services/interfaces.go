package services

import (
	"context"

	"intra-ai-assistant/internal/models"
)

// LanguageModel is the slice of the Gemini service the pipelines depend on.
// Tests substitute fakes for it.
type LanguageModel interface {
	IsQueryRelevant(ctx context.Context, query string, profile models.UserProfile) (bool, error)
	Decide(ctx context.Context, state *models.AgentState, tools []models.ToolDefinition) (*models.AgentOutcome, error)
	SummarizeResult(ctx context.Context, result models.SearchResult) (string, error)
	SummarizeOverall(ctx context.Context, combined string) (string, error)
	ExtractNewsArticles(ctx context.Context, rawResults string, limit int) ([]models.NewsArticle, error)
}

// SearchProvider abstracts the web-search backend.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.SearchResult, error)
}

// ProgressPublisher receives per-stage pipeline updates. A nil publisher is
// valid and disables publishing.
type ProgressPublisher interface {
	PublishStageUpdate(ctx context.Context, userID, stage, status, message string) error
}
