package services

import (
	"context"
	"fmt"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

// AssistantService runs the full /generate pipeline: relevance gate, agent
// loop, result formatting and response assembly.
type AssistantService struct {
	llm      LanguageModel
	search   SearchProvider
	agent    *AgentService
	builder  *ResponseBuilder
	progress ProgressPublisher
	logger   *logger.Logger
}

func NewAssistantService(llm LanguageModel, search SearchProvider, agent *AgentService, builder *ResponseBuilder, progress ProgressPublisher, log *logger.Logger) *AssistantService {
	return &AssistantService{
		llm:      llm,
		search:   search,
		agent:    agent,
		builder:  builder,
		progress: progress,
		logger:   log,
	}
}

// Generate answers the user's prompt, or returns the fixed redirect text when
// the prompt is outside the user's profile. The profile must carry a
// department; the handler validates that before calling.
func (service *AssistantService) Generate(ctx context.Context, prompt string, profile models.UserProfile) (string, error) {
	startTime := time.Now()

	if !profile.HasDepartment() {
		return "", models.NewValidationError("MISSING_DEPARTMENT", "user profile has no department")
	}

	service.publishStage(ctx, profile.UID, "relevance_gate", "processing", "Checking query relevance")

	relevant, err := service.llm.IsQueryRelevant(ctx, prompt, profile)
	if err != nil {
		return "", fmt.Errorf("relevance gate failed: %w", err)
	}

	if !relevant {
		service.publishStage(ctx, profile.UID, "relevance_gate", "completed", "Query outside user profile, redirecting")
		service.logger.LogStage(profile.UID, "relevance_gate", "redirected", time.Since(startTime), nil)
		return service.builder.RedirectMessage(), nil
	}

	service.publishStage(ctx, profile.UID, "agent_loop", "processing", "Running research agent")

	state, err := service.agent.Run(ctx, prompt)
	if err != nil {
		service.logger.LogStage(profile.UID, "agent_loop", "failed", time.Since(startTime), err)
		return "", fmt.Errorf("agent loop failed: %w", err)
	}

	results := state.SearchResults()
	searchFailed := false

	// The agent may answer without ever searching; fall back to one direct
	// search so the response still carries references.
	if len(results) == 0 {
		service.publishStage(ctx, profile.UID, "search_fallback", "processing", "Agent produced no results, searching directly")

		fallback, ferr := service.search.Search(ctx, prompt, models.SearchOptions{MaxResults: toolSearchResultCap})
		if ferr != nil {
			service.logger.WithError(ferr).Warn("fallback search failed, degrading to error fallback text",
				"user_id", profile.UID,
			)
			searchFailed = true
		} else {
			results = fallback
		}
	}

	service.publishStage(ctx, profile.UID, "summarization", "processing", "Summarizing search results")

	formatted := service.builder.FormatResults(ctx, results, searchFailed)
	overall := service.builder.SummarizeResults(ctx, results, searchFailed)
	response := service.builder.Assemble(state.FinalAnswerText(), formatted, overall)

	service.publishStage(ctx, profile.UID, "completed", "completed", "Response assembled")
	service.logger.LogStage(profile.UID, "generate", "completed", time.Since(startTime), nil)

	return response, nil
}

func (service *AssistantService) publishStage(ctx context.Context, userID, stage, status, message string) {
	if service.progress == nil {
		return
	}
	if err := service.progress.PublishStageUpdate(ctx, userID, stage, status, message); err != nil {
		service.logger.WithError(err).Debug("failed to publish stage update", "stage", stage)
	}
}
