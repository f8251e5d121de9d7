package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

type GeminiService struct {
	client *genai.Client
	config config.GeminiConfig
	logger *logger.Logger
}

type GenerationRequest struct {
	Prompt         string
	MaxTokens      int32
	Temperature    *float32
	SystemRole     string
	ResponseFormat string
}

type GenerationResponse struct {
	Content        string
	TokensUsed     int
	FinishReason   string
	ProcessingTime time.Duration
}

func NewGeminiService(cfg config.GeminiConfig, log *logger.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	service := &GeminiService{
		client: client,
		config: cfg,
		logger: log,
	}

	log.Info("Gemini service initialized",
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"max_retries", cfg.MaxRetries,
	)

	return service, nil
}

func (service *GeminiService) GenerateContent(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()

	var response *GenerationResponse
	var err error

	for attempt := 1; attempt <= service.config.MaxRetries; attempt++ {
		response, err = service.makeGenerationRequest(ctx, request)
		if err == nil {
			break
		}

		if attempt < service.config.MaxRetries {
			service.logger.WithFields(logger.Fields{
				"attempt":     attempt,
				"max_retries": service.config.MaxRetries,
				"error":       err,
			}).Warn("content generation failed, retrying")

			select {
			case <-time.After(service.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, models.NewTimeoutError("GEMINI_TIMEOUT", "content generation timed out").WithCause(ctx.Err())
			}
		}
	}

	if err != nil {
		service.logger.LogService("gemini", "generate_content", time.Since(startTime), map[string]interface{}{
			"prompt_length": len(request.Prompt),
			"attempts":      service.config.MaxRetries,
		}, err)
		return nil, models.WrapExternalError("GEMINI", err)
	}

	duration := time.Since(startTime)
	response.ProcessingTime = duration

	service.logger.LogService("gemini", "generate_content", duration, map[string]interface{}{
		"prompt_length":   len(request.Prompt),
		"response_length": len(response.Content),
		"tokens_used":     response.TokensUsed,
		"finish_reason":   response.FinishReason,
	}, nil)

	return response, nil
}

func (service *GeminiService) makeGenerationRequest(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	genCtx, cancel := context.WithTimeout(ctx, service.config.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{}

	if req.SystemRole != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemRole, genai.RoleUser)
	}

	if req.Temperature != nil {
		genConfig.Temperature = req.Temperature
	} else {
		temp := float32(service.config.Temperature)
		genConfig.Temperature = &temp
	}

	if req.MaxTokens != 0 {
		genConfig.MaxOutputTokens = req.MaxTokens
	} else {
		genConfig.MaxOutputTokens = int32(service.config.MaxTokens)
	}

	if req.ResponseFormat != "" {
		genConfig.ResponseMIMEType = req.ResponseFormat
	}

	result, err := service.client.Models.GenerateContent(genCtx, service.config.Model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no response candidates generated")
	}

	candidate := result.Candidates[0]

	text := ""
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}

	return &GenerationResponse{
		Content:      text,
		TokensUsed:   len(req.Prompt)/4 + len(text)/4,
		FinishReason: string(candidate.FinishReason),
	}, nil
}

// IsQueryRelevant asks for a strict Yes/No verdict. Anything except a clean
// "yes" counts as not relevant.
func (service *GeminiService) IsQueryRelevant(ctx context.Context, query string, profile models.UserProfile) (bool, error) {
	prompt := buildRelevancePrompt(query, profile)

	temp := float32(0.0)
	resp, err := service.GenerateContent(ctx, &GenerationRequest{
		Prompt:      prompt,
		Temperature: &temp,
		SystemRole:  "You are a strict relevance gate for a corporate assistant. Answer with exactly Yes or No.",
		MaxTokens:   10,
	})
	if err != nil {
		return false, fmt.Errorf("relevance classification failed: %w", err)
	}

	verdict := parseYesNo(resp.Content)

	service.logger.Debug("relevance verdict",
		"query", query,
		"department", profile.Department,
		"relevant", verdict,
	)

	return verdict, nil
}

func parseYesNo(response string) bool {
	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func buildRelevancePrompt(query string, profile models.UserProfile) string {
	return fmt.Sprintf(`Decide whether the user's question is relevant to their declared department and interests.

Department: %s
Interests: %s

Question:
"%s"

Answer with exactly one word, Yes or No. No punctuation, no explanation.`,
		profile.Department, strings.Join(profile.Interests, ", "), query)
}

// Decide runs one decision step of the agent loop. The model is instructed to
// emit a constrained line-delimited format which is parsed strictly; output
// that fits neither shape is treated as a final answer.
func (service *GeminiService) Decide(ctx context.Context, state *models.AgentState, tools []models.ToolDefinition) (*models.AgentOutcome, error) {
	prompt := buildDecisionPrompt(state, tools)

	temp := float32(0.2)
	resp, err := service.GenerateContent(ctx, &GenerationRequest{
		Prompt:      prompt,
		Temperature: &temp,
		SystemRole:  "You are a research agent that either calls a tool or gives a final answer.",
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("agent decision failed: %w", err)
	}

	return parseDecision(resp.Content), nil
}

func buildDecisionPrompt(state *models.AgentState, tools []models.ToolDefinition) string {
	var sb strings.Builder

	sb.WriteString("You answer the user's question, optionally using the tools below.\n\nTools:\n")
	for _, tool := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}

	sb.WriteString("\nTo call a tool, reply with exactly two lines:\nTOOL: <tool name>\nINPUT: <tool input>\n\n")
	sb.WriteString("To answer directly, reply with:\nFINAL: <your complete answer>\n\n")
	fmt.Fprintf(&sb, "Question:\n%s\n", state.Input)

	if len(state.Steps) > 0 {
		sb.WriteString("\nPrevious steps:\n")
		for i, step := range state.Steps {
			fmt.Fprintf(&sb, "Step %d: called %s with %q, observed:\n%s\n",
				i+1, step.Invocation.ToolName, step.Invocation.ToolInput, step.Observation)
		}
		sb.WriteString("\nIf the observations already answer the question, reply with FINAL.\n")
	}

	return sb.String()
}

func parseDecision(response string) *models.AgentOutcome {
	trimmed := strings.TrimSpace(response)

	if rest, ok := strings.CutPrefix(trimmed, "FINAL:"); ok {
		return &models.AgentOutcome{
			Kind:        models.OutcomeFinalAnswer,
			FinalAnswer: strings.TrimSpace(rest),
		}
	}

	var toolName, toolInput string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "TOOL:"); ok {
			toolName = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, "INPUT:"); ok {
			toolInput = strings.TrimSpace(rest)
		}
	}

	if toolName != "" {
		return &models.AgentOutcome{
			Kind: models.OutcomeToolCall,
			ToolCall: &models.ToolInvocation{
				ToolName:  toolName,
				ToolInput: toolInput,
			},
		}
	}

	// Neither shape matched; take the whole reply as the answer.
	return &models.AgentOutcome{
		Kind:        models.OutcomeFinalAnswer,
		FinalAnswer: trimmed,
	}
}

// SummarizeResult produces the short per-result summary shown under each
// numbered reference.
func (service *GeminiService) SummarizeResult(ctx context.Context, result models.SearchResult) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following search result in at most 3 short lines. Be factual, no preamble.

Title: %s
Content:
%s`, result.Title, result.Content)

	resp, err := service.GenerateContent(ctx, &GenerationRequest{
		Prompt:     prompt,
		SystemRole: "You are a concise technical summarizer.",
		MaxTokens:  256,
	})
	if err != nil {
		return "", fmt.Errorf("result summarization failed: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

func (service *GeminiService) SummarizeOverall(ctx context.Context, combined string) (string, error) {
	prompt := fmt.Sprintf(`Write one concise overall summary of the following combined search content. Synthesize, do not repeat. No headings, no bullet points.

%s`, combined)

	resp, err := service.GenerateContent(ctx, &GenerationRequest{
		Prompt:     prompt,
		SystemRole: "You are a concise news and research summarizer.",
		MaxTokens:  1024,
	})
	if err != nil {
		return "", fmt.Errorf("overall summarization failed: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

// ExtractNewsArticles turns raw search output into structured article records.
// The model must emit a plain JSON array; the reply is schema-validated, never
// executed.
func (service *GeminiService) ExtractNewsArticles(ctx context.Context, rawResults string, limit int) ([]models.NewsArticle, error) {
	startTime := time.Now()

	prompt := buildExtractionPrompt(rawResults, limit)

	temp := float32(0.1)
	resp, err := service.GenerateContent(ctx, &GenerationRequest{
		Prompt:         prompt,
		Temperature:    &temp,
		SystemRole:     "You extract structured news records from raw search results.",
		MaxTokens:      8192,
		ResponseFormat: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("news extraction failed: %w", err)
	}

	articles, err := parseArticlesResponse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}

	service.logger.LogService("gemini", "extract_news_articles", time.Since(startTime), map[string]interface{}{
		"articles_extracted": len(articles),
		"limit":              limit,
	}, nil)

	return articles, nil
}

func buildExtractionPrompt(rawResults string, limit int) string {
	return fmt.Sprintf(`Extract up to %d news articles from the raw search results below.

Return ONLY a JSON array, no markdown, no commentary. Each element:
{
  "title": "article title, at most 15 words",
  "summary": "2-3 sentence summary",
  "url": "article url",
  "date": "YYYY-MM-DD HH:MM:SS UTC, or YYYY-MM-DD if the time is unknown, or Recent if the date cannot be determined",
  "source": "publication name"
}

Sort the array most recent first.

Raw search results:
%s`, limit, rawResults)
}

func parseArticlesResponse(response string) ([]models.NewsArticle, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	var articles []models.NewsArticle
	if err := json.Unmarshal([]byte(response), &articles); err != nil {
		return nil, fmt.Errorf("response is not a valid article array: %w", err)
	}

	return articles, nil
}

func (service *GeminiService) HealthCheck(ctx context.Context) error {
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var temperature float32 = 0
	resp, err := service.GenerateContent(testCtx, &GenerationRequest{
		Prompt:      "Respond with 'OK' if you can process this request",
		Temperature: &temperature,
		MaxTokens:   10,
	})
	if err != nil {
		return fmt.Errorf("gemini health check failed: %w", err)
	}
	if resp.Content == "" {
		return fmt.Errorf("gemini health check returned empty response")
	}
	return nil
}

func (service *GeminiService) Close() error {
	service.logger.Info("Gemini client closed")
	return nil
}
