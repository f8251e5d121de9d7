package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

type loopState int

const (
	stateAgent loopState = iota
	stateTool
	stateExit
)

const (
	// defaultMaxIterations bounds the loop even when the model never emits a
	// final answer.
	defaultMaxIterations = 10

	// toolSearchResultCap limits how many results the search tool hands back
	// to the model per call.
	toolSearchResultCap = 5

	WebSearchToolName = "web_search"
)

// Tool is one catalogued capability the agent may invoke.
type Tool struct {
	Definition models.ToolDefinition
	Execute    func(ctx context.Context, input string) (string, []models.SearchResult, error)
}

// AgentService runs the decide/act loop: one model decision step, then one
// tool invocation, alternating until the model answers or the iteration cap
// is reached.
type AgentService struct {
	llm           LanguageModel
	tools         map[string]Tool
	catalogue     []models.ToolDefinition
	maxIterations int
	logger        *logger.Logger
}

func NewAgentService(llm LanguageModel, search SearchProvider, log *logger.Logger) *AgentService {
	service := &AgentService{
		llm:           llm,
		tools:         make(map[string]Tool),
		maxIterations: defaultMaxIterations,
		logger:        log,
	}

	service.registerTool(Tool{
		Definition: models.ToolDefinition{
			Name:        WebSearchToolName,
			Description: fmt.Sprintf("Searches the web and returns up to %d results. Input is a free-text query.", toolSearchResultCap),
		},
		Execute: func(ctx context.Context, input string) (string, []models.SearchResult, error) {
			results, err := search.Search(ctx, input, models.SearchOptions{MaxResults: toolSearchResultCap})
			if err != nil {
				return "", nil, err
			}
			return formatObservation(results), results, nil
		},
	})

	return service
}

func (service *AgentService) registerTool(tool Tool) {
	service.tools[tool.Definition.Name] = tool
	service.catalogue = append(service.catalogue, tool.Definition)
}

// Run drives the state machine to completion and returns the final state
// including the full step history.
func (service *AgentService) Run(ctx context.Context, input string) (*models.AgentState, error) {
	startTime := time.Now()

	state := models.NewAgentState(input)
	current := stateAgent
	iterations := 0

	for current != stateExit {
		switch current {
		case stateAgent:
			iterations++
			if iterations > service.maxIterations {
				service.logger.Warn("agent loop hit iteration cap, forcing exit",
					"max_iterations", service.maxIterations,
					"steps", len(state.Steps),
				)
				state.Outcome = &models.AgentOutcome{Kind: models.OutcomeFinalAnswer}
				current = stateExit
				continue
			}

			outcome, err := service.llm.Decide(ctx, state, service.catalogue)
			if err != nil {
				return nil, fmt.Errorf("agent decision step failed: %w", err)
			}

			state.Outcome = outcome
			if outcome.Kind == models.OutcomeFinalAnswer {
				current = stateExit
			} else {
				current = stateTool
			}

		case stateTool:
			invocation := state.Outcome.ToolCall
			if invocation == nil {
				return nil, models.NewInternalError("AGENT_BAD_OUTCOME", "tool state reached without a tool call")
			}

			tool, exists := service.tools[invocation.ToolName]
			if !exists {
				return nil, models.NewInternalError("AGENT_UNKNOWN_TOOL", "agent requested a tool that is not catalogued").
					WithMetadata("tool_name", invocation.ToolName)
			}

			observation, results, err := tool.Execute(ctx, invocation.ToolInput)
			if err != nil {
				// The observation carries the failure back to the model so it
				// can answer from what it has.
				observation = fmt.Sprintf("tool %s failed: %v", invocation.ToolName, err)
				results = nil
			}

			state.AddStep(*invocation, observation, results)
			current = stateAgent
		}
	}

	service.logger.LogService("agent", "run", time.Since(startTime), map[string]interface{}{
		"iterations": iterations,
		"steps":      len(state.Steps),
		"answered":   state.FinalAnswerText() != "",
	}, nil)

	return state, nil
}

func formatObservation(results []models.SearchResult) string {
	if len(results) == 0 {
		return "no results found"
	}

	var sb strings.Builder
	for i, result := range results {
		fmt.Fprintf(&sb, "%d. %s (%s)\n%s\n", i+1, result.Title, result.URL, result.Content)
	}
	return sb.String()
}
