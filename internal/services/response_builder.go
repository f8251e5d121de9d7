package services

import (
	"context"
	"fmt"
	"strings"

	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

const (
	// summaryResultCap bounds how many results are summarized per response,
	// keeping model call volume fixed.
	summaryResultCap = 5

	msgResultsError   = "No search results available due to an error."
	msgResultsEmpty   = "No search results found."
	msgSummaryError   = "Unable to generate summary due to an error in search results."
	msgSummaryFailed  = "Unable to generate summary."
	msgRedirect       = "Your question doesn't appear to be related to your department or interests, so I can't help with it here. Please ask about topics relevant to your profile."
	msgSummaryMissing = "Summary unavailable."
)

// ResponseBuilder turns a final answer plus raw search results into the
// response string handed back to the caller.
type ResponseBuilder struct {
	llm    LanguageModel
	logger *logger.Logger
}

func NewResponseBuilder(llm LanguageModel, log *logger.Logger) *ResponseBuilder {
	return &ResponseBuilder{llm: llm, logger: log}
}

// FormatResults renders the first 5 results as a numbered, linked list with a
// short generated summary under each entry. searchFailed selects the
// error-shaped fallback over the empty one.
func (builder *ResponseBuilder) FormatResults(ctx context.Context, results []models.SearchResult, searchFailed bool) string {
	if searchFailed {
		return msgResultsError
	}
	if len(results) == 0 {
		return msgResultsEmpty
	}

	capped := capResults(results)

	var sb strings.Builder
	for i, result := range capped {
		title := result.Title
		if title == "" {
			title = fmt.Sprintf("Reference %d", i+1)
		}
		url := result.URL
		if url == "" {
			url = "No URL available"
		}

		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, title, url)

		summary, err := builder.llm.SummarizeResult(ctx, result)
		if err != nil {
			builder.logger.WithError(err).Warn("per-result summarization failed",
				"index", i,
				"url", result.URL,
			)
			summary = msgSummaryMissing
		}
		sb.WriteString(summary)
		sb.WriteString("\n")
	}

	return sb.String()
}

// SummarizeResults produces one consolidated summary over the same capped
// result window.
func (builder *ResponseBuilder) SummarizeResults(ctx context.Context, results []models.SearchResult, searchFailed bool) string {
	if searchFailed {
		return msgSummaryError
	}
	if len(results) == 0 {
		return msgResultsEmpty
	}

	var contents []string
	for _, result := range capResults(results) {
		if result.Content != "" {
			contents = append(contents, result.Content)
		}
	}

	summary, err := builder.llm.SummarizeOverall(ctx, strings.Join(contents, " "))
	if err != nil {
		builder.logger.WithError(err).Warn("overall summarization failed")
		return msgSummaryFailed
	}

	return summary
}

// Assemble combines the agent's answer with the formatted references and the
// overall summary.
func (builder *ResponseBuilder) Assemble(finalAnswer, formattedResults, overallSummary string) string {
	return finalAnswer + "\n\n" + formattedResults + "\nOverall Summary:\n" + overallSummary
}

// RedirectMessage is returned when the relevance gate rejects a query.
func (builder *ResponseBuilder) RedirectMessage() string {
	return msgRedirect
}

func capResults(results []models.SearchResult) []models.SearchResult {
	if len(results) > summaryResultCap {
		return results[:summaryResultCap]
	}
	return results
}
