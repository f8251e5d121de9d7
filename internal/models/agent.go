package models

// OutcomeKind tags the two possible shapes of a model decision step.
type OutcomeKind string

const (
	OutcomeToolCall    OutcomeKind = "tool_call"
	OutcomeFinalAnswer OutcomeKind = "final_answer"
)

// AgentOutcome is either a tool call or a final answer, never both.
type AgentOutcome struct {
	Kind        OutcomeKind
	ToolCall    *ToolInvocation
	FinalAnswer string
}

type ToolInvocation struct {
	ToolName  string `json:"tool_name"`
	ToolInput string `json:"tool_input"`
}

// AgentStep pairs a tool invocation with what the tool returned.
type AgentStep struct {
	Invocation  ToolInvocation
	Observation string
	Results     []SearchResult
}

// AgentState is created fresh per request and discarded after the loop exits.
type AgentState struct {
	Input   string
	Steps   []AgentStep
	Outcome *AgentOutcome
}

type ToolDefinition struct {
	Name        string
	Description string
}

func NewAgentState(input string) *AgentState {
	return &AgentState{Input: input}
}

func (s *AgentState) AddStep(inv ToolInvocation, observation string, results []SearchResult) {
	s.Steps = append(s.Steps, AgentStep{
		Invocation:  inv,
		Observation: observation,
		Results:     results,
	})
}

// SearchResults returns the results of the most recent step that produced a
// non-empty result set, or nil if no tool observation did.
func (s *AgentState) SearchResults() []SearchResult {
	for i := len(s.Steps) - 1; i >= 0; i-- {
		if len(s.Steps[i].Results) > 0 {
			return s.Steps[i].Results
		}
	}
	return nil
}

// FinalAnswerText extracts the answer text from the outcome, tolerating a
// missing or malformed outcome by returning its string form.
func (s *AgentState) FinalAnswerText() string {
	if s.Outcome == nil {
		return ""
	}
	if s.Outcome.Kind == OutcomeFinalAnswer {
		return s.Outcome.FinalAnswer
	}
	if s.Outcome.ToolCall != nil {
		return s.Outcome.ToolCall.ToolInput
	}
	return ""
}
