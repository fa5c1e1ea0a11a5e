package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// llmSpecialist is the built-in Specialist implementation. With a provider it
// asks the model to adapt the playbook tactics to the goal and the research;
// without one, or when the call fails or returns garbage, it falls back to
// the deterministic playbook proposal so the specialist still contributes.
type llmSpecialist struct {
	name     SpecialistName
	section  specialistSection
	provider llm.Provider
	model    string
	logger   *slog.Logger
}

// SpecialistOption configures the built-in specialists.
type SpecialistOption func(*llmSpecialist)

// WithProvider makes the specialists LLM-backed. Without it every Evaluate
// returns the playbook proposal.
func WithProvider(provider llm.Provider) SpecialistOption {
	return func(s *llmSpecialist) {
		s.provider = provider
	}
}

// WithModel overrides the provider's default model for specialist calls.
func WithModel(model string) SpecialistOption {
	return func(s *llmSpecialist) {
		s.model = model
	}
}

// WithSpecialistLogger sets the logger shared by the built-in specialists.
func WithSpecialistLogger(logger *slog.Logger) SpecialistOption {
	return func(s *llmSpecialist) {
		s.logger = logger
	}
}

// NewSpecialists builds the four built-in specialists over the playbook.
func NewSpecialists(pb *Playbook, opts ...SpecialistOption) []Specialist {
	specialists := make([]Specialist, 0, len(AllSpecialists()))
	for _, name := range AllSpecialists() {
		section, ok := pb.section(name)
		if !ok {
			// LoadPlaybook guarantees every specialist has a section.
			continue
		}

		s := &llmSpecialist{
			name:    name,
			section: section,
			logger:  slog.Default(),
		}
		for _, opt := range opts {
			opt(s)
		}
		specialists = append(specialists, s)
	}
	return specialists
}

// Name returns the specialist's identifier.
func (s *llmSpecialist) Name() SpecialistName {
	return s.name
}

// Evaluate proposes recommendations for the goal. LLM trouble degrades to
// the playbook proposal; only context cancellation fails the evaluation.
func (s *llmSpecialist) Evaluate(ctx context.Context, goal types.GoalContext, res *research.Result) (*Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(types.SPECIALIST_FAILED, fmt.Sprintf("%s specialist cancelled", s.name), err)
	}

	if s.provider == nil {
		return s.section.proposal(s.name, goal), nil
	}

	req := llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(s.systemPrompt()),
			llm.NewUserMessage(s.userPrompt(goal, res)),
		},
		MaxTokens:   1024,
		Temperature: 0.4,
	}

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, types.WrapError(types.SPECIALIST_FAILED, fmt.Sprintf("%s specialist cancelled", s.name), ctxErr)
		}
		s.logger.Warn("specialist completion failed, using playbook fallback",
			"specialist", s.name, "error", err)
		return s.section.proposal(s.name, goal), nil
	}

	proposal, err := s.parseProposal(resp.Message.Content)
	if err != nil {
		s.logger.Warn("specialist response unparseable, using playbook fallback",
			"specialist", s.name, "error", err)
		return s.section.proposal(s.name, goal), nil
	}
	return proposal, nil
}

// systemPrompt renders the specialist's role, its playbook tactics, and the
// response schema.
func (s *llmSpecialist) systemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the %s specialist on an Instagram growth coaching team.\n", s.name)
	fmt.Fprintf(&b, "Your focus: %s.\n\n", s.section.Focus)

	b.WriteString("Playbook tactics to adapt to the user's goal:\n")
	for _, tactic := range s.section.Tactics {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", tactic.Category, tactic.Action, fold(tactic.Detail))
	}

	b.WriteString("\nRespond with a JSON object matching this schema:\n\n")
	b.WriteString(`{
  "rationale": "string (one-paragraph specialist reasoning)",
  "recommendations": [
    {
      "category": "string (one of: ` + categoryList() + `)",
      "action": "string (imperative, verb first, 2-5 words)",
      "detail": "string (concrete instruction adapted to the goal and research)",
      "priority": "string (high, medium, or low)",
      "rationale": "string (why this matters for this goal)"
    }
  ]
}

IMPORTANT:
- Every category must exactly match one of the listed values
- Ground recommendations in the research findings where they apply
- 3 to 5 recommendations, no more`)

	return b.String()
}

// userPrompt renders the goal and the research findings.
func (s *llmSpecialist) userPrompt(goal types.GoalContext, res *research.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Goal: %s.\n", goal.Describe())
	if goal.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s.\n", goal.TargetAudience)
	}
	if len(goal.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s.\n", strings.Join(goal.Constraints, "; "))
	}

	if res != nil && res.Summary != "" {
		b.WriteString("\nResearch findings:\n")
		b.WriteString(res.Summary)
		if res.Degraded {
			b.WriteString("\n(Research coverage was partial; weight findings accordingly.)")
		}
	}

	return b.String()
}

// parseProposal parses the model's JSON response, dropping malformed
// recommendations. A response with no valid recommendation is an error so
// the caller falls back to the playbook.
func (s *llmSpecialist) parseProposal(content string) (*Proposal, error) {
	var response struct {
		Rationale       string           `json:"rationale"`
		Recommendations []Recommendation `json:"recommendations"`
	}

	if err := json.Unmarshal([]byte(extractJSON(content)), &response); err != nil {
		return nil, fmt.Errorf("failed to parse specialist response: %w", err)
	}

	recs := make([]Recommendation, 0, len(response.Recommendations))
	for _, rec := range response.Recommendations {
		if err := rec.Validate(); err != nil {
			s.logger.Debug("dropping malformed recommendation",
				"specialist", s.name, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("specialist response contained no valid recommendations")
	}

	return &Proposal{
		Specialist:      s.name,
		Recommendations: recs,
		Rationale:       strings.TrimSpace(response.Rationale),
	}, nil
}

// categoryList renders the closed category set for the schema prompt.
func categoryList() string {
	categories := AllCategories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

// extractJSON pulls the JSON body out of a model response that may be
// wrapped in markdown code blocks.
func extractJSON(content string) string {
	if strings.Contains(content, "```json") {
		start := strings.Index(content, "```json")
		if start != -1 {
			start += len("```json")
			end := strings.Index(content[start:], "```")
			if end != -1 {
				return strings.TrimSpace(content[start : start+end])
			}
		}
	}

	if strings.Contains(content, "```") {
		start := strings.Index(content, "```")
		if start != -1 {
			start += len("```")
			end := strings.Index(content[start:], "```")
			if end != -1 {
				extracted := strings.TrimSpace(content[start : start+end])
				if strings.HasPrefix(extracted, "{") || strings.HasPrefix(extracted, "[") {
					return extracted
				}
			}
		}
	}

	return strings.TrimSpace(content)
}
