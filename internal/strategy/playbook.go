package strategy

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

//go:embed playbook.yaml
var playbookYAML []byte

// tacticTemplate is one playbook entry before placeholder substitution.
type tacticTemplate struct {
	Category  string `yaml:"category"`
	Action    string `yaml:"action"`
	Detail    string `yaml:"detail"`
	Priority  string `yaml:"priority"`
	Rationale string `yaml:"rationale"`
}

// specialistSection groups the playbook material for one specialist.
type specialistSection struct {
	Focus     string           `yaml:"focus"`
	Rationale string           `yaml:"rationale"`
	Tactics   []tacticTemplate `yaml:"tactics"`
}

type playbookDoc struct {
	Specialists map[string]specialistSection `yaml:"specialists"`
}

// Playbook holds the parsed per-specialist tactic templates embedded in the
// binary. The same material serves two paths: it renders the deterministic
// fallback proposal for each specialist, and it seeds the system prompt when
// an LLM provider is configured.
type Playbook struct {
	sections map[SpecialistName]specialistSection
}

// LoadPlaybook parses the embedded playbook and validates every tactic
// against the closed category and priority sets. A playbook that fails to
// validate is a build defect, so callers treat the error as fatal.
func LoadPlaybook() (*Playbook, error) {
	var doc playbookDoc
	if err := yaml.Unmarshal(playbookYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse playbook: %w", err)
	}

	sections := make(map[SpecialistName]specialistSection, len(doc.Specialists))
	for rawName, section := range doc.Specialists {
		name := SpecialistName(rawName)
		if !name.IsValid() {
			return nil, fmt.Errorf("playbook references unknown specialist: %s", rawName)
		}
		if len(section.Tactics) == 0 {
			return nil, fmt.Errorf("playbook specialist %s has no tactics", name)
		}
		for i, tactic := range section.Tactics {
			probe := Recommendation{
				Category: RecommendationCategory(tactic.Category),
				Action:   tactic.Action,
				Priority: Priority(tactic.Priority),
			}
			if err := probe.Validate(); err != nil {
				return nil, fmt.Errorf("playbook specialist %s tactic %d: %w", name, i, err)
			}
		}
		sections[name] = section
	}

	for _, name := range AllSpecialists() {
		if _, ok := sections[name]; !ok {
			return nil, fmt.Errorf("playbook missing specialist section: %s", name)
		}
	}

	return &Playbook{sections: sections}, nil
}

// section returns the playbook material for one specialist.
func (p *Playbook) section(name SpecialistName) (specialistSection, bool) {
	section, ok := p.sections[name]
	return section, ok
}

// proposal renders the deterministic fallback proposal for one specialist,
// substituting goal placeholders into tactic details and rationales. Actions
// are left verbatim so semantic merge keys stay stable across goals.
func (s specialistSection) proposal(name SpecialistName, goal types.GoalContext) *Proposal {
	replacer := goalReplacer(goal)

	recs := make([]Recommendation, 0, len(s.Tactics))
	for _, tactic := range s.Tactics {
		recs = append(recs, Recommendation{
			Category:  RecommendationCategory(tactic.Category),
			Action:    tactic.Action,
			Detail:    fold(replacer.Replace(tactic.Detail)),
			Priority:  Priority(tactic.Priority),
			Rationale: fold(replacer.Replace(tactic.Rationale)),
		})
	}

	return &Proposal{
		Specialist:      name,
		Recommendations: recs,
		Rationale:       fold(s.Rationale),
	}
}

// goalReplacer substitutes goal context into playbook placeholders. Missing
// context degrades to neutral wording rather than leaving the placeholder.
func goalReplacer(goal types.GoalContext) *strings.Replacer {
	niche := goal.Niche
	if niche == "" {
		niche = "general"
	}
	audience := goal.TargetAudience
	if audience == "" {
		audience = "the target audience"
	}
	target := "your"
	if goal.TargetFollowers > 0 {
		target = strconv.Itoa(goal.TargetFollowers)
	}
	timeframe := "90"
	if goal.TimeframeDays > 0 {
		timeframe = strconv.Itoa(goal.TimeframeDays)
	}

	return strings.NewReplacer(
		"{niche}", niche,
		"{audience}", audience,
		"{target_followers}", target,
		"{timeframe_days}", timeframe,
	)
}

// fold collapses whitespace runs to single spaces and trims the result,
// normalizing YAML folded scalars.
func fold(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
