// Package strategy synthesizes research findings into a unified growth
// strategy. Four specialist evaluators (content, engagement, funnel, growth)
// each propose recommendations concurrently; the engine merges proposals,
// collapsing duplicates and resolving conflicts by fixed specialist
// precedence. Specialists are LLM-backed when a provider is configured and
// fall back to deterministic playbook proposals when it is not or the call
// fails, so a strategy is produced as long as at least one specialist
// completes.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// SpecialistName identifies one of the four fixed specialist evaluators.
type SpecialistName string

const (
	SpecialistContent    SpecialistName = "content"
	SpecialistEngagement SpecialistName = "engagement"
	SpecialistFunnel     SpecialistName = "funnel"
	SpecialistGrowth     SpecialistName = "growth"
)

// AllSpecialists returns the closed specialist set in declaration order.
func AllSpecialists() []SpecialistName {
	return []SpecialistName{
		SpecialistContent,
		SpecialistEngagement,
		SpecialistFunnel,
		SpecialistGrowth,
	}
}

// IsValid checks membership in the closed specialist set.
func (s SpecialistName) IsValid() bool {
	switch s {
	case SpecialistContent, SpecialistEngagement, SpecialistFunnel, SpecialistGrowth:
		return true
	default:
		return false
	}
}

// String returns the string representation of the SpecialistName.
func (s SpecialistName) String() string {
	return string(s)
}

// precedence orders specialists for conflict resolution: growth beats
// engagement beats content beats funnel. Lower wins.
func (s SpecialistName) precedence() int {
	switch s {
	case SpecialistGrowth:
		return 0
	case SpecialistEngagement:
		return 1
	case SpecialistContent:
		return 2
	case SpecialistFunnel:
		return 3
	default:
		return 4
	}
}

// RecommendationCategory classifies what a recommendation asks the user (or
// the planner) to do. The planner maps a subset of these onto automation task
// categories; the rest surface as advice only.
type RecommendationCategory string

const (
	CategoryCommunityEngagement RecommendationCategory = "community-engagement"
	CategoryHashtagStrategy     RecommendationCategory = "hashtag-strategy"
	CategoryAudienceInsight     RecommendationCategory = "audience-insight"
	CategoryPerformanceTracking RecommendationCategory = "performance-tracking"
	CategoryContentFormat       RecommendationCategory = "content-format"
	CategoryPostingCadence      RecommendationCategory = "posting-cadence"
	CategoryConversionPath      RecommendationCategory = "conversion-path"
	CategoryCollaboration       RecommendationCategory = "collaboration"
)

// AllCategories returns every recommendation category in declaration order.
func AllCategories() []RecommendationCategory {
	return []RecommendationCategory{
		CategoryCommunityEngagement,
		CategoryHashtagStrategy,
		CategoryAudienceInsight,
		CategoryPerformanceTracking,
		CategoryContentFormat,
		CategoryPostingCadence,
		CategoryConversionPath,
		CategoryCollaboration,
	}
}

// IsValid checks membership in the closed category set.
func (c RecommendationCategory) IsValid() bool {
	switch c {
	case CategoryCommunityEngagement, CategoryHashtagStrategy,
		CategoryAudienceInsight, CategoryPerformanceTracking,
		CategoryContentFormat, CategoryPostingCadence,
		CategoryConversionPath, CategoryCollaboration:
		return true
	default:
		return false
	}
}

// String returns the string representation of the RecommendationCategory.
func (c RecommendationCategory) String() string {
	return string(c)
}

// Priority ranks how urgent a recommendation is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid checks membership in the priority set.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// rank orders priorities for sorting. Lower sorts first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Recommendation is one concrete piece of advice from a specialist.
type Recommendation struct {
	Category  RecommendationCategory `json:"category"`
	Action    string                 `json:"action"`
	Detail    string                 `json:"detail"`
	Priority  Priority               `json:"priority"`
	Rationale string                 `json:"rationale,omitempty"`
}

// Validate checks that the recommendation is well-formed enough to merge.
func (r Recommendation) Validate() error {
	if !r.Category.IsValid() {
		return fmt.Errorf("unknown recommendation category: %s", r.Category)
	}
	if r.Action == "" {
		return fmt.Errorf("recommendation action cannot be empty")
	}
	if !r.Priority.IsValid() {
		return fmt.Errorf("unknown recommendation priority: %s", r.Priority)
	}
	return nil
}

// Proposal is one specialist's complete answer for a goal.
type Proposal struct {
	Specialist      SpecialistName   `json:"specialist"`
	Recommendations []Recommendation `json:"recommendations"`
	Rationale       string           `json:"rationale,omitempty"`
}

// Unified is a merged recommendation in the final strategy. Sources lists
// every specialist that proposed it; SupersededRationale preserves the
// reasoning of recommendations that lost a conflict so the coaching response
// can still surface why an alternative was set aside.
type Unified struct {
	Recommendation
	Sources             []SpecialistName `json:"sources"`
	SupersededRationale []string         `json:"superseded_rationale,omitempty"`
}

// Strategy is the merged output of all surviving specialist proposals.
type Strategy struct {
	Title           string           `json:"title"`
	Recommendations []Unified        `json:"recommendations"`
	Specialists     []SpecialistName `json:"specialists"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MarshalBinary implements encoding.BinaryMarshaler for store persistence.
func (s *Strategy) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Strategy) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// Specialist evaluates a goal against research findings and proposes
// recommendations. Implementations must be safe for concurrent use; the
// engine runs all specialists in parallel.
type Specialist interface {
	Name() SpecialistName
	Evaluate(ctx context.Context, goal types.GoalContext, res *research.Result) (*Proposal, error)
}
