package strategy

import (
	"strings"
	"testing"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func rec(category RecommendationCategory, action, detail string, priority Priority, rationale string) Recommendation {
	return Recommendation{
		Category:  category,
		Action:    action,
		Detail:    detail,
		Priority:  priority,
		Rationale: rationale,
	}
}

func TestCanonicalVerb(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"research niche hashtags", "research"},
		{"Find competitor hashtags", "research"},
		{"identify trending tags", "research"},
		{"Track saves weekly", "track"},
		{"monitor watch time", "track"},
		{"Engage! with accounts", "engage"},
		{"interact daily", "engage"},
		{"", ""},
		{"prioritize reels", "prioritize"},
	}
	for _, tt := range tests {
		if got := canonicalVerb(tt.action); got != tt.want {
			t.Errorf("canonicalVerb(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestMergeCollapsesDuplicates(t *testing.T) {
	proposals := []*Proposal{
		{
			Specialist: SpecialistGrowth,
			Recommendations: []Recommendation{
				rec(CategoryCommunityEngagement, "engage daily", "Like 30 posts a day.", PriorityMedium, "Keeps reach warm."),
			},
		},
		{
			Specialist: SpecialistEngagement,
			Recommendations: []Recommendation{
				rec(CategoryCommunityEngagement, "interact daily", "like 30 posts a day.", PriorityHigh, "Fastest small-account lever."),
			},
		},
	}

	unified := mergeProposals(proposals)
	if len(unified) != 1 {
		t.Fatalf("got %d unified recommendations, want 1", len(unified))
	}

	got := unified[0]
	if got.Action != "engage daily" {
		t.Errorf("Action = %q, want the holder's action", got.Action)
	}
	if len(got.Sources) != 2 || got.Sources[0] != SpecialistGrowth || got.Sources[1] != SpecialistEngagement {
		t.Errorf("Sources = %v, want [growth engagement]", got.Sources)
	}
	if !strings.Contains(got.Rationale, "Keeps reach warm.") || !strings.Contains(got.Rationale, "Fastest small-account lever.") {
		t.Errorf("Rationale = %q, want both rationales appended", got.Rationale)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want duplicate to lift priority to high", got.Priority)
	}
	if len(got.SupersededRationale) != 0 {
		t.Errorf("SupersededRationale = %v, want empty for a duplicate", got.SupersededRationale)
	}
}

func TestMergeResolvesConflictByPrecedence(t *testing.T) {
	proposals := []*Proposal{
		{
			Specialist: SpecialistGrowth,
			Recommendations: []Recommendation{
				rec(CategoryHashtagStrategy, "research competitor hashtags", "Mine competitor tags during silence windows.", PriorityHigh, "Competitor gaps are underpriced reach."),
			},
		},
		{
			Specialist: SpecialistEngagement,
			Recommendations: []Recommendation{
				rec(CategoryHashtagStrategy, "find niche hashtags", "Build a 10-15 tag tiered mix.", PriorityHigh, "Targeted mixes outperform tag stuffing."),
			},
		},
	}

	unified := mergeProposals(proposals)
	if len(unified) != 1 {
		t.Fatalf("got %d unified recommendations, want 1", len(unified))
	}

	got := unified[0]
	if got.Detail != "Mine competitor tags during silence windows." {
		t.Errorf("Detail = %q, want the growth specialist's detail to win", got.Detail)
	}
	if len(got.SupersededRationale) != 1 {
		t.Fatalf("SupersededRationale = %v, want one entry", got.SupersededRationale)
	}
	if !strings.Contains(got.SupersededRationale[0], "engagement:") ||
		!strings.Contains(got.SupersededRationale[0], "Targeted mixes outperform tag stuffing.") {
		t.Errorf("SupersededRationale[0] = %q, want the losing specialist and rationale", got.SupersededRationale[0])
	}
	if len(got.Sources) != 2 {
		t.Errorf("Sources = %v, want both specialists recorded", got.Sources)
	}
}

func TestMergeKeepsDistinctKeys(t *testing.T) {
	proposals := []*Proposal{
		{
			Specialist: SpecialistEngagement,
			Recommendations: []Recommendation{
				rec(CategoryHashtagStrategy, "research niche hashtags", "Tag mix.", PriorityHigh, ""),
				rec(CategoryCommunityEngagement, "engage daily", "Daily loop.", PriorityHigh, ""),
			},
		},
		{
			Specialist: SpecialistContent,
			Recommendations: []Recommendation{
				rec(CategoryContentFormat, "prioritize reels", "Reels first.", PriorityHigh, ""),
			},
		},
	}

	unified := mergeProposals(proposals)
	if len(unified) != 3 {
		t.Fatalf("got %d unified recommendations, want 3", len(unified))
	}
}

func TestMergeOrdersByPriority(t *testing.T) {
	proposals := []*Proposal{
		{
			Specialist: SpecialistContent,
			Recommendations: []Recommendation{
				rec(CategoryPostingCadence, "post stories daily", "Stories.", PriorityLow, ""),
				rec(CategoryContentFormat, "prioritize reels", "Reels.", PriorityHigh, ""),
				rec(CategoryPerformanceTracking, "track watch time weekly", "Insights.", PriorityMedium, ""),
			},
		},
	}

	unified := mergeProposals(proposals)
	if len(unified) != 3 {
		t.Fatalf("got %d unified recommendations, want 3", len(unified))
	}
	if unified[0].Priority != PriorityHigh || unified[1].Priority != PriorityMedium || unified[2].Priority != PriorityLow {
		t.Errorf("priorities = [%s %s %s], want [high medium low]",
			unified[0].Priority, unified[1].Priority, unified[2].Priority)
	}
}

func TestMergeSkipsInvalidRecommendations(t *testing.T) {
	proposals := []*Proposal{
		{
			Specialist: SpecialistContent,
			Recommendations: []Recommendation{
				rec("made-up-category", "do things", "Detail.", PriorityHigh, ""),
				rec(CategoryContentFormat, "prioritize reels", "Reels.", PriorityHigh, ""),
				rec(CategoryPostingCadence, "", "Empty action.", PriorityHigh, ""),
			},
		},
	}

	unified := mergeProposals(proposals)
	if len(unified) != 1 {
		t.Fatalf("got %d unified recommendations, want 1", len(unified))
	}
	if unified[0].Category != CategoryContentFormat {
		t.Errorf("Category = %s, want %s", unified[0].Category, CategoryContentFormat)
	}
}

func TestSortByPrecedence(t *testing.T) {
	proposals := []*Proposal{
		{Specialist: SpecialistFunnel},
		{Specialist: SpecialistContent},
		{Specialist: SpecialistGrowth},
		{Specialist: SpecialistEngagement},
	}

	sorted := sortByPrecedence(proposals)

	want := []SpecialistName{SpecialistGrowth, SpecialistEngagement, SpecialistContent, SpecialistFunnel}
	for i, name := range want {
		if sorted[i].Specialist != name {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].Specialist, name)
		}
	}

	// Input order is untouched.
	if proposals[0].Specialist != SpecialistFunnel {
		t.Error("sortByPrecedence mutated its input")
	}
}

func TestStrategyTitle(t *testing.T) {
	goal := types.GoalContext{
		Niche:            "fitness",
		CurrentFollowers: 500,
		TargetFollowers:  5000,
		TimeframeDays:    60,
	}
	if got := strategyTitle(goal); got != "Grow a fitness account from 500 to 5000 followers in 60 days" {
		t.Errorf("strategyTitle() = %q", got)
	}

	if got := strategyTitle(types.GoalContext{}); got != "Grow a general account" {
		t.Errorf("strategyTitle(empty) = %q", got)
	}
}
