package types

import "fmt"

// GoalContext captures what the user wants from their growth campaign. The
// session layer fills it in piecemeal from free-text conversation turns; the
// strategy engine and the planner consume it read-only. A zero TimeframeDays
// means the user never stated a deadline.
type GoalContext struct {
	// Niche is the account's content vertical, e.g. "fitness" or "travel".
	Niche string `json:"niche,omitempty"`

	// CurrentFollowers and TargetFollowers bound the growth the user asked
	// for. TargetFollowers of zero means no explicit target was given.
	CurrentFollowers int `json:"current_followers,omitempty"`
	TargetFollowers  int `json:"target_followers,omitempty"`

	// TimeframeDays is the stated deadline converted to days.
	TimeframeDays int `json:"timeframe_days,omitempty"`

	// Constraints are user-stated limits, e.g. "no comments" or
	// "weekdays only". Free-form, surfaced in prompts and plan parameters.
	Constraints []string `json:"constraints,omitempty"`

	// TargetAudience describes who the account wants to reach.
	TargetAudience string `json:"target_audience,omitempty"`

	// Notes holds context the extractor recognized but has no field for.
	Notes string `json:"notes,omitempty"`
}

// Complete reports whether enough context has been gathered to start
// research: a niche, a follower delta, and a timeframe.
func (g GoalContext) Complete() bool {
	return g.Niche != "" && g.TargetFollowers > 0 && g.TimeframeDays > 0
}

// FollowerDelta returns the number of followers the user wants to gain, or
// zero when the target is absent or already met.
func (g GoalContext) FollowerDelta() int {
	delta := g.TargetFollowers - g.CurrentFollowers
	if delta < 0 {
		return 0
	}
	return delta
}

// Describe renders the goal as a single sentence for prompts and logs.
func (g GoalContext) Describe() string {
	niche := g.Niche
	if niche == "" {
		niche = "general"
	}
	if g.TargetFollowers > 0 && g.TimeframeDays > 0 {
		return fmt.Sprintf("grow a %s account from %d to %d followers in %d days",
			niche, g.CurrentFollowers, g.TargetFollowers, g.TimeframeDays)
	}
	if g.TargetFollowers > 0 {
		return fmt.Sprintf("grow a %s account from %d to %d followers",
			niche, g.CurrentFollowers, g.TargetFollowers)
	}
	return fmt.Sprintf("grow a %s account", niche)
}
