package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// semanticKey identifies recommendations that address the same lever: the
// category plus the canonicalized leading action verb. Two specialists
// telling the user to "research niche hashtags" and "find niche hashtags"
// land on the same key.
type semanticKey struct {
	category RecommendationCategory
	verb     string
}

// verbSynonyms canonicalizes leading action verbs so near-identical phrasing
// merges instead of duplicating.
var verbSynonyms = map[string]string{
	"find":     "research",
	"identify": "research",
	"mine":     "research",
	"discover": "research",
	"interact": "engage",
	"connect":  "engage",
	"monitor":  "track",
	"measure":  "track",
	"review":   "track",
	"pull":     "track",
	"publish":  "post",
	"share":    "post",
	"study":    "analyze",
	"profile":  "analyze",
	"audit":    "analyze",
	"plan":     "schedule",
	"time":     "schedule",
}

// canonicalVerb extracts and canonicalizes the first word of an action.
func canonicalVerb(action string) string {
	fields := strings.Fields(strings.ToLower(action))
	if len(fields) == 0 {
		return ""
	}
	verb := strings.Trim(fields[0], ".,:;!")
	if canonical, ok := verbSynonyms[verb]; ok {
		return canonical
	}
	return verb
}

// sortByPrecedence returns the proposals ordered by specialist precedence
// without mutating the input, so merging never depends on fan-out completion
// order.
func sortByPrecedence(proposals []*Proposal) []*Proposal {
	sorted := make([]*Proposal, len(proposals))
	copy(sorted, proposals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Specialist.precedence() < sorted[j].Specialist.precedence()
	})
	return sorted
}

// mergeProposals folds proposals into the unified recommendation list.
// Proposals must already be in precedence order: the first proposer of a
// semantic key holds the slot, so later duplicates collapse into it and
// later conflicts lose to it. A duplicate shares the holder's detail and
// contributes its rationale; a conflict (same key, different detail) keeps
// only its rationale, recorded as superseded.
func mergeProposals(proposals []*Proposal) []Unified {
	var order []semanticKey
	merged := make(map[semanticKey]*Unified)

	for _, proposal := range proposals {
		for _, rec := range proposal.Recommendations {
			if err := rec.Validate(); err != nil {
				continue
			}

			key := semanticKey{category: rec.Category, verb: canonicalVerb(rec.Action)}
			holder, ok := merged[key]
			if !ok {
				merged[key] = &Unified{
					Recommendation: rec,
					Sources:        []SpecialistName{proposal.Specialist},
				}
				order = append(order, key)
				continue
			}

			holder.Sources = appendSource(holder.Sources, proposal.Specialist)

			if sameDetail(holder.Detail, rec.Detail) {
				if rec.Rationale != "" && rec.Rationale != holder.Rationale {
					holder.Rationale = joinRationale(holder.Rationale, rec.Rationale)
				}
				if rec.Priority.rank() < holder.Priority.rank() {
					holder.Priority = rec.Priority
				}
				continue
			}

			superseded := rec.Rationale
			if superseded == "" {
				superseded = rec.Detail
			}
			holder.SupersededRationale = append(holder.SupersededRationale,
				fmt.Sprintf("%s: %s", proposal.Specialist, superseded))
		}
	}

	unified := make([]Unified, 0, len(order))
	for _, key := range order {
		unified = append(unified, *merged[key])
	}

	sort.SliceStable(unified, func(i, j int) bool {
		if unified[i].Priority != unified[j].Priority {
			return unified[i].Priority.rank() < unified[j].Priority.rank()
		}
		if unified[i].Category != unified[j].Category {
			return unified[i].Category < unified[j].Category
		}
		return unified[i].Action < unified[j].Action
	})
	return unified
}

// appendSource adds a specialist to the source list once.
func appendSource(sources []SpecialistName, name SpecialistName) []SpecialistName {
	for _, existing := range sources {
		if existing == name {
			return sources
		}
	}
	return append(sources, name)
}

// sameDetail compares details ignoring case and whitespace runs.
func sameDetail(a, b string) bool {
	return strings.EqualFold(fold(a), fold(b))
}

// joinRationale concatenates two rationales as sentences.
func joinRationale(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return strings.TrimSpace(a) + " " + strings.TrimSpace(b)
}

// proposalNames lists the contributing specialists in proposal order.
func proposalNames(proposals []*Proposal) []SpecialistName {
	names := make([]SpecialistName, 0, len(proposals))
	for _, proposal := range proposals {
		names = append(names, proposal.Specialist)
	}
	return names
}

// strategyTitle renders the strategy headline from the goal.
func strategyTitle(goal types.GoalContext) string {
	desc := goal.Describe()
	if desc == "" {
		return "Instagram growth strategy"
	}
	return strings.ToUpper(desc[:1]) + desc[1:]
}
