package session

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Follower counts accept thousands separators and a k suffix, so "5,000",
// "5000", and "5k" all parse to the same number.
var (
	fromToPattern    = regexp.MustCompile(`\bfrom\s+([\d,]+k?)\s+to\s+([\d,]+k?)`)
	targetPattern    = regexp.MustCompile(`\b(?:reach|hit|get to|grow to|want)\s+([\d,]+k?)\s*(?:followers?|subs?)`)
	currentPattern   = regexp.MustCompile(`\b(?:have|with|at|around|currently)\s+([\d,]+k?)\s*followers?`)
	timeframePattern = regexp.MustCompile(`\b(?:in|within|over)\s+(\d+)\s*(day|week|month|year)s?\b`)
)

type keywordSet struct {
	label    string
	keywords []string
}

// nicheKeywords maps niche labels to the words that signal them. Order
// matters: the most specific niches come first so "breathwork coaching"
// lands on breathwork, not business.
var nicheKeywords = []keywordSet{
	{"breathwork", []string{"breathwork", "breathing", "breath"}},
	{"fitness", []string{"fitness", "workout", "training", "gym"}},
	{"nutrition", []string{"nutrition", "diet", "nutritionist"}},
	{"wellness", []string{"wellness", "mindfulness", "meditation", "yoga"}},
	{"business", []string{"business", "entrepreneur", "coaching", "consulting", "startup", "marketing"}},
	{"tech", []string{"tech", "software", "coding", "developer"}},
	{"fashion", []string{"fashion", "style", "beauty", "makeup"}},
	{"food", []string{"food", "recipe", "cooking", "chef"}},
	{"travel", []string{"travel", "adventure", "wanderlust"}},
}

var audienceKeywords = []keywordSet{
	{"entrepreneurs", []string{"entrepreneurs", "founders", "business owners"}},
	{"professionals", []string{"professionals", "executives", "corporate"}},
	{"students", []string{"students", "university", "college"}},
	{"parents", []string{"parents", "moms", "dads", "families"}},
	{"beginners", []string{"beginners", "newcomers", "starting out"}},
}

// constraintMarkers flag a sentence fragment as a user-stated limit.
var constraintMarkers = []string{"no ", "avoid", "don't", "do not", "can't", "cannot", "without"}

// ExtractContext folds one user message into the goal. Extraction is
// set-once: a field already filled by an earlier message is never
// overwritten, so the user's first statement of a fact wins and follow-up
// answers only fill the gaps.
func ExtractContext(goal *types.GoalContext, input string) {
	lower := strings.ToLower(input)

	if goal.Niche == "" {
		goal.Niche = matchKeyword(lower, nicheKeywords)
	}
	if goal.TargetAudience == "" {
		goal.TargetAudience = matchKeyword(lower, audienceKeywords)
	}

	// "from 500 to 5000" states both counts at once; try it before the
	// single-count patterns.
	if m := fromToPattern.FindStringSubmatch(lower); m != nil {
		if n := parseCount(m[1]); n > 0 && goal.CurrentFollowers == 0 {
			goal.CurrentFollowers = n
		}
		if n := parseCount(m[2]); n > 0 && goal.TargetFollowers == 0 {
			goal.TargetFollowers = n
		}
	}
	if goal.TargetFollowers == 0 {
		if m := targetPattern.FindStringSubmatch(lower); m != nil {
			goal.TargetFollowers = parseCount(m[1])
		}
	}
	if goal.CurrentFollowers == 0 {
		if m := currentPattern.FindStringSubmatch(lower); m != nil {
			goal.CurrentFollowers = parseCount(m[1])
		}
	}
	if goal.TimeframeDays == 0 {
		if m := timeframePattern.FindStringSubmatch(lower); m != nil {
			goal.TimeframeDays = parseTimeframe(m[1], m[2])
		}
	}

	for _, constraint := range extractConstraints(input) {
		if !containsFold(goal.Constraints, constraint) {
			goal.Constraints = append(goal.Constraints, constraint)
		}
	}
}

// NextQuestion returns the follow-up for the most important missing field,
// or "" when the goal is complete enough to research.
func NextQuestion(goal types.GoalContext) string {
	switch {
	case goal.Niche == "":
		return "What kind of content do you post? For example fitness, business coaching, or travel."
	case goal.TargetFollowers == 0:
		return "How many followers are you at now, and where do you want to get to?"
	case goal.TimeframeDays == 0:
		return "What timeframe are you working with? For example 60 days or 3 months."
	default:
		return ""
	}
}

func matchKeyword(lower string, sets []keywordSet) string {
	for _, set := range sets {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.label
			}
		}
	}
	return ""
}

// parseCount parses a follower count, stripping thousands separators and
// expanding a k suffix. Returns 0 on anything unparseable.
func parseCount(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	multiplier := 1
	if strings.HasSuffix(raw, "k") {
		raw = strings.TrimSuffix(raw, "k")
		multiplier = 1000
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n * multiplier
}

// parseTimeframe normalizes a count and unit to days.
func parseTimeframe(count, unit string) int {
	n, err := strconv.Atoi(count)
	if err != nil || n <= 0 {
		return 0
	}
	switch unit {
	case "week":
		return n * 7
	case "month":
		return n * 30
	case "year":
		return n * 365
	default:
		return n
	}
}

// extractConstraints pulls out sentence fragments that read like limits,
// preserving the user's original casing.
func extractConstraints(input string) []string {
	fragments := strings.FieldsFunc(input, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', ',':
			return true
		}
		return false
	})

	var out []string
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		lower := strings.ToLower(fragment)
		for _, marker := range constraintMarkers {
			if strings.Contains(lower, marker) {
				out = append(out, fragment)
				break
			}
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
