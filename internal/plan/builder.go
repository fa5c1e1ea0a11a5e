package plan

import (
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/strategy"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// defaultHorizon is the planning window when the goal has no timeframe.
const defaultHorizon = 7 * 24 * time.Hour

// Budget bounds. Config validation enforces the same ranges; the clamp here
// keeps hand-built configs from producing out-of-range directives.
const (
	minDailyLikes, maxDailyLikes       = 10, 200
	minDailyFollows, maxDailyFollows   = 5, 100
	minDailyComments, maxDailyComments = 1, 50
)

// Target filter defaults for engagement tasks.
const (
	targetMinFollowers = 100
	targetMaxFollowers = 100000
)

// Builder derives execution plans from strategies.
type Builder struct {
	cfg config.PlannerConfig
}

// NewBuilder creates a Builder with the given budgets and spacing floor.
func NewBuilder(cfg config.PlannerConfig) *Builder {
	return &Builder{cfg: cfg}
}

// taskCategoriesFor maps one recommendation category onto automation task
// categories. Advice-only categories map to nothing: they reach the user in
// the coaching response but produce no automation.
func taskCategoriesFor(category strategy.RecommendationCategory) []types.TaskCategory {
	switch category {
	case strategy.CategoryCommunityEngagement:
		return []types.TaskCategory{types.TaskEngagementLike, types.TaskEngagementFollow}
	case strategy.CategoryHashtagStrategy:
		return []types.TaskCategory{types.TaskHashtagResearch}
	case strategy.CategoryAudienceInsight:
		return []types.TaskCategory{types.TaskAudienceResearch}
	case strategy.CategoryPerformanceTracking:
		return []types.TaskCategory{types.TaskAnalyticsPull}
	default:
		return nil
	}
}

// isResearchCategory reports whether a task gathers data rather than acting
// on other accounts. Research tasks schedule ahead of engagement tasks.
func isResearchCategory(category types.TaskCategory) bool {
	switch category {
	case types.TaskHashtagResearch, types.TaskAudienceResearch, types.TaskAnalyticsPull:
		return true
	default:
		return false
	}
}

// Build converts a strategy into an execution plan for the goal. Each task
// category appears at most once regardless of how many recommendations map
// to it. A strategy whose recommendations are all advice-only yields a valid
// plan with no tasks.
func (b *Builder) Build(goal types.GoalContext, strat *strategy.Strategy) (*ExecutionPlan, error) {
	if strat == nil || len(strat.Recommendations) == 0 {
		return nil, types.NewError(types.PLAN_INVALID, "strategy has no recommendations")
	}

	var researchTasks, engagementTasks []Task
	seen := make(map[types.TaskCategory]bool)

	// Recommendations arrive priority-ordered from the merge, so the first
	// recommendation to name a category decides its position.
	for _, rec := range strat.Recommendations {
		for _, category := range taskCategoriesFor(rec.Category) {
			if seen[category] {
				continue
			}
			seen[category] = true

			task := Task{
				ID:         types.NewID(),
				Category:   category,
				Parameters: b.parametersFor(category, goal),
			}
			if isResearchCategory(category) {
				researchTasks = append(researchTasks, task)
			} else {
				engagementTasks = append(engagementTasks, task)
			}
		}
	}

	horizon := defaultHorizon
	if goal.TimeframeDays > 0 {
		horizon = time.Duration(goal.TimeframeDays) * 24 * time.Hour
	}

	tasks := b.schedule(researchTasks, engagementTasks, horizon)

	return &ExecutionPlan{
		Tasks:   tasks,
		Horizon: horizon,
		Budgets: map[string]int{
			"daily_likes":    clamp(b.cfg.DailyLikes, minDailyLikes, maxDailyLikes),
			"daily_follows":  clamp(b.cfg.DailyFollows, minDailyFollows, maxDailyFollows),
			"daily_comments": clamp(b.cfg.DailyComments, minDailyComments, maxDailyComments),
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// schedule assigns offsets and concatenates the two groups. Research tasks
// run promptly at the spacing floor; engagement tasks spread evenly across
// the rest of the horizon. The spacing floor always wins over the horizon,
// so short timeframes stretch rather than cluster tasks at one instant.
func (b *Builder) schedule(research, engagement []Task, horizon time.Duration) []Task {
	spacing := b.cfg.MinSpacing
	if spacing <= 0 {
		spacing = time.Minute
	}

	tasks := make([]Task, 0, len(research)+len(engagement))

	var offset time.Duration
	for i := range research {
		research[i].ScheduledOffset = offset
		tasks = append(tasks, research[i])
		offset += spacing
	}

	if len(engagement) == 0 {
		return tasks
	}

	engagementSpacing := (horizon - offset) / time.Duration(len(engagement))
	if engagementSpacing < spacing {
		engagementSpacing = spacing
	}
	for i := range engagement {
		engagement[i].ScheduledOffset = offset
		tasks = append(tasks, engagement[i])
		offset += engagementSpacing
	}

	return tasks
}

// parametersFor builds the backend directive payload for one task category.
func (b *Builder) parametersFor(category types.TaskCategory, goal types.GoalContext) map[string]any {
	switch category {
	case types.TaskEngagementLike:
		return map[string]any{
			"action":          "auto_like_posts",
			"target_count":    clamp(b.cfg.DailyLikes, minDailyLikes, maxDailyLikes),
			"niche":           nicheOrGeneral(goal),
			"target_audience": audienceList(goal),
			"filters": map[string]any{
				"min_followers":     targetMinFollowers,
				"max_followers":     targetMaxFollowers,
				"recent_posts_only": true,
			},
			"frequency": "daily",
			"priority":  "high",
		}
	case types.TaskEngagementFollow:
		return map[string]any{
			"action":          "strategic_follow",
			"target_count":    clamp(b.cfg.DailyFollows, minDailyFollows, maxDailyFollows),
			"niche":           nicheOrGeneral(goal),
			"target_audience": audienceList(goal),
			"follow_criteria": map[string]any{
				"active_in_niche":     true,
				"min_engagement_rate": 0.02,
				"min_followers":       targetMinFollowers,
				"max_followers":       targetMaxFollowers,
			},
			"frequency": "daily",
			"priority":  "medium",
		}
	case types.TaskHashtagResearch:
		return map[string]any{
			"action":              "research_trending_hashtags",
			"base_hashtags":       nicheHashtags(goal),
			"find_related":        true,
			"analyze_competition": true,
			"priority":            "low",
		}
	case types.TaskAudienceResearch:
		return map[string]any{
			"action":                "analyze_competitor_followers",
			"niche":                 nicheOrGeneral(goal),
			"target_audience":       audienceList(goal),
			"identify_active_users": true,
			"build_prospect_list":   true,
			"priority":              "medium",
		}
	case types.TaskAnalyticsPull:
		return map[string]any{
			"action":    "track_growth_metrics",
			"metrics":   []string{"followers_count", "engagement_rate", "daily_reach"},
			"frequency": "daily",
			"priority":  "low",
		}
	default:
		return nil
	}
}

// nicheHashtags derives seed hashtags from the goal niche: the whole niche
// collapsed to one tag plus a tag per word longer than three characters.
func nicheHashtags(goal types.GoalContext) []string {
	niche := nicheOrGeneral(goal)
	words := strings.Fields(strings.ToLower(niche))

	tags := make([]string, 0, len(words)+1)
	tags = append(tags, "#"+strings.Join(words, ""))
	if len(words) > 1 {
		for _, word := range words {
			if len(word) > 3 {
				tags = append(tags, "#"+word)
			}
		}
	}
	return tags
}

func nicheOrGeneral(goal types.GoalContext) string {
	if goal.Niche == "" {
		return "general"
	}
	return goal.Niche
}

// audienceList wraps the audience description for the backend, which takes a
// list of audience descriptors.
func audienceList(goal types.GoalContext) []string {
	if goal.TargetAudience == "" {
		return nil
	}
	return []string{goal.TargetAudience}
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
