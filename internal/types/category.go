package types

import (
	"encoding/json"
	"fmt"
)

// TaskCategory enumerates every automation task category the system knows
// about. The planner, the safety filter, and the dispatcher all consume this
// single closed set, so a task can never reach dispatch carrying a category
// the filter has not seen.
type TaskCategory string

const (
	TaskEngagementLike    TaskCategory = "engagement-like"
	TaskEngagementFollow  TaskCategory = "engagement-follow"
	TaskEngagementComment TaskCategory = "engagement-comment"
	TaskHashtagResearch   TaskCategory = "hashtag-research"
	TaskAudienceResearch  TaskCategory = "audience-research"
	TaskAnalyticsPull     TaskCategory = "analytics-pull"
	TaskContentPosting    TaskCategory = "content-posting"
	TaskDirectMessage     TaskCategory = "direct-message"
)

// AllTaskCategories returns every defined category in declaration order.
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		TaskEngagementLike,
		TaskEngagementFollow,
		TaskEngagementComment,
		TaskHashtagResearch,
		TaskAudienceResearch,
		TaskAnalyticsPull,
		TaskContentPosting,
		TaskDirectMessage,
	}
}

// IsValid checks if the TaskCategory is a member of the closed set.
func (c TaskCategory) IsValid() bool {
	switch c {
	case TaskEngagementLike, TaskEngagementFollow, TaskEngagementComment,
		TaskHashtagResearch, TaskAudienceResearch, TaskAnalyticsPull,
		TaskContentPosting, TaskDirectMessage:
		return true
	default:
		return false
	}
}

// String returns the string representation of the TaskCategory.
func (c TaskCategory) String() string {
	return string(c)
}

// MarshalJSON implements json.Marshaler.
func (c TaskCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

// UnmarshalJSON implements json.Unmarshaler. Unknown categories unmarshal
// without error so the safety filter can observe and reject them; IsValid
// is the authority on membership.
func (c *TaskCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal task category: %w", err)
	}
	*c = TaskCategory(s)
	return nil
}
