// Package plan converts a synthesized strategy into a schedule of automation
// tasks. Building a plan is a pure transformation: a fixed table maps
// recommendation categories onto task categories, budgets and target filters
// come from configuration and the goal context, and scheduled offsets spread
// the tasks across the campaign timeframe. No I/O happens here; the safety
// filter and the dispatcher decide what actually runs.
package plan

import (
	"encoding/json"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Task is one schedulable unit of automation work. Parameters carry the
// directives the automation backend understands; the category alone decides
// how the safety filter and the dispatcher treat the task.
type Task struct {
	ID              types.ID           `json:"id"`
	Category        types.TaskCategory `json:"category"`
	ScheduledOffset time.Duration      `json:"scheduled_offset"`
	Parameters      map[string]any     `json:"parameters,omitempty"`
}

// ExecutionPlan is the full schedule built from one strategy. Horizon is the
// window the offsets span; Budgets echoes the daily action budgets the plan
// was built with so the coaching response can surface them.
type ExecutionPlan struct {
	Tasks     []Task         `json:"tasks"`
	Horizon   time.Duration  `json:"horizon"`
	Budgets   map[string]int `json:"budgets"`
	CreatedAt time.Time      `json:"created_at"`
}

// MarshalBinary implements encoding.BinaryMarshaler for store persistence.
func (p *ExecutionPlan) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *ExecutionPlan) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}

// TaskByCategory returns the first task with the given category, or nil.
func (p *ExecutionPlan) TaskByCategory(category types.TaskCategory) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].Category == category {
			return &p.Tasks[i]
		}
	}
	return nil
}
