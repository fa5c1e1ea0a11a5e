// Package session holds the per-user conversation state machine. A session
// walks a strict forward path from greeting to monitoring, carrying the goal
// context and every artifact the pipeline produces along the way. Sessions
// are plain JSON documents persisted in the shared store, so any process can
// pick up where another left off.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/strategy"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Stage is the lifecycle position of a conversation session.
type Stage string

const (
	// StageGreeting is the initial stage of a fresh session.
	StageGreeting Stage = "greeting"

	// StageContextGathering collects the user's niche, follower counts, and
	// timeframe until the goal context is complete.
	StageContextGathering Stage = "context_gathering"

	// StageResearching runs the provider fan-out for the gathered goal.
	StageResearching Stage = "researching"

	// StageStrategizing synthesizes specialist proposals into a strategy.
	StageStrategizing Stage = "strategizing"

	// StagePlanning converts the strategy into an execution plan.
	StagePlanning Stage = "planning"

	// StageExecuting filters and dispatches the plan's tasks.
	StageExecuting Stage = "executing"

	// StageMonitoring tracks dispatched tasks until they finish.
	StageMonitoring Stage = "monitoring"

	// StageCompleted is the terminal stage; no transitions leave it.
	StageCompleted Stage = "completed"

	// StageError marks a failed turn. It is recoverable: the session keeps
	// everything gathered so far and can restart the pipeline.
	StageError Stage = "error"
)

// stageTransitions is the adjacency map of legal moves. The happy path only
// walks forward; error is reachable from every live stage and recovers by
// re-entering the pipeline with the gathered context intact.
var stageTransitions = map[Stage][]Stage{
	StageGreeting:         {StageContextGathering, StageError},
	StageContextGathering: {StageResearching, StageError},
	StageResearching:      {StageStrategizing, StageError},
	StageStrategizing:     {StagePlanning, StageError},
	StagePlanning:         {StageExecuting, StageError},
	StageExecuting:        {StageMonitoring, StageError},
	StageMonitoring:       {StageCompleted, StageError},
	StageCompleted:        nil,
	StageError:            {StageGreeting, StageContextGathering},
}

// CanTransition reports whether moving between the two stages is legal.
func CanTransition(from, to Stage) bool {
	for _, next := range stageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllStages returns every defined stage in lifecycle order.
func AllStages() []Stage {
	return []Stage{
		StageGreeting,
		StageContextGathering,
		StageResearching,
		StageStrategizing,
		StagePlanning,
		StageExecuting,
		StageMonitoring,
		StageCompleted,
		StageError,
	}
}

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks if the Stage is a member of the closed set.
func (s Stage) IsValid() bool {
	_, ok := stageTransitions[s]
	return ok
}

// IsTerminal reports whether no transitions leave the stage.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// ConversationSession is the whole of one user's coaching conversation. Each
// stage fills in its own field and leaves earlier fields untouched, so a
// session in any stage carries every artifact produced before it.
type ConversationSession struct {
	UserID      string              `json:"user_id"`
	Stage       Stage               `json:"stage"`
	Context     types.GoalContext   `json:"context"`
	Research    *research.Result    `json:"research,omitempty"`
	Strategy    *strategy.Strategy  `json:"strategy,omitempty"`
	Plan        *plan.ExecutionPlan `json:"plan,omitempty"`
	ExecutionID string              `json:"execution_id,omitempty"`
	LastError   string              `json:"last_error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewSession creates a fresh session in the greeting stage.
func NewSession(userID string) *ConversationSession {
	now := time.Now().UTC()
	return &ConversationSession{
		UserID:    userID,
		Stage:     StageGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the session to the target stage, enforcing the adjacency
// map.
func (s *ConversationSession) Transition(target Stage) error {
	if !CanTransition(s.Stage, target) {
		return types.NewError(types.INVALID_TRANSITION,
			fmt.Sprintf("cannot move session from %s to %s", s.Stage, target))
	}
	s.Stage = target
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves the session to the error stage with a reason, keeping every
// artifact gathered so far. Completed sessions never run a pipeline, so Fail
// is only reached from live stages.
func (s *ConversationSession) Fail(reason string) {
	s.Stage = StageError
	s.LastError = reason
	s.UpdatedAt = time.Now().UTC()
}

// MarshalBinary implements encoding.BinaryMarshaler for store persistence.
func (s *ConversationSession) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *ConversationSession) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}
