package orchestrator

import (
	"context"

	"github.com/Akhil0736/luna-instagram-ai/internal/session"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// runTurn handles the conversational stages and hands complete contexts to
// the pipeline. It mutates the session but never persists it; AdvanceWith
// owns the save.
func (o *Orchestrator) runTurn(ctx context.Context, s *session.ConversationSession, input string) (*TurnResult, error) {
	switch s.Stage {
	case session.StageGreeting:
		// The very first message may already carry the whole goal.
		session.ExtractContext(&s.Context, input)
		if err := s.Transition(session.StageContextGathering); err != nil {
			return nil, err
		}
		if !s.Context.Complete() {
			return &TurnResult{Stage: s.Stage, Response: renderGreeting(s.Context)}, nil
		}

	case session.StageContextGathering:
		session.ExtractContext(&s.Context, input)
		if !s.Context.Complete() {
			return &TurnResult{Stage: s.Stage, Response: renderFollowUp(s.Context)}, nil
		}

	case session.StageError:
		// Any message retries: re-enter gathering with everything kept.
		if err := s.Transition(session.StageContextGathering); err != nil {
			return nil, err
		}
		s.LastError = ""
		session.ExtractContext(&s.Context, input)
		if !s.Context.Complete() {
			return &TurnResult{Stage: s.Stage, Response: renderFollowUp(s.Context)}, nil
		}

	case session.StageCompleted:
		return &TurnResult{
			Stage:       s.Stage,
			Response:    renderCompleted(),
			ExecutionID: s.ExecutionID,
		}, nil

	case session.StageMonitoring:
		return o.monitorTurn(ctx, s)
	}

	// Researching, strategizing, planning, and executing resume here too
	// when a previous turn was cut short after its transition persisted.
	return o.runPipeline(ctx, s)
}

// runPipeline drives the session from wherever it stands through dispatch.
// The stages between gathered context and a launched execution are automatic
// pass-throughs; each stores its artifact on the session before moving on,
// so a failure in a later stage never costs an earlier stage's work.
func (o *Orchestrator) runPipeline(ctx context.Context, s *session.ConversationSession) (*TurnResult, error) {
	if s.Stage == session.StageContextGathering {
		if err := s.Transition(session.StageResearching); err != nil {
			return nil, err
		}
	}

	if s.Stage == session.StageResearching {
		result, err := o.coordinator.Research(ctx, types.UserID(s.UserID), s.Context.Describe())
		if err != nil {
			return nil, err
		}
		s.Research = result
		// Degraded results still advance; a thin strategy beats no answer.
		if err := s.Transition(session.StageStrategizing); err != nil {
			return nil, err
		}
	}

	if s.Stage == session.StageStrategizing {
		strat, err := o.engine.Synthesize(ctx, s.Context, s.Research)
		if err != nil {
			return nil, err
		}
		s.Strategy = strat
		if err := s.Transition(session.StagePlanning); err != nil {
			return nil, err
		}
	}

	if s.Stage == session.StagePlanning {
		built, err := o.builder.Build(s.Context, s.Strategy)
		if err != nil {
			return nil, err
		}
		s.Plan = built
		if err := s.Transition(session.StageExecuting); err != nil {
			return nil, err
		}
	}

	if s.Plan == nil {
		return nil, types.NewError(types.PLAN_INVALID, "session has no plan to execute")
	}

	allowed, rejected := o.filter.Apply(ctx, s.Plan.Tasks)
	executionID := types.NewExecutionID().String()
	st, err := o.dispatcher.Dispatch(ctx, s.UserID, executionID, allowed)
	if err != nil {
		return nil, err
	}
	s.ExecutionID = executionID
	if err := s.Transition(session.StageMonitoring); err != nil {
		return nil, err
	}

	o.logger.Info("execution launched",
		"user_id", s.UserID,
		"execution_id", executionID,
		"tasks", len(allowed),
		"rejected", len(rejected),
	)

	return &TurnResult{
		Stage:       s.Stage,
		Response:    o.renderLaunch(s, st, rejected),
		ExecutionID: executionID,
	}, nil
}

// monitorTurn reports execution progress and closes the session out once
// every task has reached a terminal state.
func (o *Orchestrator) monitorTurn(ctx context.Context, s *session.ConversationSession) (*TurnResult, error) {
	if o.poller != nil {
		o.poller.Sweep()
	}

	st, err := o.dispatcher.Status(ctx, s.ExecutionID)
	if err != nil {
		return nil, err
	}

	if !st.Done() {
		return &TurnResult{
			Stage:       s.Stage,
			Response:    renderProgress(st),
			ExecutionID: s.ExecutionID,
		}, nil
	}

	if err := s.Transition(session.StageCompleted); err != nil {
		return nil, err
	}
	return &TurnResult{
		Stage:       s.Stage,
		Response:    renderWrapUp(st),
		ExecutionID: s.ExecutionID,
	}, nil
}
