// Package orchestrator drives coaching conversations through their stages.
// Each Advance folds one user message into the session, runs as much of the
// research, strategy, planning, and dispatch pipeline as the gathered context
// allows, and persists the session before releasing the user's lock. Turns
// for the same user serialize; turns for different users only share the
// research cache.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Akhil0736/luna-instagram-ai/internal/contextkeys"
	"github.com/Akhil0736/luna-instagram-ai/internal/dispatch"
	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/safety"
	"github.com/Akhil0736/luna-instagram-ai/internal/session"
	"github.com/Akhil0736/luna-instagram-ai/internal/strategy"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// TurnResult is the structured outcome of one conversation turn.
type TurnResult struct {
	Stage       session.Stage `json:"stage"`
	Response    string        `json:"response"`
	ExecutionID string        `json:"execution_id,omitempty"`
}

// AdvanceOpts controls session creation and stage forcing for one turn.
type AdvanceOpts struct {
	// Create makes a fresh session when the user has none instead of
	// returning SESSION_NOT_FOUND.
	Create bool

	// ForceStage jumps the session to the given stage before the turn runs.
	// The jump must be legal for the session's current stage.
	ForceStage session.Stage
}

// Orchestrator coordinates the session manager and the pipeline components.
type Orchestrator struct {
	sessions    *session.Manager
	coordinator *research.Coordinator
	engine      *strategy.Engine
	builder     *plan.Builder
	filter      *safety.Filter
	dispatcher  *dispatch.Dispatcher
	poller      *dispatch.Poller
	logger      *slog.Logger
	tracer      trace.Tracer

	turnTimeout    time.Duration
	degradedNotice bool

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer enables OpenTelemetry tracing of turns.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithPoller lets status reads force a dispatch sweep instead of waiting out
// the poll schedule.
func WithPoller(p *dispatch.Poller) Option {
	return func(o *Orchestrator) {
		o.poller = p
	}
}

// WithTurnTimeout bounds one Advance end to end.
// Default: 2 minutes.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.turnTimeout = d
		}
	}
}

// WithDegradedNotice appends a notice to the coaching response when the
// research behind it ran degraded. Off, degradation is only logged.
func WithDegradedNotice(enabled bool) Option {
	return func(o *Orchestrator) {
		o.degradedNotice = enabled
	}
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(
	sessions *session.Manager,
	coordinator *research.Coordinator,
	engine *strategy.Engine,
	builder *plan.Builder,
	filter *safety.Filter,
	dispatcher *dispatch.Dispatcher,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		sessions:    sessions,
		coordinator: coordinator,
		engine:      engine,
		builder:     builder,
		filter:      filter,
		dispatcher:  dispatcher,
		logger:      slog.Default(),
		turnTimeout: 2 * time.Minute,
		users:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Advance runs one conversation turn, creating the session if needed.
func (o *Orchestrator) Advance(ctx context.Context, userID, input string) (*TurnResult, error) {
	return o.AdvanceWith(ctx, userID, input, AdvanceOpts{Create: true})
}

// AdvanceWith runs one conversation turn with explicit options. The session
// mutation is persisted before the user's locks are released, so a result
// returned here is a result a concurrent reader will see.
func (o *Orchestrator) AdvanceWith(ctx context.Context, userID, input string, opts AdvanceOpts) (*TurnResult, error) {
	if err := types.UserID(userID).Validate(); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	turnID := contextkeys.GetTurnID(ctx)
	if turnID == "" {
		turnID = types.NewID().String()
		ctx = contextkeys.WithTurnID(ctx, turnID)
	}

	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "orchestrator.Advance",
			trace.WithAttributes(attribute.String("session.user_id", userID)))
		defer span.End()
	}

	// Same-user turns serialize: in-process via the per-user mutex, across
	// processes via the store advisory lock.
	userMu := o.userMutex(userID)
	userMu.Lock()
	defer userMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	unlock, err := o.sessions.Lock(ctx, userID, o.turnTimeout+30*time.Second)
	if err != nil {
		return nil, err
	}
	// The turn context may already be spent when the turn ends; release the
	// lock regardless so it does not linger until the TTL.
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			o.logger.Debug("session lock release failed", "user_id", userID, "error", err)
		}
	}()

	s, err := o.sessions.Get(ctx, userID)
	if err != nil {
		if types.CodeOf(err) != types.SESSION_NOT_FOUND || !opts.Create {
			return nil, err
		}
		s = session.NewSession(userID)
		o.logger.Info("session created", "user_id", userID)
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	start := time.Now()
	defer func() {
		metrics.TurnDuration.WithLabelValues(s.Stage.String()).Observe(time.Since(start).Seconds())
	}()

	if opts.ForceStage != "" {
		if err := s.Transition(opts.ForceStage); err != nil {
			return nil, err
		}
	}

	result, turnErr := o.runTurn(ctx, s, input)
	if turnErr != nil {
		failed := s.Stage
		s.Fail(turnErr.Error())
		o.logger.Error("turn failed",
			"turn_id", turnID,
			"user_id", userID,
			"stage", failed,
			"error", turnErr,
		)
		result = &TurnResult{
			Stage:    s.Stage,
			Response: renderError(failed, turnErr),
		}
	}

	if err := o.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	if turnErr != nil {
		return result, turnErr
	}

	o.logger.Debug("turn complete",
		"turn_id", turnID,
		"user_id", userID,
		"stage", s.Stage,
		"duration", time.Since(start),
	)
	return result, nil
}

// ExecutionStatus is the dispatch view of one execution.
type ExecutionStatus struct {
	ExecutionID string                    `json:"execution_id"`
	Records     []dispatch.DispatchRecord `json:"records"`
	Progress    float64                   `json:"progress"`
	Done        bool                      `json:"done"`
}

// Status reports how far an execution's tasks have come, as a record set and
// a progress percentage.
func (o *Orchestrator) Status(ctx context.Context, executionID string) (*ExecutionStatus, error) {
	if o.poller != nil {
		o.poller.Sweep()
	}

	st, err := o.dispatcher.Status(ctx, executionID)
	if err != nil {
		return nil, err
	}
	return &ExecutionStatus{
		ExecutionID: st.ExecutionID,
		Records:     st.Records,
		Progress:    st.Progress() * 100,
		Done:        st.Done(),
	}, nil
}

// Reset discards the user's session and starts a fresh one in greeting.
func (o *Orchestrator) Reset(ctx context.Context, userID string) (*TurnResult, error) {
	if err := types.UserID(userID).Validate(); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	userMu := o.userMutex(userID)
	userMu.Lock()
	defer userMu.Unlock()

	s := session.NewSession(userID)
	if err := o.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	o.logger.Info("session reset", "user_id", userID)

	return &TurnResult{
		Stage:    s.Stage,
		Response: renderGreeting(s.Context),
	}, nil
}

func (o *Orchestrator) userMutex(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, ok := o.users[userID]
	if !ok {
		m = &sync.Mutex{}
		o.users[userID] = m
	}
	return m
}
