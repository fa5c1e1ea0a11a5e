package strategy

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Engine fans evaluation out to every specialist and merges the surviving
// proposals into one Strategy.
type Engine struct {
	specialists []Specialist
	cfg         config.StrategyConfig
	logger      *slog.Logger
	tracer      trace.Tracer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer attaches an otel tracer to synthesis.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// NewEngine creates an Engine over the given specialists.
func NewEngine(specialists []Specialist, cfg config.StrategyConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		specialists: specialists,
		cfg:         cfg,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// specialistOutcome carries one specialist's fan-out contribution.
type specialistOutcome struct {
	name     SpecialistName
	proposal *Proposal
	err      error
}

// Synthesize evaluates the goal with every specialist concurrently and
// merges the proposals. Individual specialist failures drop that proposal;
// the call fails only when no specialist produces one.
func (e *Engine) Synthesize(ctx context.Context, goal types.GoalContext, res *research.Result) (*Strategy, error) {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "strategy.Synthesize")
		defer span.End()
	}

	g, gCtx := errgroup.WithContext(ctx)
	outcomes := make(chan specialistOutcome, len(e.specialists))

	for _, specialist := range e.specialists {
		specialist := specialist

		g.Go(func() error {
			evalCtx, cancel := context.WithTimeout(gCtx, e.cfg.SpecialistTimeout)
			defer cancel()

			proposal, err := specialist.Evaluate(evalCtx, goal, res)

			select {
			case outcomes <- specialistOutcome{name: specialist.Name(), proposal: proposal, err: err}:
			case <-gCtx.Done():
			}

			// Collect every outcome rather than failing fast.
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)

	proposals := make([]*Proposal, 0, len(e.specialists))
	for outcome := range outcomes {
		if outcome.err != nil {
			metrics.SpecialistFailures.WithLabelValues(outcome.name.String()).Inc()
			e.logger.Warn("specialist evaluation failed",
				"specialist", outcome.name,
				"error", outcome.err)
			continue
		}
		if outcome.proposal == nil || len(outcome.proposal.Recommendations) == 0 {
			continue
		}
		proposals = append(proposals, outcome.proposal)
	}

	if len(proposals) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapRetryableError(types.STRATEGY_UNAVAILABLE, "strategy synthesis cancelled", err)
		}
		return nil, types.NewRetryableError(types.STRATEGY_UNAVAILABLE, "no specialist produced a proposal")
	}

	sorted := sortByPrecedence(proposals)
	strategy := &Strategy{
		Title:           strategyTitle(goal),
		Recommendations: mergeProposals(sorted),
		Specialists:     proposalNames(sorted),
		CreatedAt:       time.Now().UTC(),
	}

	e.logger.Info("strategy synthesized",
		"specialists", len(strategy.Specialists),
		"recommendations", len(strategy.Recommendations))
	return strategy, nil
}
