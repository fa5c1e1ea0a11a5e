// Package safety is the default-deny gate between planning and dispatch.
// Every task passes a rule pipeline: deny rules reject known-harmful
// categories outright, allow rules pass the vetted automation set, and
// anything neither recognizes is rejected. The filter is a pure predicate
// over the task category, so it re-runs cheaply on every dispatch, including
// plans replayed from cache.
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Action is a rule's verdict on one task.
type Action string

const (
	// ActionAllow admits the task; later rules are not consulted.
	ActionAllow Action = "allow"
	// ActionDeny rejects the task; later rules are not consulted.
	ActionDeny Action = "deny"
	// ActionPass defers to the next rule.
	ActionPass Action = "pass"
)

// Verdict carries a rule's action and, for denials, the reason.
type Verdict struct {
	Action Action
	Reason string
}

// Rule checks one task. Rules are pure and must not perform I/O.
type Rule interface {
	Name() string
	Check(task plan.Task) Verdict
}

// Rejection records one filtered-out task and why it was rejected.
type Rejection struct {
	Task   plan.Task `json:"task"`
	Rule   string    `json:"rule"`
	Reason string    `json:"reason"`
}

// Filter runs the rule pipeline over planned tasks.
type Filter struct {
	rules  []Rule
	logger *slog.Logger
	tracer trace.Tracer
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithLogger sets the filter logger.
func WithLogger(logger *slog.Logger) FilterOption {
	return func(f *Filter) {
		f.logger = logger
	}
}

// WithTracer attaches an otel tracer to filtering.
func WithTracer(tracer trace.Tracer) FilterOption {
	return func(f *Filter) {
		f.tracer = tracer
	}
}

// NewFilter creates a Filter with the built-in rule pipeline: deny rules
// first, then allow rules, then default deny.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{
		rules:  []Rule{newDenyRule(), newAllowRule()},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply partitions tasks into allowed and rejected. A task is allowed only
// when a rule explicitly allows it; no rule claiming it is itself a
// rejection. Rejections are logged as policy violations and counted, never
// returned as errors: filtering is an expected outcome, not a failure.
func (f *Filter) Apply(ctx context.Context, tasks []plan.Task) ([]plan.Task, []Rejection) {
	if f.tracer != nil {
		_, span := f.tracer.Start(ctx, "safety.Apply",
			trace.WithAttributes(attribute.Int("safety.task_count", len(tasks))))
		defer span.End()
	}

	allowed := make([]plan.Task, 0, len(tasks))
	var rejected []Rejection

	for _, task := range tasks {
		verdict, rule := f.check(task)
		if verdict.Action == ActionAllow {
			allowed = append(allowed, task)
			continue
		}

		rejection := Rejection{Task: task, Rule: rule, Reason: verdict.Reason}
		rejected = append(rejected, rejection)

		metrics.TasksRejected.WithLabelValues(task.Category.String()).Inc()
		f.logger.Warn("policy violation: task rejected",
			"task_id", task.ID,
			"category", task.Category,
			"rule", rule,
			"reason", verdict.Reason)
	}

	return allowed, rejected
}

// check runs the pipeline for one task and returns the deciding verdict and
// rule name. No explicit verdict means default deny.
func (f *Filter) check(task plan.Task) (Verdict, string) {
	for _, rule := range f.rules {
		verdict := rule.Check(task)
		if verdict.Action != ActionPass {
			return verdict, rule.Name()
		}
	}
	return Verdict{
		Action: ActionDeny,
		Reason: fmt.Sprintf("category %q is not on the allow-list", task.Category),
	}, "default-deny"
}

// denyRule rejects categories that must never reach the automation backend:
// direct messages and content posting act as the user in ways they have not
// approved per-item, and anything mentioning credentials is treated as
// harvesting regardless of the rest of the name.
type denyRule struct {
	denied map[types.TaskCategory]string
}

func newDenyRule() *denyRule {
	return &denyRule{
		denied: map[types.TaskCategory]string{
			types.TaskDirectMessage:  "direct messages are never automated",
			types.TaskContentPosting: "content posting is never automated",
		},
	}
}

func (r *denyRule) Name() string {
	return "deny-list"
}

func (r *denyRule) Check(task plan.Task) Verdict {
	if reason, ok := r.denied[task.Category]; ok {
		return Verdict{Action: ActionDeny, Reason: reason}
	}
	if strings.Contains(strings.ToLower(task.Category.String()), "credential") {
		return Verdict{Action: ActionDeny, Reason: "credential harvesting is never automated"}
	}
	return Verdict{Action: ActionPass}
}

// allowRule admits the vetted automation categories. engagement-comment is
// deliberately absent: it stays default-denied until vetted.
type allowRule struct {
	allowed map[types.TaskCategory]bool
}

func newAllowRule() *allowRule {
	return &allowRule{
		allowed: map[types.TaskCategory]bool{
			types.TaskEngagementLike:   true,
			types.TaskEngagementFollow: true,
			types.TaskHashtagResearch:  true,
			types.TaskAudienceResearch: true,
			types.TaskAnalyticsPull:    true,
		},
	}
}

func (r *allowRule) Name() string {
	return "allow-list"
}

func (r *allowRule) Check(task plan.Task) Verdict {
	if r.allowed[task.Category] {
		return Verdict{Action: ActionAllow}
	}
	return Verdict{Action: ActionPass}
}
