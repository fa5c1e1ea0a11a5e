package research

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Akhil0736/luna-instagram-ai/internal/classifier"
	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/observability"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

const (
	cacheKeyPrefix = "research:"
	lockKeyPrefix  = "lock:research:"

	// lockRetryInterval and lockRetryAttempts bound how long a fan-out race
	// loser waits for the winner before fanning out itself.
	lockRetryInterval = 300 * time.Millisecond
	lockRetryAttempts = 10
)

// Coordinator runs the research fan-out and owns the fingerprint cache.
type Coordinator struct {
	store      store.Store
	providers  []Provider
	fallback   Provider
	synth      *synthesizer
	cfg        config.ResearchConfig
	classifier classifier.Classifier
	logger     *slog.Logger
	tracer     trace.Tracer
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClassifier sets the intent classifier used to assign cache TTLs.
// Without one, every result caches for the general TTL.
func WithClassifier(c classifier.Classifier) CoordinatorOption {
	return func(co *Coordinator) {
		co.classifier = c
	}
}

// WithEmbedder enables semantic re-ranking of insights.
func WithEmbedder(e Embedder) CoordinatorOption {
	return func(co *Coordinator) {
		co.synth.embedder = e
	}
}

// WithFallback sets the provider invoked when fewer than min_providers
// succeed; normally the simulated provider.
func WithFallback(p Provider) CoordinatorOption {
	return func(co *Coordinator) {
		co.fallback = p
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(co *Coordinator) {
		co.logger = logger
	}
}

// WithTracer attaches an otel tracer to the fan-out.
func WithTracer(tracer trace.Tracer) CoordinatorOption {
	return func(co *Coordinator) {
		co.tracer = tracer
	}
}

// NewCoordinator creates a Coordinator over the given providers.
func NewCoordinator(st store.Store, providers []Provider, cfg config.ResearchConfig, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     st,
		providers: providers,
		synth:     newSynthesizer(cfg.ProviderPriority, cfg.MaxSummaryChars, nil),
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Research resolves a query to a Result, from cache when possible. Cache
// misses fan out to every provider concurrently; provider failures are
// absorbed, and a fan-out that clears fewer than min_providers sources
// produces a degraded result backed by the fallback provider.
func (c *Coordinator) Research(ctx context.Context, userID types.UserID, query string) (*Result, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "research.Research")
		defer span.End()
	}
	log := observability.WithTrace(ctx, c.logger)

	fp := Fingerprint(query)

	if result, ok := c.fromCache(ctx, fp); ok {
		metrics.ResearchCacheHits.Inc()
		log.Debug("research cache hit", "fingerprint", fp, "user_id", userID)
		return result, nil
	}
	metrics.ResearchCacheMisses.Inc()

	// Single-flight: first miss for a fingerprint takes the lock and fans
	// out; concurrent misses wait for the winner's cache write.
	unlock, cached := c.acquireFanoutSlot(ctx, fp)
	if cached != nil {
		metrics.ResearchCacheHits.Inc()
		return cached, nil
	}
	if unlock != nil {
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Debug("research lock release failed", "fingerprint", fp, "error", err)
			}
		}()

		// The winner may have finished while we were acquiring.
		if result, ok := c.fromCache(ctx, fp); ok {
			metrics.ResearchCacheHits.Inc()
			return result, nil
		}
	}

	result := c.fanOut(ctx, query, fp)

	c.cache(ctx, fp, query, result)
	return result, nil
}

// fromCache loads and decodes a cached result. Decode failures are treated as
// misses so a corrupt entry cannot wedge a fingerprint.
func (c *Coordinator) fromCache(ctx context.Context, fingerprint string) (*Result, bool) {
	data, err := c.store.Get(ctx, cacheKeyPrefix+fingerprint)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("research cache read failed", "fingerprint", fingerprint, "error", err)
		}
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("research cache entry corrupt, refetching", "fingerprint", fingerprint, "error", err)
		return nil, false
	}

	result.FromCache = true
	return &result, true
}

// acquireFanoutSlot takes the per-fingerprint advisory lock. When another
// process holds it, the call polls the cache waiting for that process to
// publish; if the wait budget runs out it proceeds without the lock rather
// than failing the turn.
func (c *Coordinator) acquireFanoutSlot(ctx context.Context, fingerprint string) (store.Unlock, *Result) {
	lockKey := lockKeyPrefix + fingerprint
	lockTTL := c.cfg.OverallTimeout + 10*time.Second

	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		unlock, err := c.store.AcquireLock(ctx, lockKey, lockTTL)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, store.ErrLockHeld) {
			c.logger.Warn("research lock unavailable, fanning out unlocked", "fingerprint", fingerprint, "error", err)
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(lockRetryInterval):
		}

		if result, ok := c.fromCache(ctx, fingerprint); ok {
			return nil, result
		}
	}

	c.logger.Warn("research lock wait exhausted, fanning out unlocked", "fingerprint", fingerprint)
	return nil, nil
}

// providerOutcome carries one provider's fan-out contribution.
type providerOutcome struct {
	provider string
	insights []Insight
	err      error
}

// fanOut queries every provider concurrently and synthesizes whatever came
// back. It never returns an error: too few successes yield a degraded result
// seeded by the fallback provider.
func (c *Coordinator) fanOut(ctx context.Context, query, fingerprint string) *Result {
	fanCtx, cancel := context.WithTimeout(ctx, c.cfg.OverallTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(fanCtx)
	outcomes := make(chan providerOutcome, len(c.providers))

	for _, provider := range c.providers {
		provider := provider

		g.Go(func() error {
			start := time.Now()

			callCtx, callCancel := context.WithTimeout(gCtx, c.cfg.ProviderTimeout)
			defer callCancel()

			insights, err := provider.Search(callCtx, query)
			metrics.ProviderLatency.WithLabelValues(provider.Name()).Observe(time.Since(start).Seconds())

			outcome := providerOutcome{provider: provider.Name(), insights: insights, err: err}
			if err != nil {
				metrics.ProviderCalls.WithLabelValues(provider.Name(), "error").Inc()
			} else {
				metrics.ProviderCalls.WithLabelValues(provider.Name(), "success").Inc()
			}

			select {
			case outcomes <- outcome:
			case <-gCtx.Done():
			}

			// Collect every outcome rather than failing fast.
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)

	var insights []Insight
	successes := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			c.logger.Warn("research provider failed",
				"provider", outcome.provider,
				"fingerprint", fingerprint,
				"error", outcome.err)
			continue
		}
		if len(outcome.insights) == 0 {
			continue
		}
		successes++
		insights = append(insights, outcome.insights...)
	}

	degraded := successes < c.cfg.MinProviders
	if degraded {
		metrics.DegradedResults.Inc()
		c.logger.Warn("research degraded",
			"fingerprint", fingerprint,
			"successes", successes,
			"min_providers", c.cfg.MinProviders)

		if c.fallback != nil {
			fbCtx, fbCancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
			fbInsights, err := c.fallback.Search(fbCtx, query)
			fbCancel()
			if err != nil {
				c.logger.Error("research fallback provider failed", "error", err)
			} else {
				insights = append(insights, fbInsights...)
			}
		}
	}

	return c.synth.synthesize(ctx, fingerprint, query, insights, degraded)
}

// cache stores the result under its fingerprint with the classifier-assigned
// TTL. Write failures are logged, never surfaced: the result is already in
// hand.
func (c *Coordinator) cache(ctx context.Context, fingerprint, query string, result *Result) {
	ttl := classifier.TTLFor(classifier.IntentGeneral)
	if c.classifier != nil {
		ttl = c.classifier.Classify(ctx, query).CacheTTL
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("research result marshal failed", "fingerprint", fingerprint, "error", err)
		return
	}

	if err := c.store.Set(ctx, cacheKeyPrefix+fingerprint, data, ttl); err != nil {
		c.logger.Warn("research cache write failed", "fingerprint", fingerprint, "error", err)
	}
}
