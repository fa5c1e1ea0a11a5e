package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/classifier"
	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/dispatch"
	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	llmproviders "github.com/Akhil0736/luna-instagram-ai/internal/llm/providers"
	"github.com/Akhil0736/luna-instagram-ai/internal/observability"
	"github.com/Akhil0736/luna-instagram-ai/internal/orchestrator"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	researchproviders "github.com/Akhil0736/luna-instagram-ai/internal/research/providers"
	"github.com/Akhil0736/luna-instagram-ai/internal/safety"
	"github.com/Akhil0736/luna-instagram-ai/internal/session"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/strategy"
)

// App is the wired coaching stack shared by the console, the HTTP server,
// and the status command.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        store.Store
	Backend      automation.Backend
	Registry     llm.Registry
	Sessions     *session.Manager
	Poller       *dispatch.Poller
	Dispatcher   *dispatch.Dispatcher
	Orchestrator *orchestrator.Orchestrator
}

// buildApp loads configuration and assembles the pipeline behind the
// orchestrator. Missing credentials degrade the affected component instead
// of failing startup: without an LLM key the specialists answer from the
// playbook, and without research keys the simulated provider stands in.
func buildApp(flags *GlobalFlags) (*App, error) {
	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(flags.ResolveConfigPath())
	if err != nil {
		return nil, err
	}
	if cfg.Core.HomeDir == "" {
		cfg.Core.HomeDir = flags.ResolveHomeDir()
	}
	if cfg.Core.HomeDir, err = config.ExpandPath(cfg.Core.HomeDir); err != nil {
		return nil, err
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(cfg.Core.HomeDir, "luna.db")
	}
	if cfg.Store.SQLitePath, err = config.ExpandPath(cfg.Store.SQLitePath); err != nil {
		return nil, err
	}
	if flags.SimulateSet {
		cfg.Core.Simulate = flags.Simulate
	}

	level := cfg.Logging.Level
	if cfg.Core.Debug || flags.IsVerbose() {
		level = "debug"
	}
	logger := observability.NewLogger(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	st, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	provider := buildLLMProvider(cfg, logger)
	registry := llm.NewRegistry()
	if provider != nil {
		if err := registry.RegisterProvider(provider); err != nil {
			logger.Warn("llm provider registration failed", "error", err)
		}
	}

	coordinator := buildCoordinator(cfg, st, provider, logger)

	pb, err := strategy.LoadPlaybook()
	if err != nil {
		return nil, err
	}
	specialistOpts := []strategy.SpecialistOption{strategy.WithSpecialistLogger(logger)}
	if provider != nil {
		specialistOpts = append(specialistOpts,
			strategy.WithProvider(provider),
			strategy.WithModel(specialistModel(cfg)))
	}
	specialists := strategy.NewSpecialists(pb, specialistOpts...)
	engine := strategy.NewEngine(specialists, cfg.Strategy, strategy.WithLogger(logger))

	builder := plan.NewBuilder(cfg.Planner)
	filter := safety.NewFilter(safety.WithLogger(logger))

	backend := buildBackend(cfg)
	poller, err := dispatch.NewPoller(backend, st, cfg.Dispatch.PollInterval, logger)
	if err != nil {
		return nil, err
	}
	dispatcher := dispatch.NewDispatcher(cfg.Dispatch, backend, st,
		dispatch.WithPoller(poller),
		dispatch.WithLogger(logger))

	sessions := session.NewManager(st, cfg.Store.SessionTTL)

	orch := orchestrator.NewOrchestrator(sessions, coordinator, engine, builder, filter, dispatcher,
		orchestrator.WithPoller(poller),
		orchestrator.WithLogger(logger),
		orchestrator.WithTurnTimeout(cfg.Core.TurnTimeout),
		orchestrator.WithDegradedNotice(cfg.Research.SurfaceDegraded))

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        st,
		Backend:      backend,
		Registry:     registry,
		Sessions:     sessions,
		Poller:       poller,
		Dispatcher:   dispatcher,
		Orchestrator: orch,
	}, nil
}

// Close stops the background poller and releases the store.
func (a *App) Close() error {
	if a.Poller != nil {
		a.Poller.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// buildStore selects the session store backend. Redis is wrapped in a
// failover to sqlite so a cache outage degrades persistence rather than
// taking conversations down with it.
func buildStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		primary, err := store.NewRedis(store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		fallback, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Warn("sqlite fallback unavailable, running on redis alone", "error", err)
			return primary, nil
		}
		return store.NewFailover(primary, fallback, logger), nil

	case "memory":
		return store.NewMemory(), nil

	default:
		return store.NewSQLite(cfg.Store.SQLitePath)
	}
}

// buildLLMProvider creates the configured LLM provider, or nil when no
// credentials are available.
func buildLLMProvider(cfg *config.Config, logger *slog.Logger) llm.Provider {
	if cfg.Core.Simulate {
		p, _ := llmproviders.NewProvider("mock", llm.ProviderConfig{})
		return p
	}

	name := cfg.LLM.DefaultProvider
	var pc llm.ProviderConfig
	switch name {
	case "openrouter":
		pc = llm.ProviderConfig{
			APIKey:       cfg.LLM.OpenRouter.APIKey,
			BaseURL:      cfg.LLM.OpenRouter.BaseURL,
			DefaultModel: cfg.LLM.Models["general"],
		}
	case "anthropic":
		pc = llm.ProviderConfig{
			APIKey:       cfg.LLM.Anthropic.APIKey,
			DefaultModel: cfg.LLM.Models["general"],
		}
	}

	p, err := llmproviders.NewProvider(name, pc)
	if err != nil {
		logger.Warn("llm provider unavailable, specialists will answer from the playbook",
			"provider", name, "error", err)
		return nil
	}
	return p
}

// specialistModel picks the model for strategy specialists, preferring the
// research-grade mapping over the general one.
func specialistModel(cfg *config.Config) string {
	if m := cfg.LLM.Models["instagram_research"]; m != "" {
		return m
	}
	return cfg.LLM.Models["general"]
}

// buildBackend selects the automation backend. Simulate mode keeps the whole
// pipeline in-process; otherwise tasks go to the REST backend.
func buildBackend(cfg *config.Config) automation.Backend {
	if cfg.Core.Simulate {
		return automation.NewSimulated()
	}
	return automation.NewClient(cfg.Automation)
}

// buildCoordinator assembles the research fan-out. Providers without
// credentials are skipped; the simulated provider rides along as fallback so
// research never comes up empty-handed.
func buildCoordinator(cfg *config.Config, st store.Store, provider llm.Provider, logger *slog.Logger) *research.Coordinator {
	simulated := researchproviders.NewSimulatedProvider(len(cfg.Research.ProviderPriority) + 1)

	var provs []research.Provider
	if cfg.Core.Simulate {
		provs = []research.Provider{simulated}
	} else {
		if key := cfg.Research.Tavily.APIKey; key != "" {
			provs = append(provs, researchproviders.NewTavilyProvider(key, cfg.Research.Tavily.BaseURL, 1))
		}
		if key := cfg.Research.Serper.APIKey; key != "" {
			provs = append(provs, researchproviders.NewSerperProvider(key, cfg.Research.Serper.BaseURL, 2))
		}
		if token := cfg.Research.Apify.Token; token != "" {
			provs = append(provs, researchproviders.NewApifyProvider(token, cfg.Research.Apify.BaseURL, cfg.Research.Apify.ActorID, 3))
		}
		if len(provs) == 0 {
			logger.Warn("no research providers configured, falling back to simulated signals")
			provs = []research.Provider{simulated}
		}
	}

	classifierOpts := []classifier.Option{classifier.WithLogger(logger)}
	if provider != nil {
		classifierOpts = append(classifierOpts, classifier.WithProvider(provider))
	}
	cls := classifier.New(cfg.LLM.Models, cfg.LLM.Models["general"], classifierOpts...)

	return research.NewCoordinator(st, provs, cfg.Research,
		research.WithClassifier(cls),
		research.WithFallback(simulated),
		research.WithLogger(logger))
}
