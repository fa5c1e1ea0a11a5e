package config

import "time"

// Config is the root configuration for the Luna coaching backend.
type Config struct {
	Core       CoreConfig       `mapstructure:"core" yaml:"core" validate:"required"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Research   ResearchConfig   `mapstructure:"research" yaml:"research"`
	Strategy   StrategyConfig   `mapstructure:"strategy" yaml:"strategy"`
	Planner    PlannerConfig    `mapstructure:"planner" yaml:"planner"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch" yaml:"dispatch"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing" yaml:"tracing"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir     string        `mapstructure:"home_dir" yaml:"home_dir"`
	DataDir     string        `mapstructure:"data_dir" yaml:"data_dir"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout" yaml:"turn_timeout" validate:"min=1s"`
	Debug       bool          `mapstructure:"debug" yaml:"debug"`

	// Simulate routes research and automation through the built-in simulated
	// collaborators so the whole pipeline runs without external credentials.
	Simulate bool `mapstructure:"simulate" yaml:"simulate"`
}

// StoreConfig selects and configures the key-value store backing sessions,
// research caching, advisory locks, and dispatch records.
type StoreConfig struct {
	// Backend is the store implementation selected at startup.
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=redis sqlite memory"`

	Redis      RedisConfig   `mapstructure:"redis" yaml:"redis"`
	SQLitePath string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl" validate:"min=1m"`
	LockTTL    time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl" validate:"min=1s"`
}

// RedisConfig contains connection settings for the redis store backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"min=0,max=15"`
}

// LLMConfig contains completion provider configuration.
type LLMConfig struct {
	DefaultProvider string           `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int              `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=1,max=32000"`
	Temperature     float64          `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	Timeout         time.Duration    `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	OpenRouter      OpenRouterConfig `mapstructure:"openrouter" yaml:"openrouter"`
	Anthropic       AnthropicConfig  `mapstructure:"anthropic" yaml:"anthropic"`

	// Models maps classified query intent to the model identifier used for it.
	// Missing intents fall back to the provider default.
	Models map[string]string `mapstructure:"models" yaml:"models"`
}

// OpenRouterConfig configures the OpenAI-compatible OpenRouter provider.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// ResearchConfig controls the multi-provider research fan-out.
type ResearchConfig struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout" validate:"min=1s"`
	OverallTimeout  time.Duration `mapstructure:"overall_timeout" yaml:"overall_timeout" validate:"min=1s"`

	// MinProviders is the success threshold below which a result is degraded.
	MinProviders int `mapstructure:"min_providers" yaml:"min_providers" validate:"min=1,max=10"`

	// ProviderPriority breaks confidence ties deterministically. Providers
	// absent from the list rank after listed ones, alphabetically.
	ProviderPriority []string `mapstructure:"provider_priority" yaml:"provider_priority"`

	// SurfaceDegraded appends a notice to the user response when a result was
	// produced in degraded mode; when false degradation is only logged.
	SurfaceDegraded bool `mapstructure:"surface_degraded" yaml:"surface_degraded"`

	MaxSummaryChars int `mapstructure:"max_summary_chars" yaml:"max_summary_chars" validate:"min=200,max=20000"`

	Tavily TavilyConfig `mapstructure:"tavily" yaml:"tavily"`
	Serper SerperConfig `mapstructure:"serper" yaml:"serper"`
	Apify  ApifyConfig  `mapstructure:"apify" yaml:"apify"`
}

// TavilyConfig configures the Tavily search provider.
type TavilyConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SerperConfig configures the Serper SERP provider.
type SerperConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// ApifyConfig configures the Apify actor-run provider.
type ApifyConfig struct {
	Token   string `mapstructure:"token" yaml:"token"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	ActorID string `mapstructure:"actor_id" yaml:"actor_id"`
}

// StrategyConfig controls specialist evaluation.
type StrategyConfig struct {
	SpecialistTimeout time.Duration `mapstructure:"specialist_timeout" yaml:"specialist_timeout" validate:"min=1s"`
}

// PlannerConfig carries daily action budgets and scheduling bounds.
type PlannerConfig struct {
	DailyLikes    int `mapstructure:"daily_likes" yaml:"daily_likes" validate:"min=10,max=200"`
	DailyFollows  int `mapstructure:"daily_follows" yaml:"daily_follows" validate:"min=5,max=100"`
	DailyComments int `mapstructure:"daily_comments" yaml:"daily_comments" validate:"min=1,max=50"`

	// MinSpacing is the floor between any two scheduled task offsets.
	MinSpacing time.Duration `mapstructure:"min_spacing" yaml:"min_spacing" validate:"min=1m"`
}

// DispatchConfig controls rate limiting, humanization, and retries.
type DispatchConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	BackoffBase     time.Duration `mapstructure:"backoff_base" yaml:"backoff_base" validate:"min=100ms"`
	BackoffCap      time.Duration `mapstructure:"backoff_cap" yaml:"backoff_cap" validate:"min=1s"`
	MinDelay        time.Duration `mapstructure:"min_delay" yaml:"min_delay" validate:"min=1s"`
	MaxDelay        time.Duration `mapstructure:"max_delay" yaml:"max_delay" validate:"min=1s"`
	LikesPerHour    int           `mapstructure:"likes_per_hour" yaml:"likes_per_hour" validate:"min=1,max=200"`
	FollowsPerHour  int           `mapstructure:"follows_per_hour" yaml:"follows_per_hour" validate:"min=1,max=100"`
	CommentsPerHour int           `mapstructure:"comments_per_hour" yaml:"comments_per_hour" validate:"min=1,max=60"`
	APIPerMinute    int           `mapstructure:"api_per_minute" yaml:"api_per_minute" validate:"min=1,max=120"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"min=5s"`
}

// AutomationConfig configures the external automation backend client.
type AutomationConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// MetricsConfig contains metrics export configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}
