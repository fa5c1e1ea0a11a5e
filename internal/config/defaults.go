package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values. The defaults
// run the full pipeline in simulate mode against the sqlite store, so a fresh
// checkout works without any external credentials.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir:     homeDir,
			DataDir:     filepath.Join(homeDir, "data"),
			TurnTimeout: 2 * time.Minute,
			Debug:       false,
			Simulate:    true,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				DB:   0,
			},
			SQLitePath: filepath.Join(homeDir, "luna.db"),
			SessionTTL: 24 * time.Hour,
			LockTTL:    30 * time.Second,
		},
		LLM: LLMConfig{
			DefaultProvider: "openrouter",
			MaxTokens:       4000,
			Temperature:     0.7,
			Timeout:         45 * time.Second,
			OpenRouter: OpenRouterConfig{
				BaseURL: "https://openrouter.ai/api/v1",
			},
			Models: map[string]string{
				"simple_chat":         "meta-llama/llama-3.1-8b-instruct",
				"instagram_research":  "anthropic/claude-3.5-sonnet",
				"competitor_analysis": "anthropic/claude-3.5-sonnet",
				"coding":              "deepseek/deepseek-coder",
				"general":             "openai/gpt-4o-mini",
			},
		},
		Research: ResearchConfig{
			ProviderTimeout: 12 * time.Second,
			OverallTimeout:  40 * time.Second,
			MinProviders:    2,
			ProviderPriority: []string{
				"tavily",
				"serper",
				"apify",
				"simulated",
			},
			SurfaceDegraded: false,
			MaxSummaryChars: 4000,
			Tavily: TavilyConfig{
				BaseURL: "https://api.tavily.com",
			},
			Serper: SerperConfig{
				BaseURL: "https://google.serper.dev",
			},
			Apify: ApifyConfig{
				BaseURL: "https://api.apify.com",
				ActorID: "apify~instagram-scraper",
			},
		},
		Strategy: StrategyConfig{
			SpecialistTimeout: 30 * time.Second,
		},
		Planner: PlannerConfig{
			DailyLikes:    50,
			DailyFollows:  20,
			DailyComments: 8,
			MinSpacing:    15 * time.Minute,
		},
		Dispatch: DispatchConfig{
			MaxAttempts:     3,
			BackoffBase:     500 * time.Millisecond,
			BackoffCap:      30 * time.Second,
			MinDelay:        10 * time.Second,
			MaxDelay:        120 * time.Second,
			LikesPerHour:    60,
			FollowsPerHour:  30,
			CommentsPerHour: 15,
			APIPerMinute:    20,
			PollInterval:    30 * time.Second,
		},
		Automation: AutomationConfig{
			BaseURL: "http://localhost:3001",
			Timeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// getDefaultHomeDir returns the default Luna home directory.
// It uses ~/.luna or falls back to a temporary directory if user home cannot be determined.
func getDefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".luna")
	}
	return filepath.Join(userHome, ".luna")
}

// DefaultHomeDir returns the default Luna home directory.
func DefaultHomeDir() string {
	return getDefaultHomeDir()
}

// DefaultConfigPath returns the config file path under a home directory.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
