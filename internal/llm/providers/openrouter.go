package providers

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// defaultOpenRouterBaseURL is the OpenAI-compatible endpoint OpenRouter exposes.
const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements llm.Provider against OpenRouter's
// OpenAI-compatible API. OpenRouter fronts many upstream models, so the
// model name carries a vendor prefix such as "anthropic/claude-3.5-sonnet".
type OpenRouterProvider struct {
	client *openai.LLM
	config llm.ProviderConfig
}

// NewOpenRouterProvider creates a new OpenRouter provider
func NewOpenRouterProvider(cfg llm.ProviderConfig) (*OpenRouterProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}

	if apiKey == "" {
		return nil, llm.NewAuthError("openrouter", nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
	}

	if cfg.DefaultModel != "" {
		opts = append(opts, openai.WithModel(cfg.DefaultModel))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openrouter", err)
	}

	return &OpenRouterProvider{
		client: client,
		config: cfg,
	}, nil
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// Models returns information about the models Luna routes through OpenRouter
func (p *OpenRouterProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	models := []llm.ModelInfo{
		{
			Name:          "anthropic/claude-3.5-sonnet",
			ContextWindow: 200000,
			MaxOutput:     8192,
			Features:      []string{"chat", "json"},
		},
		{
			Name:          "openai/gpt-4o",
			ContextWindow: 128000,
			MaxOutput:     16384,
			Features:      []string{"chat", "json"},
		},
		{
			Name:          "openai/gpt-4o-mini",
			ContextWindow: 128000,
			MaxOutput:     16384,
			Features:      []string{"chat", "json"},
		},
		{
			Name:          "meta-llama/llama-3.1-70b-instruct",
			ContextWindow: 131072,
			MaxOutput:     4096,
			Features:      []string{"chat"},
		},
	}
	return models, nil
}

// Complete sends a completion request
func (p *OpenRouterProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	messages := toSchemaMessages(req.Messages)
	callOpts := buildCallOptions(req)

	resp, err := p.client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, llm.TranslateError("openrouter", err)
	}

	return fromLangchainResponse(resp, req.Model), nil
}

// Health checks provider connectivity with a minimal completion
func (p *OpenRouterProvider) Health(ctx context.Context) types.HealthStatus {
	req := llm.CompletionRequest{
		Model: p.config.DefaultModel,
		Messages: []llm.Message{
			llm.NewUserMessage("ping"),
		},
		MaxTokens: 1,
	}

	_, err := p.Complete(ctx, req)
	if err != nil {
		return types.Unhealthy(err.Error())
	}

	return types.Healthy("")
}
