package providers

import (
	"fmt"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// NewProvider creates a provider by name from its configuration
func NewProvider(name string, cfg llm.ProviderConfig) (llm.Provider, error) {
	switch name {
	case "openrouter":
		return NewOpenRouterProvider(cfg)

	case "anthropic":
		return NewAnthropicProvider(cfg)

	case "mock":
		return NewMockProvider([]string{"Mock response"}), nil

	default:
		return nil, types.NewError(llm.ErrProviderInvalidInput, fmt.Sprintf("unknown provider type: %s", name))
	}
}
