package llm

import (
	"context"
	"fmt"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a model conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	Temperature   float64   `json:"temperature,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// Validate checks that the request is well formed before it reaches a provider.
func (r CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return types.NewError(ErrInvalidRequest, "completion request requires at least one message")
	}
	for i, msg := range r.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return types.NewError(ErrInvalidMessage, fmt.Sprintf("message %d has unknown role %q", i, msg.Role))
		}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return types.NewError(ErrInvalidTemperature, "temperature must be between 0 and 2")
	}
	if r.MaxTokens < 0 {
		return types.NewError(ErrInvalidMaxTokens, "max_tokens cannot be negative")
	}
	return nil
}

// FinishReason explains why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// TokenUsage reports token consumption for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the result of a chat completion call.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        TokenUsage   `json:"usage"`
}

// ModelInfo describes a model a provider can serve.
type ModelInfo struct {
	Name          string   `json:"name"`
	ContextWindow int      `json:"context_window"`
	MaxOutput     int      `json:"max_output"`
	Features      []string `json:"features,omitempty"`
}

// Provider is the boundary between Luna and a hosted language model.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier used for registry lookup.
	Name() string

	// Models returns information about the models this provider serves.
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete performs a single chat completion.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health reports whether the provider can currently serve requests.
	Health(ctx context.Context) types.HealthStatus
}

// ProviderConfig carries the settings needed to construct a provider.
type ProviderConfig struct {
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string `mapstructure:"default_model" yaml:"default_model"`
}
