package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// LLM error codes follow the Luna error pattern.
const (
	// Provider errors
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized  types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderQuotaExceeded types.ErrorCode = "LLM_PROVIDER_QUOTA_EXCEEDED"
	ErrProviderAlreadyExists types.ErrorCode = "LLM_PROVIDER_ALREADY_EXISTS"
	ErrProviderInvalidInput  types.ErrorCode = "LLM_PROVIDER_INVALID_INPUT"

	// Model errors
	ErrModelNotFound types.ErrorCode = "LLM_MODEL_NOT_FOUND"

	// Request errors
	ErrInvalidRequest     types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrInvalidMessage     types.ErrorCode = "LLM_INVALID_MESSAGE"
	ErrInvalidTemperature types.ErrorCode = "LLM_INVALID_TEMPERATURE"
	ErrInvalidMaxTokens   types.ErrorCode = "LLM_INVALID_MAX_TOKENS"

	// Completion errors
	ErrCompletionFailed types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrContentFiltered  types.ErrorCode = "LLM_CONTENT_FILTERED"
	ErrTimeoutExceeded  types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"

	// Network errors
	ErrNetworkFailed types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines whether an LLM error is transient and may succeed
// on a later attempt.
func IsRetryable(err error) bool {
	var lunaErr *types.LunaError
	if !errors.As(err, &lunaErr) {
		return false
	}

	if lunaErr.Retryable {
		return true
	}

	switch lunaErr.Code {
	case ErrNetworkFailed, ErrTimeoutExceeded:
		return true
	case ErrProviderRateLimited, ErrProviderQuotaExceeded, ErrProviderUnavailable:
		return true
	case ErrProviderUnauthorized, ErrModelNotFound:
		return false
	case ErrInvalidRequest, ErrInvalidMessage, ErrInvalidTemperature, ErrInvalidMaxTokens:
		return false
	case ErrContentFiltered:
		return false
	default:
		return false
	}
}

// NewProviderNotFoundError reports a lookup for an unregistered provider.
func NewProviderNotFoundError(providerName string) *types.LunaError {
	return types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", providerName))
}

// NewProviderUnavailableError reports a provider that cannot currently serve requests.
func NewProviderUnavailableError(providerName string, cause error) *types.LunaError {
	e := types.NewRetryableError(ErrProviderUnavailable, fmt.Sprintf("provider %q unavailable", providerName))
	e.Cause = cause
	return e
}

// NewProviderUnauthorizedError reports a provider authentication failure.
func NewProviderUnauthorizedError(providerName string, cause error) *types.LunaError {
	e := types.NewError(ErrProviderUnauthorized, fmt.Sprintf("provider %q authentication failed", providerName))
	e.Cause = cause
	return e
}

// NewRateLimitError reports that the provider throttled the request.
func NewRateLimitError(providerName string) *types.LunaError {
	return types.NewRetryableError(ErrProviderRateLimited, fmt.Sprintf("provider %q rate limit exceeded", providerName))
}

// NewQuotaExceededError reports an exhausted provider quota or budget.
func NewQuotaExceededError(providerName string) *types.LunaError {
	return types.NewRetryableError(ErrProviderQuotaExceeded, fmt.Sprintf("provider %q quota exhausted", providerName))
}

// NewModelNotFoundError reports a request for a model the provider does not serve.
func NewModelNotFoundError(modelName string) *types.LunaError {
	return types.NewError(ErrModelNotFound, fmt.Sprintf("model %q not found", modelName))
}

// NewTimeoutError reports a completion that exceeded its deadline.
func NewTimeoutError(message string) *types.LunaError {
	return types.NewRetryableError(ErrTimeoutExceeded, message)
}

// NewNetworkError reports a transport-level failure.
func NewNetworkError(message string, cause error) *types.LunaError {
	e := types.NewRetryableError(ErrNetworkFailed, message)
	e.Cause = cause
	return e
}

// NewCompletionError reports a completion that failed for a non-transport reason.
func NewCompletionError(message string, cause error) *types.LunaError {
	e := types.NewError(ErrCompletionFailed, message)
	e.Cause = cause
	return e
}

// NewAuthError creates an authentication error for provider construction.
func NewAuthError(provider string, err error) error {
	return NewProviderUnauthorizedError(provider, err)
}

// TranslateError maps generic provider client errors onto Luna error codes
// based on message content. Already-translated errors pass through unchanged.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var lunaErr *types.LunaError
	if errors.As(err, &lunaErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewProviderUnauthorizedError(provider, err)
	case strings.Contains(lowerMsg, "quota") || strings.Contains(lowerMsg, "insufficient credits"):
		return NewQuotaExceededError(provider)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	case strings.Contains(lowerMsg, "model") && strings.Contains(lowerMsg, "not found"):
		return NewModelNotFoundError(provider)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
