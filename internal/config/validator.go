package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
func NewValidator() ConfigValidator {
	return &validatorImpl{
		validate: validator.New(),
	}
}

// Validate validates the configuration and returns detailed error messages.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	// Struct tag validation first
	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}

		var errorMessages []string
		for _, e := range validationErrs {
			errorMessages = append(errorMessages, formatValidationError(e))
		}

		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	// Cross-field rules the tag language cannot express.
	if cfg.Research.OverallTimeout <= cfg.Research.ProviderTimeout {
		return fmt.Errorf("configuration validation failed:\n  - research.overall_timeout must exceed research.provider_timeout (got %v <= %v)",
			cfg.Research.OverallTimeout, cfg.Research.ProviderTimeout)
	}

	if cfg.Dispatch.MaxDelay < cfg.Dispatch.MinDelay {
		return fmt.Errorf("configuration validation failed:\n  - dispatch.max_delay must be >= dispatch.min_delay (got %v < %v)",
			cfg.Dispatch.MaxDelay, cfg.Dispatch.MinDelay)
	}

	if cfg.Store.Backend == "redis" && cfg.Store.Redis.Addr == "" {
		return fmt.Errorf("configuration validation failed:\n  - store.redis.addr must be set when store.backend is 'redis'")
	}

	if cfg.Store.Backend == "sqlite" && cfg.Store.SQLitePath == "" {
		return fmt.Errorf("configuration validation failed:\n  - store.sqlite_path must be set when store.backend is 'sqlite'")
	}

	if !cfg.Core.Simulate {
		if cfg.Automation.BaseURL == "" {
			return fmt.Errorf("configuration validation failed:\n  - automation.base_url must be set when core.simulate is false")
		}
	}

	return nil
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts a validator namespace (Config.Store.Redis.Addr)
// into the yaml-ish path users see in the file (store.redis.addr).
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = camelToSnake(p)
	}
	return strings.Join(parts, ".")
}

// camelToSnake converts a Go field name to its snake_case config key.
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(s[i-1])
				if prev >= 'a' && prev <= 'z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
