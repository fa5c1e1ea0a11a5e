package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load loads configuration from the specified file path.
// Returns an error if the file doesn't exist or cannot be parsed.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets and endpoints are commonly written as ${VAR} references, so
	// interpolate those fields from the environment after unmarshaling.
	applyInterpolation(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, fmt.Errorf("default configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	return l.Load(path)
}

// envVarPattern matches ${VAR_NAME} references inside string values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables leave the reference in place so validation can surface it.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}

// applyInterpolation interpolates every string field that may carry a ${VAR}
// reference: directories, endpoints, keys, and tokens.
func applyInterpolation(cfg *Config) {
	cfg.Core.HomeDir = interpolateString(cfg.Core.HomeDir)
	cfg.Core.DataDir = interpolateString(cfg.Core.DataDir)

	cfg.Store.Redis.Addr = interpolateString(cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = interpolateString(cfg.Store.Redis.Password)
	cfg.Store.SQLitePath = interpolateString(cfg.Store.SQLitePath)

	cfg.LLM.DefaultProvider = interpolateString(cfg.LLM.DefaultProvider)
	cfg.LLM.OpenRouter.APIKey = interpolateString(cfg.LLM.OpenRouter.APIKey)
	cfg.LLM.OpenRouter.BaseURL = interpolateString(cfg.LLM.OpenRouter.BaseURL)
	cfg.LLM.Anthropic.APIKey = interpolateString(cfg.LLM.Anthropic.APIKey)
	for intent, model := range cfg.LLM.Models {
		cfg.LLM.Models[intent] = interpolateString(model)
	}

	cfg.Research.Tavily.APIKey = interpolateString(cfg.Research.Tavily.APIKey)
	cfg.Research.Tavily.BaseURL = interpolateString(cfg.Research.Tavily.BaseURL)
	cfg.Research.Serper.APIKey = interpolateString(cfg.Research.Serper.APIKey)
	cfg.Research.Serper.BaseURL = interpolateString(cfg.Research.Serper.BaseURL)
	cfg.Research.Apify.Token = interpolateString(cfg.Research.Apify.Token)
	cfg.Research.Apify.BaseURL = interpolateString(cfg.Research.Apify.BaseURL)

	cfg.Automation.BaseURL = interpolateString(cfg.Automation.BaseURL)
	cfg.Automation.Token = interpolateString(cfg.Automation.Token)

	cfg.Logging.Level = interpolateString(cfg.Logging.Level)
	cfg.Logging.Format = interpolateString(cfg.Logging.Format)
	cfg.Tracing.Endpoint = interpolateString(cfg.Tracing.Endpoint)
}
