package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Luna configuration",
	Long: `The config command provides subcommands for viewing, initializing,
and validating Luna configuration settings.

Configuration is stored in YAML format at ~/.luna/config.yaml by default.
Secrets can reference environment variables as ${VAR_NAME}.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display full configuration",
	Long: `Display the complete Luna configuration with secrets redacted.

By default, output is in YAML format. Use --output-format json for JSON output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		loader := config.NewConfigLoader(config.NewValidator())
		cfg, err := loader.LoadWithDefaults(flags.ResolveConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output-format")
		return printConfig(cmd, redactConfig(cfg), outputFormat)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long: `Get the value of a specific configuration key.

Keys use dot notation to access nested values:
  luna config get llm.default_provider
  luna config get store.backend
  luna config get dispatch.likes_per_hour`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		loader := config.NewConfigLoader(config.NewValidator())
		cfg, err := loader.LoadWithDefaults(flags.ResolveConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		value, err := getConfigValue(cfg, args[0])
		if err != nil {
			return err
		}

		cmd.Println(value)
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Create the Luna home directory and write a default configuration file.

The defaults run the whole pipeline in simulate mode against a local sqlite
store, so a fresh install works without any credentials. Edit the file to
point Luna at real research providers, an LLM, and the automation backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		configPath := flags.ResolveConfigPath()
		if _, err := os.Stat(configPath); err == nil && !configInitForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		defaults := config.DefaultConfig()
		home := flags.ResolveHomeDir()
		defaults.Core.HomeDir = home
		defaults.Core.DataDir = filepath.Join(home, "data")
		defaults.Store.SQLitePath = filepath.Join(home, "luna.db")
		if err := os.MkdirAll(defaults.Core.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		data, err := yaml.Marshal(defaults)
		if err != nil {
			return fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		cmd.Printf("Wrote default configuration to %s\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the Luna configuration file for correctness.

This checks:
  - YAML syntax is valid
  - Required fields are present
  - Values are within acceptable ranges`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		configPath := flags.ResolveConfigPath()
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist: %s\nRun 'luna config init' to create a default configuration", configPath)
		}

		loader := config.NewConfigLoader(config.NewValidator())
		if _, err := loader.Load(configPath); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		cmd.Println("Configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().String("output-format", "yaml", "Output format (yaml or json)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
}

// printConfig outputs the configuration in the specified format
func printConfig(cmd *cobra.Command, cfg *config.Config, format string) error {
	var output []byte
	var err error

	switch strings.ToLower(format) {
	case "json":
		output, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
	case "yaml", "":
		output, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s (use 'yaml' or 'json')", format)
	}

	cmd.Println(string(output))
	return nil
}

// redactConfig returns a copy of the config with secrets masked.
func redactConfig(cfg *config.Config) *config.Config {
	redacted := *cfg
	mask := func(s string) string {
		if s == "" || strings.HasPrefix(s, "${") {
			return s
		}
		return "[REDACTED]"
	}

	redacted.Store.Redis.Password = mask(cfg.Store.Redis.Password)
	redacted.LLM.OpenRouter.APIKey = mask(cfg.LLM.OpenRouter.APIKey)
	redacted.LLM.Anthropic.APIKey = mask(cfg.LLM.Anthropic.APIKey)
	redacted.Research.Tavily.APIKey = mask(cfg.Research.Tavily.APIKey)
	redacted.Research.Serper.APIKey = mask(cfg.Research.Serper.APIKey)
	redacted.Research.Apify.Token = mask(cfg.Research.Apify.Token)
	redacted.Automation.Token = mask(cfg.Automation.Token)

	return &redacted
}

// getConfigValue retrieves a value from the config using dot notation
func getConfigValue(cfg *config.Config, key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid key: %s", key)
	}

	v := reflect.ValueOf(cfg).Elem()
	for i, part := range parts {
		fieldName := snakeToTitle(part)

		field := v.FieldByName(fieldName)
		if !field.IsValid() {
			return "", fmt.Errorf("invalid configuration key: %s (at position: %s)", key, part)
		}

		if i == len(parts)-1 {
			return formatValue(field), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return "", fmt.Errorf("cannot traverse into non-struct field: %s", part)
		}
	}

	return "", fmt.Errorf("failed to get value for key: %s", key)
}

// formatValue converts a reflect.Value to a string representation
func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type().String() == "time.Duration" {
			return v.Interface().(interface{ String() string }).String()
		}
		return fmt.Sprintf("%d", v.Int())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// snakeToTitle converts snake_case to the TitleCase field names used by the
// config structs, with special handling for abbreviations.
func snakeToTitle(s string) string {
	specialCases := map[string]string{
		"llm":        "LLM",
		"db":         "DB",
		"api":        "API",
		"url":        "URL",
		"id":         "ID",
		"ttl":        "TTL",
		"sqlite":     "SQLite",
		"openrouter": "OpenRouter",
	}

	if title, ok := specialCases[strings.ToLower(s)]; ok {
		return title
	}

	parts := strings.Split(s, "_")
	for i, part := range parts {
		if len(part) > 0 {
			if title, ok := specialCases[strings.ToLower(part)]; ok {
				parts[i] = title
			} else {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			}
		}
	}
	return strings.Join(parts, "")
}
