package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Akhil0736/luna-instagram-ai/cmd/luna/internal"
	"github.com/Akhil0736/luna-instagram-ai/internal/config"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
	Simulate     bool
	// SimulateSet records whether --simulate was passed at all, so an
	// explicit --simulate=false can force live backends over the config.
	SimulateSet bool
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: $LUNA_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&globalFlags.HomeDir, "home", "", "Luna home directory (default: ~/.luna)")
	cmd.PersistentFlags().BoolVar(&globalFlags.Simulate, "simulate", false, "Run against simulated backends (overrides core.simulate)")
}

// ParseGlobalFlags parses and validates global flags from the command
func ParseGlobalFlags(cmd *cobra.Command) (*GlobalFlags, error) {
	format := globalFlags.OutputFormat
	if format != string(internal.FormatText) && format != string(internal.FormatJSON) {
		return nil, fmt.Errorf("invalid output format %q (want text or json)", format)
	}

	if globalFlags.Verbose && globalFlags.Quiet {
		return nil, fmt.Errorf("--verbose and --quiet cannot be used together")
	}

	globalFlags.SimulateSet = cmd.Flags().Changed("simulate")

	return globalFlags, nil
}

// GetOutputFormat returns the parsed output format enum
func (f *GlobalFlags) GetOutputFormat() internal.OutputFormat {
	if f.OutputFormat == string(internal.FormatJSON) {
		return internal.FormatJSON
	}
	return internal.FormatText
}

// IsVerbose returns true if verbose mode is enabled
func (f *GlobalFlags) IsVerbose() bool {
	return f.Verbose && !f.Quiet
}

// IsQuiet returns true if quiet mode is enabled
func (f *GlobalFlags) IsQuiet() bool {
	return f.Quiet
}

// ResolveHomeDir returns the effective home directory, checking the flag,
// then LUNA_HOME, then the default. Tilde and env references are expanded.
func (f *GlobalFlags) ResolveHomeDir() string {
	if f.HomeDir != "" {
		return expandOrKeep(f.HomeDir)
	}
	if env := os.Getenv("LUNA_HOME"); env != "" {
		return expandOrKeep(env)
	}
	return config.DefaultHomeDir()
}

// ResolveConfigPath returns the effective config file path for the home
// directory, honoring the --config flag when set.
func (f *GlobalFlags) ResolveConfigPath() string {
	if f.ConfigFile != "" {
		return expandOrKeep(f.ConfigFile)
	}
	return config.DefaultConfigPath(f.ResolveHomeDir())
}

func expandOrKeep(path string) string {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}
