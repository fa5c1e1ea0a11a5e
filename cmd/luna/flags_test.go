package main

import (
	"testing"

	"github.com/spf13/cobra"
)

// newFlagCommand binds the global flags to a throwaway command and a fresh
// GlobalFlags value, restoring the shared instance when the test ends.
func newFlagCommand(t *testing.T) *cobra.Command {
	t.Helper()
	saved := globalFlags
	globalFlags = &GlobalFlags{}
	t.Cleanup(func() { globalFlags = saved })

	cmd := &cobra.Command{Use: "luna-test"}
	RegisterGlobalFlags(cmd)
	return cmd
}

func TestParseGlobalFlagsDefaults(t *testing.T) {
	cmd := newFlagCommand(t)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		t.Fatalf("ParseGlobalFlags failed: %v", err)
	}
	if flags.OutputFormat != "text" {
		t.Errorf("expected text output by default, got %q", flags.OutputFormat)
	}
	if flags.SimulateSet {
		t.Error("SimulateSet should be false when --simulate is not passed")
	}
}

func TestParseGlobalFlagsSimulateOverride(t *testing.T) {
	tests := []struct {
		name string
		args []string
		set  bool
		want bool
	}{
		{"absent", nil, false, false},
		{"enabled", []string{"--simulate"}, true, true},
		{"explicitly off", []string{"--simulate=false"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCommand(t)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags failed: %v", err)
			}
			flags, err := ParseGlobalFlags(cmd)
			if err != nil {
				t.Fatalf("ParseGlobalFlags failed: %v", err)
			}
			if flags.SimulateSet != tt.set {
				t.Errorf("SimulateSet = %v, want %v", flags.SimulateSet, tt.set)
			}
			if flags.Simulate != tt.want {
				t.Errorf("Simulate = %v, want %v", flags.Simulate, tt.want)
			}
		})
	}
}

func TestParseGlobalFlagsRejectsBadFormat(t *testing.T) {
	cmd := newFlagCommand(t)
	if err := cmd.ParseFlags([]string{"--output", "xml"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if _, err := ParseGlobalFlags(cmd); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestParseGlobalFlagsVerboseQuietConflict(t *testing.T) {
	cmd := newFlagCommand(t)
	if err := cmd.ParseFlags([]string{"--verbose", "--quiet"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if _, err := ParseGlobalFlags(cmd); err == nil {
		t.Error("expected error when --verbose and --quiet are combined")
	}
}
