package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Akhil0736/luna-instagram-ai/cmd/luna/internal"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [execution-id]",
	Short: "Display system health and execution progress",
	Long: `Display overall system status including:
  - Session store connectivity
  - Automation backend reachability
  - Configured LLM providers with health status
  - Overall health assessment

With an execution id, show that execution's task progress instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

// SystemStatus represents the complete system status
type SystemStatus struct {
	OverallHealth types.HealthStatus  `json:"overall_health"`
	Store         StoreStatus         `json:"store"`
	Automation    AutomationStatus    `json:"automation"`
	LLMProviders  []LLMProviderStatus `json:"llm_providers"`
	CheckedAt     time.Time           `json:"checked_at"`
}

// StoreStatus represents session store health information
type StoreStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// AutomationStatus represents automation backend health information
type AutomationStatus struct {
	Mode      string `json:"mode"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// LLMProviderStatus represents LLM provider health information
type LLMProviderStatus struct {
	Name         string             `json:"name"`
	Configured   bool               `json:"configured"`
	HealthStatus types.HealthStatus `json:"health_status"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	app, err := buildApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 {
		return printExecutionStatus(ctx, formatter, app, args[0])
	}

	status := collectSystemStatus(ctx, app)

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(status)
	}
	return printTextStatus(formatter, status)
}

// printExecutionStatus reports dispatch progress for one execution
func printExecutionStatus(ctx context.Context, formatter internal.Formatter, app *App, executionID string) error {
	status, err := app.Orchestrator.Status(ctx, executionID)
	if err != nil {
		return err
	}

	state := "in progress"
	if status.Done {
		state = "done"
	}
	if err := formatter.PrintSuccess(fmt.Sprintf("Execution %s: %.0f%% %s", status.ExecutionID, status.Progress, state)); err != nil {
		return err
	}

	headers := []string{"Task", "Category", "State", "Attempts", "Error"}
	rows := make([][]string, 0, len(status.Records))
	for _, r := range status.Records {
		rows = append(rows, []string{
			r.TaskID.String(),
			r.Category.String(),
			r.State.String(),
			fmt.Sprintf("%d", r.Attempts),
			r.LastError,
		})
	}
	return formatter.PrintTable(headers, rows)
}

// collectSystemStatus collects status from all subsystems
func collectSystemStatus(ctx context.Context, app *App) SystemStatus {
	status := SystemStatus{
		CheckedAt: time.Now().UTC(),
	}

	status.Store = checkStoreStatus(ctx, app)
	status.Automation = checkAutomationStatus(ctx, app)
	status.LLMProviders = checkLLMProviders(ctx, app)
	status.OverallHealth = determineOverallHealth(status)

	return status
}

// checkStoreStatus probes the session store with a read
func checkStoreStatus(ctx context.Context, app *App) StoreStatus {
	st := StoreStatus{Backend: app.Config.Store.Backend}
	if _, err := app.Store.Get(ctx, "health:probe"); err != nil && !errors.Is(err, store.ErrNotFound) {
		st.Error = err.Error()
		return st
	}
	st.Connected = true
	return st
}

// checkAutomationStatus probes the automation backend
func checkAutomationStatus(ctx context.Context, app *App) AutomationStatus {
	as := AutomationStatus{Mode: app.Config.Automation.BaseURL}
	if app.Config.Core.Simulate {
		as.Mode = "simulated"
	}
	if err := app.Backend.Health(ctx); err != nil {
		as.Error = err.Error()
		return as
	}
	as.Reachable = true
	return as
}

// checkLLMProviders reports the health of every registered provider
func checkLLMProviders(ctx context.Context, app *App) []LLMProviderStatus {
	var providers []LLMProviderStatus

	for _, name := range app.Registry.ListProviders() {
		provider, err := app.Registry.GetProvider(name)
		if err != nil {
			providers = append(providers, LLMProviderStatus{
				Name:         name,
				HealthStatus: types.Unhealthy("provider not registered"),
			})
			continue
		}
		providers = append(providers, LLMProviderStatus{
			Name:         name,
			Configured:   true,
			HealthStatus: provider.Health(ctx),
		})
	}

	if len(providers) == 0 {
		providers = append(providers, LLMProviderStatus{
			Name:         "none",
			Configured:   false,
			HealthStatus: types.Degraded("no LLM providers configured, specialists answer from the playbook"),
		})
	}

	return providers
}

// determineOverallHealth rolls subsystem states into one assessment.
// A missing LLM provider degrades the strategy, it does not break coaching.
func determineOverallHealth(status SystemStatus) types.HealthStatus {
	var issues []string

	if !status.Store.Connected {
		issues = append(issues, "session store unavailable")
	}
	if !status.Automation.Reachable {
		issues = append(issues, "automation backend unreachable")
	}

	if len(issues) > 0 {
		if len(issues) == 2 {
			return types.Unhealthy(fmt.Sprintf("system unhealthy: %v", issues))
		}
		return types.Degraded(fmt.Sprintf("system degraded: %v", issues))
	}

	hasHealthyProvider := false
	for _, provider := range status.LLMProviders {
		if provider.Configured && provider.HealthStatus.IsHealthy() {
			hasHealthyProvider = true
			break
		}
	}
	if !hasHealthyProvider {
		return types.Degraded("coaching operational, strategies limited to the playbook")
	}

	return types.Healthy("all systems operational")
}

// printTextStatus renders the status in human-readable form
func printTextStatus(formatter internal.Formatter, status SystemStatus) error {
	if status.OverallHealth.IsHealthy() {
		if err := formatter.PrintSuccess(status.OverallHealth.Message); err != nil {
			return err
		}
	} else {
		if err := formatter.PrintError(status.OverallHealth.Message); err != nil {
			return err
		}
	}

	storeState := "connected"
	if !status.Store.Connected {
		storeState = status.Store.Error
	}
	automationState := "reachable"
	if !status.Automation.Reachable {
		automationState = status.Automation.Error
	}

	rows := [][]string{
		{"store (" + status.Store.Backend + ")", storeState},
		{"automation (" + status.Automation.Mode + ")", automationState},
	}
	for _, provider := range status.LLMProviders {
		rows = append(rows, []string{"llm (" + provider.Name + ")", provider.HealthStatus.Message})
	}

	return formatter.PrintTable([]string{"Component", "Status"}, rows)
}
