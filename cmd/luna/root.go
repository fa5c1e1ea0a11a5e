package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Akhil0736/luna-instagram-ai/cmd/luna/internal"
	"github.com/Akhil0736/luna-instagram-ai/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "luna",
	Short: "Luna - Conversational Instagram Growth Coach",
	Long: `Luna is a conversational coaching backend for Instagram growth.

Tell Luna your goal in plain language and she researches your niche,
drafts a strategy, plans a humanized action schedule, and hands the
work to an automation backend while keeping you posted on progress.

When run without a subcommand in an interactive terminal, Luna opens
the coaching console. Use 'luna serve' to run the HTTP API instead.`,
	PersistentPreRunE: loadGlobals,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runRootCmd,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadGlobals runs before any command to validate flags and surface an
// obviously missing config early.
func loadGlobals(cmd *cobra.Command, args []string) error {
	// Pick up a local .env for ${VAR} interpolation in config files.
	_ = godotenv.Load()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	internal.SetVerbose(flags.IsVerbose())

	// version, help, completion, and the config subcommands all work
	// without an existing config file.
	switch cmd.Name() {
	case "version", "help", "completion", "init", "show", "get", "validate":
		return nil
	}

	configFile := flags.ResolveConfigPath()
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && flags.IsVerbose() {
			cmd.PrintErrf("Config file not found at %s (run 'luna config init' to create); using defaults\n", configFile)
		}
	}

	return nil
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// runRootCmd handles the root command when run without subcommands.
// In an interactive terminal it opens the coaching console.
func runRootCmd(cmd *cobra.Command, args []string) error {
	if isTerminalInteractive() {
		return runConsole(cmd, args)
	}
	return cmd.Help()
}

// isTerminalInteractive checks if stdin is a terminal.
func isTerminalInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}
		if flags.GetOutputFormat() == internal.FormatJSON {
			formatter := internal.NewFormatter(internal.FormatJSON, cmd.OutOrStdout())
			return formatter.PrintJSON(version.Current())
		}
		cmd.Println(version.String())
		return nil
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for Luna.

To load completions:

Bash:

  $ source <(luna completion bash)

  # To load completions for each session, execute once:
  $ luna completion bash > /etc/bash_completion.d/luna

Zsh:

  $ luna completion zsh > "${fpath[1]}/_luna"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ luna completion fish | source

  # To load completions for each session, execute once:
  $ luna completion fish > ~/.config/fish/completions/luna.fish

PowerShell:

  PS> luna completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			_ = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			_ = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			_ = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			_ = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
