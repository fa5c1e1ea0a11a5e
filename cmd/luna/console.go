package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive coaching console",
	Long: `Start an interactive console for coaching conversations.

Type your goal in plain language and Luna takes it from there. The
console supports:
  /help              - show available commands
  /quit or /exit     - exit console
  /reset             - start the coaching session over
  /status [exec-id]  - show execution progress
  /user NAME         - switch to a different user id
  /clear             - clear screen
  Ctrl+C             - cancel current operation (not exit)`,
	RunE: runConsole,
}

var consoleUserID string

func init() {
	consoleCmd.Flags().StringVar(&consoleUserID, "user", "local", "User id for the coaching session")
}

// consoleState holds the state of the interactive console
type consoleState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	app        *App
	userID     string
	history    []string
	historyIdx int
	isTerminal bool
}

// runConsole executes the console command
func runConsole(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	app, err := buildApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	state := &consoleState{
		ctx:    ctx,
		cancel: cancel,
		app:    app,
		userID: consoleUserID,
	}

	if err := types.UserID(state.userID).Validate(); err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	state.isTerminal = term.IsTerminal(int(os.Stdin.Fd()))

	// On Ctrl+C, cancel the in-flight turn but keep the console alive.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case <-sigChan:
				fmt.Println("\n[Operation cancelled. Use /quit to exit]")
				cancel()
				ctx, cancel = context.WithCancel(cmd.Context())
				state.ctx = ctx
				state.cancel = cancel
			case <-ctx.Done():
				return
			}
		}
	}()

	printWelcome(cmd)

	return state.run(cmd)
}

// run is the main console loop
func (s *consoleState) run(cmd *cobra.Command) error {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print(s.getPrompt())

		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		s.history = append(s.history, input)
		s.historyIdx = len(s.history)

		if strings.HasPrefix(input, "/") {
			if shouldExit := s.handleSlashCommand(cmd, input); shouldExit {
				return nil
			}
			continue
		}

		if err := s.sendMessage(cmd, input); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
}

// getPrompt returns the current prompt string
func (s *consoleState) getPrompt() string {
	if s.userID != "local" {
		return fmt.Sprintf("luna:%s> ", s.userID)
	}
	return "luna> "
}

// handleSlashCommand processes slash commands.
// Returns true if the console should exit.
func (s *consoleState) handleSlashCommand(cmd *cobra.Command, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case "/quit", "/exit":
		fmt.Println("Goodbye!")
		return true

	case "/help":
		printHelp(cmd)

	case "/reset":
		result, err := s.app.Orchestrator.Reset(s.ctx, s.userID)
		if err != nil {
			cmd.PrintErrf("Reset failed: %v\n", err)
			break
		}
		cmd.Printf("\n%s\n\n", result.Response)

	case "/status":
		s.showStatus(cmd, parts)

	case "/user":
		if len(parts) < 2 {
			cmd.PrintErrf("Usage: /user <id>\n")
			break
		}
		if err := types.UserID(parts[1]).Validate(); err != nil {
			cmd.PrintErrf("Invalid user id: %v\n", err)
			break
		}
		s.userID = parts[1]
		cmd.Printf("Switched to user: %s\n", s.userID)

	case "/clear":
		clearScreen()

	default:
		cmd.PrintErrf("Unknown command: %s (type /help for available commands)\n", parts[0])
	}

	return false
}

// sendMessage runs one coaching turn for the console user
func (s *consoleState) sendMessage(cmd *cobra.Command, message string) error {
	result, err := s.app.Orchestrator.Advance(s.ctx, s.userID, message)
	if err != nil {
		// A failed turn still carries the coaching response explaining
		// what went wrong and that progress is saved.
		if result != nil && result.Response != "" {
			cmd.Printf("\n%s\n\n", result.Response)
			return nil
		}
		return err
	}

	cmd.Printf("\n%s\n\n", result.Response)
	return nil
}

// showStatus reports execution progress, defaulting to the session's
// current execution when no id is given.
func (s *consoleState) showStatus(cmd *cobra.Command, parts []string) {
	executionID := ""
	if len(parts) > 1 {
		executionID = parts[1]
	} else {
		sess, err := s.app.Sessions.Get(s.ctx, s.userID)
		if err != nil || sess.ExecutionID == "" {
			cmd.Println("No execution yet. Tell me your goal first.")
			return
		}
		executionID = sess.ExecutionID
	}

	status, err := s.app.Orchestrator.Status(s.ctx, executionID)
	if err != nil {
		cmd.PrintErrf("Status lookup failed: %v\n", err)
		return
	}

	state := "in progress"
	if status.Done {
		state = "done"
	}
	cmd.Printf("Execution %s: %.0f%% %s (%d tasks)\n",
		status.ExecutionID, status.Progress, state, len(status.Records))
}

// printWelcome displays the welcome message
func printWelcome(cmd *cobra.Command) {
	cmd.Println("Luna Coaching Console")
	cmd.Println("Tell me about your Instagram goal, or type /help for commands")
	cmd.Println()
}

// printHelp displays help information
func printHelp(cmd *cobra.Command) {
	cmd.Println("\nAvailable commands:")
	cmd.Println("  /help              - Show this help message")
	cmd.Println("  /quit, /exit       - Exit the console")
	cmd.Println("  /reset             - Start the coaching session over")
	cmd.Println("  /status [exec-id]  - Show execution progress")
	cmd.Println("  /user <id>         - Switch to a different user id")
	cmd.Println("  /clear             - Clear the screen")
	cmd.Println()
	cmd.Println("Anything else is a coaching message: describe your account,")
	cmd.Println("your goal, and your timeframe, and Luna does the rest.")
	cmd.Println()
	cmd.Println("Special keys:")
	cmd.Println("  Ctrl+C             - Cancel current operation")
	cmd.Println()
}

// clearScreen clears the terminal screen
func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
