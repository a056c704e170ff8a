package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JerePrograma/laburen-agent/internal/events"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	app, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	conversationID := uuid.NewString()
	fmt.Println("Laburen CRM assistant. Type 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if err := app.Orchestrator.RunTurn(ctx, conversationID, line, consoleSink); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Println()

		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

// consoleSink renders the turn's event log for a terminal: tokens
// stream inline, everything else gets a prefixed line.
func consoleSink(_ context.Context, ev events.Event) error {
	switch ev.Kind {
	case events.KindThought:
		fmt.Printf("  · %s\n", ev.Text)
	case events.KindTool:
		fmt.Printf("  → %s %s\n", ev.Name, ev.Input)
	case events.KindToolResult:
		if ev.Status == events.StatusError && ev.Err != "" {
			fmt.Printf("  ✗ %s: %s\n", ev.Name, ev.Err)
		}
	case events.KindState:
		if ev.User != nil {
			fmt.Printf("  ✓ authenticated as %s\n", ev.User.Name)
		}
	case events.KindAssistantMessage:
		fmt.Print("laburen> ")
	case events.KindToken:
		fmt.Print(ev.Value)
	case events.KindAssistantDone:
		fmt.Println()
	case events.KindError:
		fmt.Printf("  ! %s\n", ev.Message)
	}
	return nil
}
