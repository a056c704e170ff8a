// Package cmd wires the laburen CLI: serve, chat, migrate, ingest and
// version subcommands built on cobra.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JerePrograma/laburen-agent/internal/log"
)

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "laburen",
	Short: "Laburen — conversational CRM assistant",
	Long: `Laburen is a conversational CRM assistant for sales agents.

It authenticates agents by name and passcode, manages leads, notes and
follow-ups through a fixed tool set, and answers product-documentation
questions via similarity search.

Run without arguments to start an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")
}

// newLogger builds the process logger honoring the --debug flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugLogging {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
