package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JerePrograma/laburen-agent/internal/config"
	"github.com/JerePrograma/laburen-agent/internal/database"
	"github.com/JerePrograma/laburen-agent/internal/embedding"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
)

var ingestChunkRunes int

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Ingest product documentation into the knowledge base",
	Long: `Walks a documentation directory, splits each supported file into
chunks, embeds them and upserts the result into the documents table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkRunes, "chunk-runes", 0,
		"target chunk size in runes (0 = default)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context, dir string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pool, cleanup, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer cleanup()

	embedder, err := embedding.New(embedding.Config{
		BaseURL: cfg.EmbedderBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.EmbedderModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedding client: %w", err)
	}

	store := knowledge.New(pool, embedder, logger.With("component", "knowledge"))
	ingestor := knowledge.NewIngestor(store, ingestChunkRunes, logger.With("component", "ingest"))

	result, err := ingestor.AddDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("ingested %d files (%d chunks, %d skipped)\n",
		result.Files, result.Chunks, result.Skipped)
	return nil
}
