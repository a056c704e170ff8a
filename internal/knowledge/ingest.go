package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultExtensions are the file types ingestion accepts.
var defaultExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".rst":      true,
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Files    int
	Chunks   int
	Skipped  int
	Failures []string
}

// Ingestor walks a documentation directory, chunks each supported file
// and upserts the chunks into the store.
type Ingestor struct {
	store      *Store
	chunkRunes int
	logger     *slog.Logger
}

// NewIngestor creates an ingestor. chunkRunes <= 0 uses
// DefaultChunkRunes; logger may be nil.
func NewIngestor(store *Store, chunkRunes int, logger *slog.Logger) *Ingestor {
	if chunkRunes <= 0 {
		chunkRunes = DefaultChunkRunes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: store, chunkRunes: chunkRunes, logger: logger}
}

// AddDirectory recursively ingests every supported file under dir.
// Individual file failures are collected, not fatal.
func (in *Ingestor) AddDirectory(ctx context.Context, dir string) (*IngestResult, error) {
	result := &IngestResult{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !defaultExtensions[strings.ToLower(filepath.Ext(path))] {
			result.Skipped++
			return nil
		}

		chunks, err := in.addFile(ctx, path)
		if err != nil {
			in.logger.Warn("ingesting file failed", "path", path, "error", err)
			result.Failures = append(result.Failures, path)
			return nil
		}
		result.Files++
		result.Chunks += chunks
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walking %s: %w", dir, err)
	}

	in.logger.Info("ingestion finished",
		"files", result.Files, "chunks", result.Chunks,
		"skipped", result.Skipped, "failures", len(result.Failures))
	return result, nil
}

func (in *Ingestor) addFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	chunks := Chunk(string(content), in.chunkRunes)
	for i, chunk := range chunks {
		doc := Document{
			ID:      chunkID(path, i),
			Path:    path,
			Content: chunk,
		}
		if err := in.store.Upsert(ctx, doc); err != nil {
			return i, err
		}
	}
	return len(chunks), nil
}

// chunkID derives a stable document id from the file path and chunk
// index so re-ingesting a file overwrites its previous chunks.
func chunkID(path string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", path, index)))
	return hex.EncodeToString(sum[:16])
}
