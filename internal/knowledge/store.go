package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/JerePrograma/laburen-agent/internal/embedding"
)

// DefaultTopK is the retrieval size when the caller does not specify one.
const DefaultTopK = 5

// searchTimeout bounds a single embed + retrieval round-trip so a slow
// vector search cannot hang the turn.
const searchTimeout = 15 * time.Second

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads and writes documentation fragments.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       DB
	embedder embedding.Embedder
	logger   *slog.Logger
}

// New creates a knowledge store. logger may be nil (defaults to
// slog.Default()).
func New(db DB, embedder embedding.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, embedder: embedder, logger: logger}
}

const upsertDocumentSQL = `INSERT INTO documents (id, path, content, embedding)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET path = EXCLUDED.path, content = EXCLUDED.content, embedding = EXCLUDED.embedding`

// Upsert embeds the document content and writes the row, replacing any
// previous version with the same id.
func (s *Store) Upsert(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}

	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	if _, err := s.db.Exec(ctx, upsertDocumentSQL, doc.ID, doc.Path, doc.Content, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("document upserted", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

const searchDocumentsSQL = `SELECT id, path, content, 1 - (embedding <=> $1) AS similarity
	FROM documents ORDER BY embedding <=> $1 LIMIT $2`

// Search embeds the query and returns up to topK fragments ordered by
// descending cosine similarity. The retrieval layer applies no
// similarity floor; filtering out weak matches is the caller's
// decision.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Fragment, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.db.Query(ctx, searchDocumentsSQL, pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	var fragments []Fragment
	for rows.Next() {
		var f Fragment
		if err := rows.Scan(&f.ID, &f.Path, &f.Content, &f.Similarity); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	s.logger.Debug("documents searched", "query_length", len(query), "results", len(fragments))
	return fragments, nil
}
