package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// History limits. Persisted history is capped to bound both storage and
// prompt size; the most recent entries win.
const (
	DefaultHistoryLimit = 120
	MinHistoryLimit     = 10
)

// Sentinel errors for session operations. Check with errors.Is().
var (
	// ErrEmptyID indicates a conversation id was not provided.
	ErrEmptyID = errors.New("empty conversation id")
)

// DB is the subset of pgxpool.Pool the store depends on.
// Interfaces are defined by the consumer, which keeps the store
// testable with a lightweight fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createSessionSQL = `INSERT INTO sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`

	getSessionSQL = `SELECT created_at, agent_id, agent_name, history FROM sessions WHERE id = $1`

	saveSessionSQL = `UPDATE sessions SET agent_id = $2, agent_name = $3, history = $4, updated_at = now() WHERE id = $1`
)

// Store persists sessions in PostgreSQL.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db           DB
	logger       *slog.Logger
	historyLimit int
}

// Option configures optional Store behavior.
type Option func(*Store)

// WithHistoryLimit overrides the number of transcript entries kept on
// save. Values below MinHistoryLimit are clamped up.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n < MinHistoryLimit {
			n = MinHistoryLimit
		}
		s.historyLimit = n
	}
}

// New creates a session store. logger may be nil (defaults to
// slog.Default()).
func New(db DB, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		db:           db,
		logger:       logger,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads the session for id, creating an empty one if it does not
// exist yet. The create is an atomic upsert (INSERT .. ON CONFLICT DO
// NOTHING) followed by a read, so concurrent first access to the same
// id cannot produce divergent rows.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	if _, err := s.db.Exec(ctx, createSessionSQL, id); err != nil {
		return nil, fmt.Errorf("creating session %s: %w", id, err)
	}

	var (
		createdAt time.Time
		agentID   *int64
		agentName *string
		history   []byte
	)
	if err := s.db.QueryRow(ctx, getSessionSQL, id).Scan(&createdAt, &agentID, &agentName, &history); err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	sess := &Session{ID: id, CreatedAt: createdAt}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &sess.Messages); err != nil {
			return nil, fmt.Errorf("decoding history for session %s: %w", id, err)
		}
	}
	if agentID != nil {
		name := ""
		if agentName != nil {
			name = *agentName
		}
		sess.User = &Identity{ID: *agentID, Name: name}
	}

	s.logger.Debug("loaded session", "id", id, "messages", len(sess.Messages), "authenticated", sess.Authenticated())
	return sess, nil
}

// Save persists the authenticated identity and the (possibly truncated)
// history as a full overwrite. It is called after every mutation within
// a turn and is idempotent. Truncation operates on a reslice so the
// in-memory session the current turn still needs is never mutated.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrEmptyID
	}

	msgs := sess.Messages
	if len(msgs) > s.historyLimit {
		msgs = msgs[len(msgs)-s.historyLimit:]
	}
	if msgs == nil {
		msgs = []Message{}
	}
	history, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding history for session %s: %w", sess.ID, err)
	}

	var (
		agentID   *int64
		agentName *string
	)
	if sess.User != nil {
		agentID = &sess.User.ID
		agentName = &sess.User.Name
	}

	if _, err := s.db.Exec(ctx, saveSessionSQL, sess.ID, agentID, agentName, history); err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	s.logger.Debug("saved session", "id", sess.ID, "messages", len(msgs))
	return nil
}
