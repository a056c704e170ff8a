package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for CRM operations. Check with errors.Is().
var (
	// ErrNotFound indicates the row does not exist or is not owned by
	// the caller. The two cases are indistinguishable on purpose: the
	// ownership filter lives inside the statement.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials indicates no agent matches the name/passcode pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store executes CRM operations against PostgreSQL.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger *slog.Logger
}

// New creates a CRM store. logger may be nil (defaults to slog.Default()).
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Authenticate resolves an agent by case-insensitive name and exact
// passcode. Returns ErrInvalidCredentials when no row matches.
func (s *Store) Authenticate(ctx context.Context, name, passcode string) (*Agent, error) {
	const q = `SELECT id, name FROM agents WHERE lower(name) = lower($1) AND passcode = $2`

	var a Agent
	err := s.db.QueryRow(ctx, q, name, passcode).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticating agent: %w", err)
	}

	s.logger.Debug("agent authenticated", "agent_id", a.ID)
	return &a, nil
}

// CreateLead inserts a lead. createdBy may be nil when the lead enters
// through an unattributed channel.
func (s *Store) CreateLead(ctx context.Context, name, email, source string, createdBy *int64) (*Lead, error) {
	const q = `INSERT INTO leads (name, email, source, created_by) VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id, name, email, COALESCE(source, ''), created_at`

	var l Lead
	err := s.db.QueryRow(ctx, q, name, email, source, createdBy).
		Scan(&l.ID, &l.Name, &l.Email, &l.Source, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating lead: %w", err)
	}

	s.logger.Debug("lead created", "lead_id", l.ID)
	return &l, nil
}

// ListLeads returns up to limit leads, newest first. Leads are global,
// not scoped to the caller.
func (s *Store) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	const q = `SELECT id, name, email, COALESCE(source, ''), created_at FROM leads
		ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Source, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// CreateNote inserts a note owned by agentID.
func (s *Store) CreateNote(ctx context.Context, agentID int64, body string) (*Note, error) {
	const q = `INSERT INTO notes (agent_id, body) VALUES ($1, $2)
		RETURNING id, agent_id, body, created_at`

	var n Note
	err := s.db.QueryRow(ctx, q, agentID, body).Scan(&n.ID, &n.AgentID, &n.Body, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Debug("note created", "note_id", n.ID, "agent_id", agentID)
	return &n, nil
}

// ListNotes returns up to limit notes owned by agentID, newest first.
func (s *Store) ListNotes(ctx context.Context, agentID int64, limit int) ([]Note, error) {
	const q = `SELECT id, agent_id, body, created_at FROM notes
		WHERE agent_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.Query(ctx, q, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AgentID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// DeleteNote removes a note owned by agentID. A valid id belonging to
// another agent yields ErrNotFound and touches nothing.
func (s *Store) DeleteNote(ctx context.Context, agentID, noteID int64) error {
	const q = `DELETE FROM notes WHERE id = $1 AND agent_id = $2`

	tag, err := s.db.Exec(ctx, q, noteID, agentID)
	if err != nil {
		return fmt.Errorf("deleting note %d: %w", noteID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("note deleted", "note_id", noteID, "agent_id", agentID)
	return nil
}

// CreateFollowup schedules a follow-up owned by agentID. dueAt and
// notes are optional; status starts as pending.
func (s *Store) CreateFollowup(ctx context.Context, agentID int64, title string, dueAt *time.Time, notes string) (*Followup, error) {
	const q = `INSERT INTO followups (agent_id, title, due_at, notes) VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, agent_id, title, status, due_at, COALESCE(notes, ''), completed_at, created_at`

	var f Followup
	err := s.db.QueryRow(ctx, q, agentID, title, dueAt, notes).
		Scan(&f.ID, &f.AgentID, &f.Title, &f.Status, &f.DueAt, &f.Notes, &f.CompletedAt, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating follow-up: %w", err)
	}

	s.logger.Debug("follow-up created", "followup_id", f.ID, "agent_id", agentID)
	return &f, nil
}

// ListFollowups returns up to limit follow-ups owned by agentID with
// the given status, ordered by due date (falling back to creation time)
// ascending.
func (s *Store) ListFollowups(ctx context.Context, agentID int64, status string, limit int) ([]Followup, error) {
	const q = `SELECT id, agent_id, title, status, due_at, COALESCE(notes, ''), completed_at, created_at
		FROM followups WHERE agent_id = $1 AND status = $2
		ORDER BY COALESCE(due_at, created_at) ASC LIMIT $3`

	rows, err := s.db.Query(ctx, q, agentID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("listing follow-ups: %w", err)
	}
	defer rows.Close()

	var fs []Followup
	for rows.Next() {
		var f Followup
		if err := rows.Scan(&f.ID, &f.AgentID, &f.Title, &f.Status, &f.DueAt, &f.Notes, &f.CompletedAt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning follow-up: %w", err)
		}
		fs = append(fs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing follow-ups: %w", err)
	}
	return fs, nil
}

// CompleteFollowup marks a follow-up owned by agentID as completed and
// stamps the completion time. Returns ErrNotFound when the id does not
// exist or belongs to another agent.
func (s *Store) CompleteFollowup(ctx context.Context, agentID, followupID int64) (*Followup, error) {
	const q = `UPDATE followups SET status = $3, completed_at = now()
		WHERE id = $1 AND agent_id = $2
		RETURNING id, agent_id, title, status, due_at, COALESCE(notes, ''), completed_at, created_at`

	var f Followup
	err := s.db.QueryRow(ctx, q, followupID, agentID, StatusCompleted).
		Scan(&f.ID, &f.AgentID, &f.Title, &f.Status, &f.DueAt, &f.Notes, &f.CompletedAt, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("completing follow-up %d: %w", followupID, err)
	}

	s.logger.Debug("follow-up completed", "followup_id", f.ID, "agent_id", agentID)
	return &f, nil
}
