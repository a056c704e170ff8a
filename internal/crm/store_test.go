package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JerePrograma/laburen-agent/internal/log"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	execSQL  []string
	execArgs [][]any

	row fakeRow
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	db.execArgs = append(db.execArgs, args)
	return db.execTag, db.execErr
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return db.row
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	store := New(db, log.NewNop())

	_, err := store.Authenticate(context.Background(), "Carla", "000000")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = 7
		*dest[1].(*string) = "Carla"
		return nil
	}}}
	store := New(db, log.NewNop())

	agent, err := store.Authenticate(context.Background(), "carla", "123456")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if agent.ID != 7 || agent.Name != "Carla" {
		t.Errorf("unexpected agent: %+v", agent)
	}
}

func TestDeleteNoteNotOwnedReturnsNotFound(t *testing.T) {
	// Zero rows affected: either nonexistent or owned by another
	// agent. Both surface as ErrNotFound.
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
	store := New(db, log.NewNop())

	err := store.DeleteNote(context.Background(), 1, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Ownership must be part of the statement itself, not a separate check.
	args := db.execArgs[0]
	if args[0].(int64) != 99 || args[1].(int64) != 1 {
		t.Errorf("expected note id and owner id as filter args, got %v", args)
	}
}

func TestDeleteNoteOwned(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
	store := New(db, log.NewNop())

	if err := store.DeleteNote(context.Background(), 1, 5); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
}

func TestCompleteFollowupNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	store := New(db, log.NewNop())

	_, err := store.CompleteFollowup(context.Background(), 1, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
