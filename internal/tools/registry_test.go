package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/JerePrograma/laburen-agent/internal/session"
)

type spyCRM struct {
	authenticateCalls int
	authAgent         *crm.Agent
	authErr           error

	createLeadCalls int
	createNoteCalls int
	listNotesCalls  int
	listNotesLimit  int
	deleteNoteCalls int
	deleteNoteErr   error
	deleteArgs      []int64

	completeErr error
}

func (s *spyCRM) Authenticate(_ context.Context, name, passcode string) (*crm.Agent, error) {
	s.authenticateCalls++
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.authAgent, nil
}

func (s *spyCRM) CreateLead(_ context.Context, name, email, source string, createdBy *int64) (*crm.Lead, error) {
	s.createLeadCalls++
	return &crm.Lead{ID: 7, Name: name, Email: email}, nil
}

func (s *spyCRM) ListLeads(_ context.Context, limit int) ([]crm.Lead, error) {
	return nil, nil
}

func (s *spyCRM) CreateNote(_ context.Context, agentID int64, body string) (*crm.Note, error) {
	s.createNoteCalls++
	return &crm.Note{ID: 3, AgentID: agentID, Body: body}, nil
}

func (s *spyCRM) ListNotes(_ context.Context, agentID int64, limit int) ([]crm.Note, error) {
	s.listNotesCalls++
	s.listNotesLimit = limit
	return nil, nil
}

func (s *spyCRM) DeleteNote(_ context.Context, agentID, noteID int64) error {
	s.deleteNoteCalls++
	s.deleteArgs = []int64{agentID, noteID}
	return s.deleteNoteErr
}

func (s *spyCRM) CreateFollowup(_ context.Context, agentID int64, title string, dueAt *time.Time, notes string) (*crm.Followup, error) {
	return &crm.Followup{ID: 11, AgentID: agentID, Title: title, DueAt: dueAt, Status: crm.StatusPending}, nil
}

func (s *spyCRM) ListFollowups(_ context.Context, agentID int64, status string, limit int) ([]crm.Followup, error) {
	return nil, nil
}

func (s *spyCRM) CompleteFollowup(_ context.Context, agentID, followupID int64) (*crm.Followup, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &crm.Followup{ID: followupID, AgentID: agentID, Title: "call", Status: crm.StatusCompleted}, nil
}

type spyDocs struct {
	searchCalls int
	fragments   []knowledge.Fragment
}

func (s *spyDocs) Search(_ context.Context, query string, topK int) ([]knowledge.Fragment, error) {
	s.searchCalls++
	return s.fragments, nil
}

func newTestRegistry(t *testing.T, store *spyCRM, docs *spyDocs) *Registry {
	t.Helper()
	if store == nil {
		store = &spyCRM{}
	}
	if docs == nil {
		docs = &spyDocs{}
	}
	r, err := NewRegistry(Config{CRM: store, Docs: docs})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func authedContext() *Context {
	return &Context{Session: &session.Session{
		ID:   "s1",
		User: &session.Identity{ID: 42, Name: "Carla"},
	}}
}

func TestRegistryCatalogueOrder(t *testing.T) {
	r := newTestRegistry(t, nil, nil)

	want := []string{
		ToolVerifyPasscode, ToolCreateLead, ToolRecordNote, ToolListNotes,
		ToolDeleteNote, ToolListLeads, ToolScheduleFollowup, ToolListFollowups,
		ToolCompleteFollowup, ToolSearchDocs,
	}
	cat := r.Catalogue()
	if len(cat) != len(want) {
		t.Fatalf("catalogue size = %d, want %d", len(cat), len(want))
	}
	for i, def := range cat {
		if def.Name != want[i] {
			t.Errorf("catalogue[%d] = %s, want %s", i, def.Name, want[i])
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := newTestRegistry(t, nil, nil)

	_, err := r.Execute(context.Background(), authedContext(), "drop_tables", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v, want ErrUnknownTool", err)
	}
}

func TestValidationFailureSkipsStore(t *testing.T) {
	store := &spyCRM{}
	r := newTestRegistry(t, store, nil)

	_, err := r.Execute(context.Background(), authedContext(), ToolRecordNote, json.RawMessage(`{}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if store.createNoteCalls != 0 {
		t.Fatalf("store was called %d times on invalid input", store.createNoteCalls)
	}
}

func TestLimitAboveMaximumRejected(t *testing.T) {
	store := &spyCRM{}
	r := newTestRegistry(t, store, nil)

	_, err := r.Execute(context.Background(), authedContext(), ToolListNotes, json.RawMessage(`{"limit": 200}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if store.listNotesCalls != 0 {
		t.Fatal("store was called despite out-of-range limit")
	}
}

func TestListNotesDefaultLimit(t *testing.T) {
	store := &spyCRM{}
	r := newTestRegistry(t, store, nil)

	res, err := r.Execute(context.Background(), authedContext(), ToolListNotes, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.OK() {
		t.Fatalf("result not ok: %s", res.Summary())
	}
	if store.listNotesLimit != DefaultListLimit {
		t.Fatalf("limit = %d, want %d", store.listNotesLimit, DefaultListLimit)
	}
}

func TestUnauthenticatedWriteFailsWithoutStoreCall(t *testing.T) {
	store := &spyCRM{}
	r := newTestRegistry(t, store, nil)
	tc := &Context{Session: &session.Session{ID: "anon"}}

	res, err := r.Execute(context.Background(), tc, ToolRecordNote, json.RawMessage(`{"text":"hi there"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.OK() {
		t.Fatal("expected failure result for unauthenticated call")
	}
	if store.createNoteCalls != 0 {
		t.Fatal("store was called for an unauthenticated agent")
	}
}

func TestVerifyPasscodeSetsSessionUser(t *testing.T) {
	store := &spyCRM{authAgent: &crm.Agent{ID: 9, Name: "Carla"}}
	r := newTestRegistry(t, store, nil)
	tc := &Context{Session: &session.Session{ID: "s1"}}

	res, err := r.Execute(context.Background(), tc, ToolVerifyPasscode,
		json.RawMessage(`{"name":"Carla","passcode":"123456"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.OK() {
		t.Fatalf("result not ok: %s", res.Summary())
	}
	if tc.Session.User == nil || tc.Session.User.ID != 9 || tc.Session.User.Name != "Carla" {
		t.Fatalf("session user = %+v", tc.Session.User)
	}
}

func TestVerifyPasscodeBadCredentials(t *testing.T) {
	store := &spyCRM{authErr: crm.ErrInvalidCredentials}
	r := newTestRegistry(t, store, nil)
	tc := &Context{Session: &session.Session{ID: "s1"}}

	res, err := r.Execute(context.Background(), tc, ToolVerifyPasscode,
		json.RawMessage(`{"name":"Carla","passcode":"000000"}`))
	if err != nil {
		t.Fatalf("bad credentials should be a result, not an error: %v", err)
	}
	if res.OK() {
		t.Fatal("expected failure result")
	}
	if tc.Session.User != nil {
		t.Fatal("session user set after failed authentication")
	}
}

func TestDeleteNoteNotOwned(t *testing.T) {
	store := &spyCRM{deleteNoteErr: crm.ErrNotFound}
	r := newTestRegistry(t, store, nil)

	res, err := r.Execute(context.Background(), authedContext(), ToolDeleteNote, json.RawMessage(`{"note_id": 5}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.OK() {
		t.Fatal("expected failure result for a note the agent does not own")
	}
	if store.deleteArgs[0] != 42 || store.deleteArgs[1] != 5 {
		t.Fatalf("delete args = %v", store.deleteArgs)
	}
}

func TestCreateLeadRejectsBadEmail(t *testing.T) {
	store := &spyCRM{}
	r := newTestRegistry(t, store, nil)

	_, err := r.Execute(context.Background(), authedContext(), ToolCreateLead,
		json.RawMessage(`{"name":"Ana","email":"not-an-email"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if store.createLeadCalls != 0 {
		t.Fatal("store was called with an invalid email")
	}
}

func TestSearchDocsFiltersLowSimilarity(t *testing.T) {
	docs := &spyDocs{fragments: []knowledge.Fragment{
		{ID: "a", Path: "pricing.md", Content: "plans", Similarity: 0.81},
		{ID: "b", Path: "misc.md", Content: "noise", Similarity: 0.12},
	}}
	r := newTestRegistry(t, nil, docs)
	tc := &Context{Session: &session.Session{ID: "anon"}}

	res, err := r.Execute(context.Background(), tc, ToolSearchDocs,
		json.RawMessage(`{"question":"what plans are there?"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	sr, ok := res.(*SearchResult)
	if !ok {
		t.Fatalf("result type = %T", res)
	}
	if len(sr.Fragments) != 1 || sr.Fragments[0].ID != "a" {
		t.Fatalf("fragments = %+v", sr.Fragments)
	}
}

func TestScheduleFollowupRejectsBadDueAt(t *testing.T) {
	r := newTestRegistry(t, &spyCRM{}, nil)

	_, err := r.Execute(context.Background(), authedContext(), ToolScheduleFollowup,
		json.RawMessage(`{"title":"call Ana","due_at":"next tuesday"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
