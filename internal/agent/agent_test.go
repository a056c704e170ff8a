package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/events"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/JerePrograma/laburen-agent/internal/llm"
	"github.com/JerePrograma/laburen-agent/internal/session"
	"github.com/JerePrograma/laburen-agent/internal/tools"
)

type memSessions struct {
	m     map[string]*session.Session
	saves int
}

func newMemSessions() *memSessions {
	return &memSessions{m: make(map[string]*session.Session)}
}

func (s *memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	if sess, ok := s.m[id]; ok {
		return sess, nil
	}
	sess := &session.Session{ID: id, CreatedAt: time.Now()}
	s.m[id] = sess
	return sess, nil
}

func (s *memSessions) Save(_ context.Context, sess *session.Session) error {
	s.saves++
	s.m[sess.ID] = sess
	return nil
}

type fakeCRM struct {
	agent     *crm.Agent
	notes     []crm.Note
	noteErr   error
	listCalls int
}

func (f *fakeCRM) Authenticate(_ context.Context, name, passcode string) (*crm.Agent, error) {
	if f.agent != nil && strings.EqualFold(name, f.agent.Name) && passcode == "123456" {
		return f.agent, nil
	}
	return nil, crm.ErrInvalidCredentials
}

func (f *fakeCRM) CreateLead(_ context.Context, name, email, source string, _ *int64) (*crm.Lead, error) {
	return &crm.Lead{ID: 1, Name: name, Email: email, Source: source}, nil
}

func (f *fakeCRM) ListLeads(_ context.Context, limit int) ([]crm.Lead, error) { return nil, nil }

func (f *fakeCRM) CreateNote(_ context.Context, agentID int64, body string) (*crm.Note, error) {
	if f.noteErr != nil {
		return nil, f.noteErr
	}
	return &crm.Note{ID: 1, AgentID: agentID, Body: body, CreatedAt: time.Now()}, nil
}

func (f *fakeCRM) ListNotes(_ context.Context, agentID int64, limit int) ([]crm.Note, error) {
	f.listCalls++
	if len(f.notes) > limit {
		return f.notes[:limit], nil
	}
	return f.notes, nil
}

func (f *fakeCRM) DeleteNote(_ context.Context, agentID, noteID int64) error { return nil }

func (f *fakeCRM) CreateFollowup(_ context.Context, agentID int64, title string, dueAt *time.Time, notes string) (*crm.Followup, error) {
	return &crm.Followup{ID: 1, AgentID: agentID, Title: title, DueAt: dueAt, Status: crm.StatusPending}, nil
}

func (f *fakeCRM) ListFollowups(_ context.Context, agentID int64, status string, limit int) ([]crm.Followup, error) {
	return nil, nil
}

func (f *fakeCRM) CompleteFollowup(_ context.Context, agentID, followupID int64) (*crm.Followup, error) {
	return &crm.Followup{ID: followupID, AgentID: agentID, Title: "call", Status: crm.StatusCompleted}, nil
}

type fakeDocs struct{ fragments []knowledge.Fragment }

func (f *fakeDocs) Search(_ context.Context, query string, topK int) ([]knowledge.Fragment, error) {
	return f.fragments, nil
}

type scriptedLLM struct {
	calls   int
	replies []string
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

type recorder struct{ events []events.Event }

func (r *recorder) sink() events.Sink {
	return func(_ context.Context, ev events.Event) error {
		r.events = append(r.events, ev)
		return nil
	}
}

func (r *recorder) kinds() []events.Kind {
	out := make([]events.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) has(kind events.Kind) bool {
	for _, ev := range r.events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func (r *recorder) streamedText() string {
	var b strings.Builder
	for _, ev := range r.events {
		if ev.Kind == events.KindToken {
			b.WriteString(ev.Value)
		}
	}
	return b.String()
}

func newTestOrchestrator(t *testing.T, store *memSessions, crmStore *fakeCRM, completer llm.Completer, maxIter int) *Orchestrator {
	t.Helper()
	reg, err := tools.NewRegistry(tools.Config{CRM: crmStore, Docs: &fakeDocs{}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	o, err := New(Config{
		Sessions:      store,
		Registry:      reg,
		Completer:     completer,
		MaxIterations: maxIter,
		StreamDelay:   0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func authedSession(store *memSessions, id string) {
	store.m[id] = &session.Session{
		ID:   id,
		User: &session.Identity{ID: 42, Name: "Carla"},
	}
}

func TestRunTurnPreconditions(t *testing.T) {
	store := newMemSessions()
	o := newTestOrchestrator(t, store, &fakeCRM{}, &scriptedLLM{}, 0)

	if err := o.RunTurn(context.Background(), "", "hi", nil); !errors.Is(err, ErrEmptyConversationID) {
		t.Errorf("empty id err = %v", err)
	}
	if err := o.RunTurn(context.Background(), "c1", "  ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message err = %v", err)
	}
}

func TestCredentialFastPathEventOrder(t *testing.T) {
	store := newMemSessions()
	provider := &scriptedLLM{}
	o := newTestOrchestrator(t, store, &fakeCRM{agent: &crm.Agent{ID: 7, Name: "Seba"}}, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c1", "I am Seba, my code is 123456", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("provider called %d times on a fast path", provider.calls)
	}

	kinds := rec.kinds()
	if len(kinds) < 5 {
		t.Fatalf("too few events: %v", kinds)
	}
	if kinds[0] != events.KindTool || rec.events[0].Name != tools.ToolVerifyPasscode {
		t.Fatalf("first event = %+v", rec.events[0])
	}
	if kinds[1] != events.KindToolResult || rec.events[1].Status != events.StatusSuccess {
		t.Fatalf("second event = %+v", rec.events[1])
	}
	if kinds[2] != events.KindState || rec.events[2].User == nil {
		t.Fatalf("third event = %+v", rec.events[2])
	}
	if kinds[3] != events.KindAssistantMessage {
		t.Fatalf("fourth event = %v", kinds[3])
	}
	if kinds[len(kinds)-1] != events.KindAssistantDone {
		t.Fatalf("last event = %v", kinds[len(kinds)-1])
	}
	if !rec.has(events.KindToken) {
		t.Fatal("no token events")
	}

	if sess := store.m["c1"]; sess.User == nil || sess.User.ID != 7 {
		t.Fatalf("persisted session user = %+v", sess.User)
	}
}

func TestListNotesFastPathEmptyStoreSkipsProvider(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c2")
	provider := &scriptedLLM{}
	crmStore := &fakeCRM{}
	o := newTestOrchestrator(t, store, crmStore, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c2", "show me my notes", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("provider called %d times", provider.calls)
	}
	if crmStore.listCalls != 1 {
		t.Fatalf("ListNotes called %d times", crmStore.listCalls)
	}
	if got := rec.streamedText(); got != emptyNotesMsg {
		t.Fatalf("streamed %q, want %q", got, emptyNotesMsg)
	}
}

func TestUnparseableCompletionUsesFallbackAfterOneRetry(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c3")
	provider := &scriptedLLM{replies: []string{"I refuse to answer in JSON."}}
	o := newTestOrchestrator(t, store, &fakeCRM{}, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c3", "tell me something nice", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
	if rec.has(events.KindError) {
		t.Fatal("unexpected error event")
	}
	if got := rec.streamedText(); got != parseFallbackText {
		t.Fatalf("streamed %q, want %q", got, parseFallbackText)
	}
	if !rec.has(events.KindAssistantDone) {
		t.Fatal("no assistant_done event")
	}
}

func TestIterationLimitWithUnknownTool(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c4")
	provider := &scriptedLLM{replies: []string{
		`{"thought":"t","action":"tool","tool":{"name":"ghost_tool","input":{}}}`,
	}}
	o := newTestOrchestrator(t, store, &fakeCRM{}, provider, 1)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c4", "tell me something nice", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
	if !rec.has(events.KindError) {
		t.Fatal("no iteration-limit error event")
	}
	if rec.has(events.KindAssistantDone) {
		t.Fatal("assistant_done emitted despite iteration limit")
	}

	var sawToolError bool
	for _, ev := range rec.events {
		if ev.Kind == events.KindToolResult && ev.Status == events.StatusError {
			sawToolError = true
			if !strings.Contains(ev.Err, "unknown tool") {
				t.Errorf("tool_result error = %q", ev.Err)
			}
		}
	}
	if !sawToolError {
		t.Fatal("no tool_result error for the unknown tool")
	}
}

func TestRespondPlanStreamsFinalResponse(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c5")
	provider := &scriptedLLM{replies: []string{
		`{"thought":"greeting back","action":"respond","final_response":"Hello there!"}`,
	}}
	o := newTestOrchestrator(t, store, &fakeCRM{}, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c5", "tell me something nice", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if got := rec.streamedText(); got != "Hello there!" {
		t.Fatalf("streamed %q", got)
	}
	if !rec.has(events.KindThought) {
		t.Fatal("no thought event")
	}
	sess := store.m["c5"]
	last := sess.Messages[len(sess.Messages)-1]
	if last.Role != session.RoleAssistant || last.Content != "Hello there!" {
		t.Fatalf("last history entry = %+v", last)
	}
}

func TestStructuredToolFailureEndsTurnWithReply(t *testing.T) {
	store := newMemSessions()
	// Unauthenticated session: the tool reports a structured failure.
	provider := &scriptedLLM{replies: []string{
		`{"thought":"record it","action":"tool","tool":{"name":"record_note","input":{"text":"call Ana"}}}`,
	}}
	o := newTestOrchestrator(t, store, &fakeCRM{}, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c6", "please do something", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1: a domain failure must not loop", provider.calls)
	}
	if !rec.has(events.KindAssistantDone) {
		t.Fatal("no reply streamed")
	}
	if got := rec.streamedText(); !strings.Contains(got, "not authenticated") {
		t.Fatalf("streamed %q", got)
	}
}

func TestProviderFailureIsTerminalWithFallback(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c7")
	provider := &scriptedLLM{err: errors.New("connection refused")}
	o := newTestOrchestrator(t, store, &fakeCRM{}, provider, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c7", "tell me something nice", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
	if rec.has(events.KindError) {
		t.Fatal("provider failure must not produce an error event")
	}
	if got := rec.streamedText(); got != providerFallback(true) {
		t.Fatalf("streamed %q", got)
	}
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks("abcdefg", 3)
	want := []string{"abc", "def", "g"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
	if got := splitChunks("", 3); got != nil {
		t.Errorf("empty input chunks = %v", got)
	}
}

func TestNoteListBulletsCappedWithCountPrefix(t *testing.T) {
	store := newMemSessions()
	authedSession(store, "c8")
	crmStore := &fakeCRM{notes: make([]crm.Note, 12)}
	for i := range crmStore.notes {
		crmStore.notes[i] = crm.Note{ID: int64(i + 1), AgentID: 42, Body: "body", CreatedAt: time.Now()}
	}
	o := newTestOrchestrator(t, store, crmStore, &scriptedLLM{}, 0)
	rec := &recorder{}

	if err := o.RunTurn(context.Background(), "c8", "show my 12 notes", rec.sink()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	out := rec.streamedText()
	if !strings.HasPrefix(out, "You have 12 notes:") {
		t.Fatalf("prefix wrong: %q", out)
	}
	if got := strings.Count(out, "\n- "); got != maxListBullets {
		t.Fatalf("bullets = %d, want %d", got, maxListBullets)
	}
}
