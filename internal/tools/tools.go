// Package tools defines the catalogue of actions the assistant can take on
// behalf of an agent: authentication, lead capture, notes, follow-ups and
// documentation search. Every tool validates its input against a JSON schema
// before touching a store, so a malformed call never causes a side effect.
package tools

import (
	"context"
	"errors"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/JerePrograma/laburen-agent/internal/session"
)

// Tool names as they appear in plans and in the catalogue shown to the model.
const (
	ToolVerifyPasscode   = "verify_passcode"
	ToolCreateLead       = "create_lead"
	ToolRecordNote       = "record_note"
	ToolListNotes        = "list_notes"
	ToolDeleteNote       = "delete_note"
	ToolListLeads        = "list_leads"
	ToolScheduleFollowup = "schedule_followup"
	ToolListFollowups    = "list_followups"
	ToolCompleteFollowup = "complete_followup"
	ToolSearchDocs       = "search_docs"
)

// List bounds shared by every listing tool.
const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// MinSimilarity is the floor below which documentation fragments are
// considered noise and dropped from search results.
const MinSimilarity = 0.25

var (
	// ErrUnknownTool is returned when a plan names a tool that is not in
	// the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidInput is returned when tool input fails schema or semantic
	// validation. The tool's store is never called in that case.
	ErrInvalidInput = errors.New("invalid tool input")
)

// Context carries the per-turn state a tool may read or mutate.
type Context struct {
	Session *session.Session
}

// CRMStore is the slice of the CRM persistence layer the tools need.
type CRMStore interface {
	Authenticate(ctx context.Context, name, passcode string) (*crm.Agent, error)
	CreateLead(ctx context.Context, name, email, source string, createdBy *int64) (*crm.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]crm.Lead, error)
	CreateNote(ctx context.Context, agentID int64, body string) (*crm.Note, error)
	ListNotes(ctx context.Context, agentID int64, limit int) ([]crm.Note, error)
	DeleteNote(ctx context.Context, agentID, noteID int64) error
	CreateFollowup(ctx context.Context, agentID int64, title string, dueAt *time.Time, notes string) (*crm.Followup, error)
	ListFollowups(ctx context.Context, agentID int64, status string, limit int) ([]crm.Followup, error)
	CompleteFollowup(ctx context.Context, agentID, followupID int64) (*crm.Followup, error)
}

// DocSearcher performs semantic search over ingested documentation.
type DocSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Fragment, error)
}

// Input payloads, one per tool. Field names match the JSON schemas the model
// is shown, so a well-formed plan decodes directly into these.

type VerifyPasscodeInput struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

type CreateLeadInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

type RecordNoteInput struct {
	Text string `json:"text"`
}

type ListNotesInput struct {
	Limit int `json:"limit,omitempty"`
}

type DeleteNoteInput struct {
	NoteID int64 `json:"note_id"`
}

type ListLeadsInput struct {
	Limit int `json:"limit,omitempty"`
}

type ScheduleFollowupInput struct {
	Title string `json:"title"`
	// DueAt is an RFC 3339 timestamp; empty means no due date.
	DueAt string `json:"due_at,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type ListFollowupsInput struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type CompleteFollowupInput struct {
	FollowupID int64 `json:"followup_id"`
}

type SearchDocsInput struct {
	Question string `json:"question"`
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
