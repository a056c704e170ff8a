package tools

import (
	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/knowledge"
	"github.com/JerePrograma/laburen-agent/internal/session"
)

// Result is what a tool hands back to the orchestrator. OK reports whether
// the action succeeded; Summary is a short human-readable account suitable
// for the model transcript and, as a fallback, the user.
type Result interface {
	OK() bool
	Summary() string
}

// outcome is the shared success/message pair embedded by every result.
type outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (o outcome) OK() bool        { return o.Success }
func (o outcome) Summary() string { return o.Message }

func success(msg string) outcome { return outcome{Success: true, Message: msg} }
func failure(msg string) outcome { return outcome{Success: false, Message: msg} }

// AuthResult reports an authentication attempt. Agent is set only on success.
type AuthResult struct {
	outcome
	Agent *session.Identity `json:"agent,omitempty"`
}

type LeadResult struct {
	outcome
	Lead *crm.Lead `json:"lead,omitempty"`
}

type LeadListResult struct {
	outcome
	Leads []crm.Lead `json:"leads"`
}

type NoteResult struct {
	outcome
	Note *crm.Note `json:"note,omitempty"`
}

type NoteListResult struct {
	outcome
	Notes []crm.Note `json:"notes"`
}

type NoteDeletedResult struct {
	outcome
	NoteID int64 `json:"note_id"`
}

type FollowupResult struct {
	outcome
	Followup *crm.Followup `json:"followup,omitempty"`
}

type FollowupListResult struct {
	outcome
	Status    string         `json:"status"`
	Followups []crm.Followup `json:"followups"`
}

type SearchResult struct {
	outcome
	Question  string               `json:"question"`
	Fragments []knowledge.Fragment `json:"fragments"`
}
