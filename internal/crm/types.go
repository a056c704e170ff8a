// Package crm provides the relational store for agents, leads, notes
// and follow-ups.
//
// Every query is parameterized; ownership of user-scoped rows is
// enforced inside the statement's WHERE clause, never as a separate
// existence check followed by a write.
package crm

import "time"

// Follow-up status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Agent is a sales agent able to authenticate against the assistant.
type Agent struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Lead is a prospective customer. Leads are globally visible.
type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a free-text annotation owned by one agent.
type Note struct {
	ID        int64     `json:"id"`
	AgentID   int64     `json:"agent_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Followup is a scheduled task owned by one agent.
type Followup struct {
	ID          int64      `json:"id"`
	AgentID     int64      `json:"agent_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
