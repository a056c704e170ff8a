// Package session provides conversation state persistence.
//
// A Session carries the LLM-visible transcript of one conversation plus
// the authenticated agent identity, keyed by an opaque conversation id.
// Sessions are created lazily on first reference (race-safe upsert) and
// saved as full overwrites of the two mutable fields.
//
// Known limitation: the store provides no mutual exclusion between
// concurrent turns on the same conversation id. If a client
// double-submits, writes may interleave and the last save wins. The
// get-or-create path is the only place where concurrency correctness is
// guaranteed.
package session

import (
	"time"
)

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Identity is the authenticated agent attached to a session.
type Identity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message is a single transcript entry. Besides real user/assistant
// exchanges, the orchestration loop appends synthetic entries recording
// tool calls, tool results and errors; they are deliberately part of
// the transcript so the model keeps short-term memory of what it
// already tried.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the persisted per-conversation state.
type Session struct {
	ID        string
	CreatedAt time.Time
	Messages  []Message
	User      *Identity
}

// Authenticated reports whether the session has a verified identity.
func (s *Session) Authenticated() bool {
	return s.User != nil
}

// Append adds one transcript entry. History is append-only during a
// turn; truncation happens only at save time.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}
