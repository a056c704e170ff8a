// Package events defines the ordered, typed event log a conversation
// turn emits to its transport.
//
// Consumers must treat the sequence as append-only and strictly ordered
// within a turn. The ID field groups related events: a tool event and
// its tool_result share an ID, as do assistant_message, its token
// chunks and assistant_done.
package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/JerePrograma/laburen-agent/internal/session"
)

// Kind identifies the event type.
type Kind string

// Event kinds emitted during a turn. No other kind is guaranteed.
const (
	KindThought          Kind = "thought"
	KindTool             Kind = "tool"
	KindToolResult       Kind = "tool_result"
	KindAssistantMessage Kind = "assistant_message"
	KindToken            Kind = "token"
	KindAssistantDone    Kind = "assistant_done"
	KindState            Kind = "state"
	KindError            Kind = "error"
)

// Status reports how a tool call finished.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is a single entry in the turn's event log. Only the fields
// relevant to the Kind are populated.
type Event struct {
	Kind Kind   `json:"type"`
	ID   string `json:"id,omitempty"`

	// Thought carries the plan rationale (Kind == thought).
	Text string `json:"text,omitempty"`

	// Token chunk of a streamed reply (Kind == token).
	Value string `json:"value,omitempty"`

	// Tool call lifecycle (Kind == tool / tool_result).
	Name   string          `json:"name,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Result any             `json:"result,omitempty"`
	Status Status          `json:"status,omitempty"`
	Err    string          `json:"error,omitempty"`

	// Authenticated-identity snapshot (Kind == state). Nil means the
	// session is unauthenticated.
	User *session.Identity `json:"authenticated_user,omitempty"`

	// Turn-level failure description (Kind == error).
	Message string `json:"message,omitempty"`
}

// Sink receives events in emission order. A non-nil error tells the
// emitter the consumer is gone; the turn stops emitting further events
// but lets in-flight side effects complete.
type Sink func(ctx context.Context, ev Event) error

// NewID returns a fresh event correlation id.
func NewID() string {
	return uuid.NewString()
}

// Thought builds a thought trace event.
func Thought(id, text string) Event {
	return Event{Kind: KindThought, ID: id, Text: text}
}

// ToolStart builds the event emitted when a tool call begins.
func ToolStart(id, name string, input json.RawMessage) Event {
	return Event{Kind: KindTool, ID: id, Name: name, Input: input}
}

// ToolResult builds the event emitted when a tool call finishes.
// errMsg is empty on success.
func ToolResult(id, name string, input json.RawMessage, result any, status Status, errMsg string) Event {
	return Event{
		Kind:   KindToolResult,
		ID:     id,
		Name:   name,
		Input:  input,
		Result: result,
		Status: status,
		Err:    errMsg,
	}
}

// AssistantMessage announces that a new streamed reply begins.
func AssistantMessage(id string) Event {
	return Event{Kind: KindAssistantMessage, ID: id}
}

// Token carries one chunk of a streamed reply.
func Token(id, value string) Event {
	return Event{Kind: KindToken, ID: id, Value: value}
}

// AssistantDone marks a streamed reply as complete.
func AssistantDone(id string) Event {
	return Event{Kind: KindAssistantDone, ID: id}
}

// State carries the authenticated-identity snapshot after a change.
func State(user *session.Identity) Event {
	return Event{Kind: KindState, User: user}
}

// Error reports a turn-level failure.
func Error(message string) Event {
	return Event{Kind: KindError, Message: message}
}
