// Package agent implements the conversation turn state machine: deterministic
// fast paths first, then a bounded planning loop against the model, with tool
// invocation and synthetic token streaming expressed on an ordered event log.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/events"
	"github.com/JerePrograma/laburen-agent/internal/intent"
	"github.com/JerePrograma/laburen-agent/internal/llm"
	"github.com/JerePrograma/laburen-agent/internal/plan"
	"github.com/JerePrograma/laburen-agent/internal/session"
	"github.com/JerePrograma/laburen-agent/internal/tools"
)

// Loop bounds. MaxIterationsCap is the hard ceiling regardless of
// configuration.
const (
	DefaultMaxIterations = 4
	MaxIterationsCap     = 10
)

// Streaming defaults. Token streaming is synthetic: the reply is complete
// before the first chunk is emitted.
const (
	DefaultChunkSize   = 24
	DefaultStreamDelay = 15 * time.Millisecond
)

const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 700
)

var (
	ErrEmptyConversationID = errors.New("empty conversation id")
	ErrEmptyMessage        = errors.New("empty message")
)

// SessionStore is the slice of the session layer the orchestrator needs.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
}

// Config wires the orchestrator's dependencies and tuning knobs.
type Config struct {
	Sessions  SessionStore
	Registry  *tools.Registry
	Completer llm.Completer
	Logger    *slog.Logger

	// MaxIterations bounds the planning loop; zero means the default.
	MaxIterations int
	Temperature   float64
	MaxTokens     int

	// StreamDelay paces synthetic token events; ChunkSize is the chunk
	// length in runes.
	StreamDelay time.Duration
	ChunkSize   int

	// Clock anchors relative date extraction. Nil means time.Now.
	Clock func() time.Time
}

// Orchestrator runs conversation turns.
type Orchestrator struct {
	sessions  SessionStore
	registry  *tools.Registry
	completer llm.Completer
	logger    *slog.Logger

	maxIterations int
	temperature   float64
	maxTokens     int
	streamDelay   time.Duration
	chunkSize     int
	clock         func() time.Time
}

// New validates cfg and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("agent: session store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("agent: tool registry is required")
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("agent: completer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	if maxIter > MaxIterationsCap {
		maxIter = MaxIterationsCap
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	delay := cfg.StreamDelay
	if delay < 0 {
		delay = 0
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		sessions:      cfg.Sessions,
		registry:      cfg.Registry,
		completer:     cfg.Completer,
		logger:        logger,
		maxIterations: maxIter,
		temperature:   temp,
		maxTokens:     maxTokens,
		streamDelay:   delay,
		chunkSize:     chunkSize,
		clock:         clock,
	}, nil
}

// RunTurn processes one user message to a terminal outcome. All failures
// past the argument preconditions are expressed on the event sink, never
// returned: the transport holding the stream open has no other way to learn
// about them.
func (o *Orchestrator) RunTurn(ctx context.Context, conversationID, userMessage string, emit events.Sink) error {
	if strings.TrimSpace(conversationID) == "" {
		return ErrEmptyConversationID
	}
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return ErrEmptyMessage
	}

	em := &emitter{sink: emit, logger: o.logger}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "conversation", conversationID, "panic", r)
			em.send(ctx, events.Error("internal error"))
		}
	}()

	sess, err := o.sessions.Get(ctx, conversationID)
	if err != nil {
		o.logger.Error("load session", "conversation", conversationID, "error", err)
		em.send(ctx, events.Error("could not load the conversation"))
		return nil
	}

	// The user's message is persisted before anything else so a crash
	// mid-turn never loses it.
	sess.Append(session.RoleUser, userMessage)
	o.save(ctx, sess)

	tc := &tools.Context{Session: sess}

	if done := o.tryFastPaths(ctx, tc, userMessage, em); done {
		return nil
	}
	o.planLoop(ctx, tc, em)
	return nil
}

// tryFastPaths runs the deterministic extractors in their fixed priority
// order. It reports whether the turn reached a terminal outcome.
func (o *Orchestrator) tryFastPaths(ctx context.Context, tc *tools.Context, msg string, em *emitter) bool {
	sess := tc.Session

	if !sess.Authenticated() {
		if in, ok := intent.Credentials(msg); ok {
			if done := o.runCredentialFastPath(ctx, tc, in, em); done {
				return true
			}
		}
	}

	if sess.Authenticated() {
		if m, ok := o.matchAction(msg); ok {
			return o.runFastPath(ctx, tc, m.Tool, m.Input, em)
		}
		if m, ok := intent.List(msg); ok {
			return o.runFastPath(ctx, tc, m.Tool, m.Input, em)
		}
	}

	if in, ok := intent.DocSearch(msg); ok {
		return o.runFastPath(ctx, tc, tools.ToolSearchDocs, in, em)
	}
	return false
}

func (o *Orchestrator) matchAction(msg string) (intent.Match, bool) {
	if in, ok := intent.CompleteFollowup(msg); ok {
		return intent.Match{Tool: tools.ToolCompleteFollowup, Input: in}, true
	}
	if in, ok := intent.ScheduleFollowup(msg, o.clock()); ok {
		return intent.Match{Tool: tools.ToolScheduleFollowup, Input: in}, true
	}
	if in, ok := intent.Lead(msg); ok {
		return intent.Match{Tool: tools.ToolCreateLead, Input: in}, true
	}
	if in, ok := intent.Note(msg); ok {
		return intent.Match{Tool: tools.ToolRecordNote, Input: in}, true
	}
	return intent.Match{}, false
}

// runCredentialFastPath invokes verify_passcode directly. Unlike the other
// fast paths, a rejected credential pair falls through to the planning loop
// instead of ending the turn.
func (o *Orchestrator) runCredentialFastPath(ctx context.Context, tc *tools.Context, in tools.VerifyPasscodeInput, em *emitter) bool {
	raw, err := json.Marshal(in)
	if err != nil {
		return false
	}
	res, err := o.invokeTool(ctx, tc, tools.ToolVerifyPasscode, raw, em)
	if err != nil {
		if errors.Is(err, tools.ErrInvalidInput) {
			return false
		}
		return true
	}
	if !res.OK() {
		return false
	}
	em.send(ctx, events.State(tc.Session.User))
	o.save(ctx, tc.Session)
	o.reply(ctx, tc.Session, em, formatResult(res))
	return true
}

// runFastPath invokes a matched tool. It reports false only when the
// invocation failed validation, which callers treat as "no match".
func (o *Orchestrator) runFastPath(ctx context.Context, tc *tools.Context, tool string, input any, em *emitter) bool {
	raw, err := json.Marshal(input)
	if err != nil {
		o.logger.Error("marshal fast-path input", "tool", tool, "error", err)
		return false
	}
	res, err := o.invokeTool(ctx, tc, tool, raw, em)
	if err != nil {
		if errors.Is(err, tools.ErrInvalidInput) || errors.Is(err, tools.ErrUnknownTool) {
			return false
		}
		// Execution failure: the tool_result error event is the
		// outcome; there is no reply to stream.
		return true
	}
	o.reply(ctx, tc.Session, em, formatResult(res))
	return true
}

// planLoop is the bounded LLM planning loop.
func (o *Orchestrator) planLoop(ctx context.Context, tc *tools.Context, em *emitter) {
	sess := tc.Session
	for i := 0; i < o.maxIterations; i++ {
		p, ok := o.nextPlan(ctx, sess, em)
		if !ok {
			return
		}
		if p.Thought != "" {
			em.send(ctx, events.Thought(events.NewID(), p.Thought))
			sess.Append(session.RoleAssistant, "[thought] "+p.Thought)
			o.save(ctx, sess)
		}

		if p.Action == plan.ActionRespond {
			o.reply(ctx, sess, em, p.FinalResponse)
			return
		}

		res, err := o.invokeTool(ctx, tc, p.Tool.Name, p.Tool.Input, em)
		if err != nil {
			if errors.Is(err, tools.ErrInvalidInput) || errors.Is(err, tools.ErrUnknownTool) {
				// The model gets another iteration to produce a
				// valid call.
				continue
			}
			// Execution failure terminates the turn without a reply;
			// the tool_result event already reported it.
			return
		}
		// Success and structured failure both terminate the turn. A
		// domain error like "not authenticated" is a legitimate answer,
		// not something to retry against the model.
		if p.Tool.Name == tools.ToolVerifyPasscode && res.OK() {
			em.send(ctx, events.State(sess.User))
			o.save(ctx, sess)
		}
		o.reply(ctx, sess, em, formatResult(res))
		return
	}

	em.send(ctx, events.Error("iteration limit reached"))
	sess.Append(session.RoleAssistant, "[error] iteration limit reached")
	o.save(ctx, sess)
}

// nextPlan requests one completion and parses it, retrying once with a
// stricter instruction on parse failure. A provider failure is terminal: the
// deterministic fallback reply is streamed and ok is false.
func (o *Orchestrator) nextPlan(ctx context.Context, sess *session.Session, em *emitter) (*plan.Plan, bool) {
	text, err := o.complete(ctx, sess, false)
	if err != nil {
		o.logger.Warn("completion failed", "error", err)
		o.reply(ctx, sess, em, providerFallback(sess.Authenticated()))
		return nil, false
	}
	// Unknown tool names are deliberately left for the registry to
	// reject, so a well-formed plan naming a missing tool consumes an
	// iteration instead of masquerading as a parse failure.
	p, err := plan.Parse(text, nil)
	if err == nil {
		return p, true
	}

	o.logger.Debug("plan parse failed, retrying strictly", "error", err)
	text, err = o.complete(ctx, sess, true)
	if err != nil {
		o.logger.Warn("strict retry completion failed", "error", err)
		o.reply(ctx, sess, em, providerFallback(sess.Authenticated()))
		return nil, false
	}
	p, err = plan.Parse(text, nil)
	if err != nil {
		return plan.Fallback(parseFallbackText), true
	}
	return p, true
}

func (o *Orchestrator) complete(ctx context.Context, sess *session.Session, strict bool) (string, error) {
	return o.completer.Complete(ctx, llm.Request{
		System:      o.systemPrompt(sess, strict),
		Messages:    transcript(sess),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
}

// invokeTool runs one registered tool with full event bookkeeping. Every
// outcome, including failures, is recorded in the session transcript so the
// model keeps short-term memory of what it already tried.
func (o *Orchestrator) invokeTool(ctx context.Context, tc *tools.Context, name string, raw json.RawMessage, em *emitter) (tools.Result, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	id := events.NewID()
	em.send(ctx, events.ToolStart(id, name, raw))
	tc.Session.Append(session.RoleAssistant, fmt.Sprintf("[tool] %s %s", name, raw))

	res, err := o.registry.Execute(ctx, tc, name, raw)
	if err != nil {
		em.send(ctx, events.ToolResult(id, name, raw, nil, events.StatusError, err.Error()))
		tc.Session.Append(session.RoleAssistant, fmt.Sprintf("[tool_error] %s: %v", name, err))
		o.save(ctx, tc.Session)
		return nil, err
	}

	status := events.StatusSuccess
	if !res.OK() {
		status = events.StatusError
	}
	em.send(ctx, events.ToolResult(id, name, raw, res, status, ""))
	tc.Session.Append(session.RoleAssistant, fmt.Sprintf("[tool_result] %s: %s", name, res.Summary()))
	o.save(ctx, tc.Session)
	return res, nil
}

// reply persists the assistant message and streams it as token events.
func (o *Orchestrator) reply(ctx context.Context, sess *session.Session, em *emitter, text string) {
	sess.Append(session.RoleAssistant, text)
	o.save(ctx, sess)
	o.stream(ctx, em, text)
}

func (o *Orchestrator) save(ctx context.Context, sess *session.Session) {
	if err := o.sessions.Save(ctx, sess); err != nil {
		o.logger.Warn("save session", "conversation", sess.ID, "error", err)
	}
}

func transcript(sess *session.Session) []llm.Message {
	msgs := make([]llm.Message, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// emitter wraps the sink. Once the consumer reports failure the turn stops
// emitting but lets in-flight side effects complete.
type emitter struct {
	sink   events.Sink
	logger *slog.Logger
	closed bool
}

func (e *emitter) send(ctx context.Context, ev events.Event) {
	if e.closed || e.sink == nil {
		return
	}
	if err := e.sink(ctx, ev); err != nil {
		e.logger.Debug("event consumer gone", "kind", ev.Kind, "error", err)
		e.closed = true
	}
}
