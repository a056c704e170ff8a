package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JerePrograma/laburen-agent/internal/agent"
	"github.com/JerePrograma/laburen-agent/internal/events"
	"github.com/JerePrograma/laburen-agent/internal/log"
)

// maxChatBody bounds the request body size.
const maxChatBody = 1 << 20 // 1MB

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// chatHandler serves the SSE chat endpoint.
type chatHandler struct {
	orchestrator TurnRunner
	logger       log.Logger
}

// chat runs one turn and relays its event log as SSE frames, one frame
// per event, named by event kind. The turn's own error event already
// covers internal failures; only precondition failures surface here.
func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	sink := func(_ context.Context, ev events.Event) error {
		return writeEvent(w, flusher, string(ev.Kind), ev)
	}

	err := h.orchestrator.RunTurn(ctx, req.ConversationID, req.Message, sink)
	if err != nil {
		// Precondition failures: headers are already sent, so report
		// them in-band as an error event.
		msg := "invalid request"
		switch {
		case errors.Is(err, agent.ErrEmptyConversationID):
			msg = "conversation_id is required"
		case errors.Is(err, agent.ErrEmptyMessage):
			msg = "message is required"
		}
		_ = writeEvent(w, flusher, string(events.KindError), events.Error(msg))
		return
	}

	h.logger.Debug("chat turn completed", "conversation_id", req.ConversationID)
}

// writeEvent writes a single SSE frame: "event: <name>\ndata: <json>\n\n".
func writeEvent(w io.Writer, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	flusher.Flush()
	return nil
}
