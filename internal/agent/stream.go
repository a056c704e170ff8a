package agent

import (
	"context"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/events"
)

// stream emits text as paced token events bracketed by assistant_message and
// assistant_done. The reply is already complete and persisted; the pacing is
// purely cosmetic and stops early when ctx is cancelled.
func (o *Orchestrator) stream(ctx context.Context, em *emitter, text string) {
	id := events.NewID()
	em.send(ctx, events.AssistantMessage(id))
	chunks := splitChunks(text, o.chunkSize)
	for i, chunk := range chunks {
		em.send(ctx, events.Token(id, chunk))
		if o.streamDelay > 0 && i < len(chunks)-1 {
			timer := time.NewTimer(o.streamDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
	em.send(ctx, events.AssistantDone(id))
}

// splitChunks cuts text into pieces of at most size runes.
func splitChunks(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
