package agent

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JerePrograma/laburen-agent/internal/tools"
)

// Presentation limits.
const (
	maxListBullets = 10
	previewRunes   = 60
)

// Deterministic fallback texts.
const parseFallbackText = "Sorry, I could not work out how to help with that. Could you rephrase it?"

func providerFallback(authenticated bool) string {
	if authenticated {
		return "I'm having trouble reaching my planning service right now. Please try again in a moment."
	}
	return "I'm having trouble reaching my planning service right now. In the meantime you can verify yourself with your name and passcode."
}

// Empty-state messages, distinct from an empty bullet list.
const (
	emptyNotesMsg     = "You have no notes yet."
	emptyLeadsMsg     = "There are no leads yet."
	emptyFollowupsMsg = "You have no %s follow-ups."
	emptySearchMsg    = "I could not find anything about that in the documentation."
)

// formatResult maps a tool result to the sentence the agent reads. It is
// pure presentation: any shape without an explicit mapping falls back to the
// result's own message.
func formatResult(res tools.Result) string {
	switch r := res.(type) {
	case *tools.AuthResult:
		if r.OK() && r.Agent != nil {
			return fmt.Sprintf("Welcome, %s! You are verified. How can I help you today?", r.Agent.Name)
		}
	case *tools.NoteResult:
		if r.OK() && r.Note != nil {
			return fmt.Sprintf("Saved note #%d: %q (%s).",
				r.Note.ID, preview(r.Note.Body), r.Note.CreatedAt.Format("2 Jan 15:04"))
		}
	case *tools.NoteDeletedResult:
		if r.OK() {
			return fmt.Sprintf("Note #%d deleted.", r.NoteID)
		}
	case *tools.NoteListResult:
		if r.OK() {
			if len(r.Notes) == 0 {
				return emptyNotesMsg
			}
			var b strings.Builder
			fmt.Fprintf(&b, "You have %d notes:", len(r.Notes))
			for i, n := range r.Notes {
				if i == maxListBullets {
					break
				}
				fmt.Fprintf(&b, "\n- #%d %s (%s)", n.ID, preview(n.Body), n.CreatedAt.Format("2 Jan"))
			}
			return b.String()
		}
	case *tools.LeadResult:
		if r.OK() && r.Lead != nil {
			s := fmt.Sprintf("Created lead #%d: %s <%s>", r.Lead.ID, r.Lead.Name, r.Lead.Email)
			if r.Lead.Source != "" {
				s += fmt.Sprintf(", source %s", r.Lead.Source)
			}
			return s + "."
		}
	case *tools.LeadListResult:
		if r.OK() {
			if len(r.Leads) == 0 {
				return emptyLeadsMsg
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Latest %d leads:", len(r.Leads))
			for i, l := range r.Leads {
				if i == maxListBullets {
					break
				}
				fmt.Fprintf(&b, "\n- #%d %s <%s>", l.ID, l.Name, l.Email)
			}
			return b.String()
		}
	case *tools.FollowupResult:
		if r.OK() && r.Followup != nil {
			return sentence(r.Summary())
		}
	case *tools.FollowupListResult:
		if r.OK() {
			if len(r.Followups) == 0 {
				return fmt.Sprintf(emptyFollowupsMsg, r.Status)
			}
			var b strings.Builder
			fmt.Fprintf(&b, "You have %d %s follow-ups:", len(r.Followups), r.Status)
			for i, f := range r.Followups {
				if i == maxListBullets {
					break
				}
				fmt.Fprintf(&b, "\n- #%d %s", f.ID, f.Title)
				if f.DueAt != nil {
					fmt.Fprintf(&b, ", due %s", f.DueAt.Format("Mon 2 Jan 15:04"))
				}
			}
			return b.String()
		}
	case *tools.SearchResult:
		if r.OK() {
			if len(r.Fragments) == 0 {
				return emptySearchMsg
			}
			var b strings.Builder
			b.WriteString("Here is what the documentation says:")
			for i, f := range r.Fragments {
				if i == maxListBullets {
					break
				}
				fmt.Fprintf(&b, "\n- %s: %s", f.Path, preview(f.Content))
			}
			return b.String()
		}
	}
	if msg := res.Summary(); msg != "" {
		return sentence(msg)
	}
	return "Action completed."
}

// preview truncates text to a single short line.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes-1]) + "…"
}

// sentence uppercases the first rune and ensures terminal punctuation.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.ContainsRune(".!?", rune(msg[len(msg)-1])) {
		msg += "."
	}
	return msg
}
