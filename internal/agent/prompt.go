package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JerePrograma/laburen-agent/internal/session"
)

const promptHeader = `You are the assistant for a CRM used by sales agents. You help agents
authenticate, capture leads, keep notes, manage follow-ups and answer
questions from the product documentation.

Decide on exactly one action per reply and answer with a single JSON
object, nothing else:

{"thought": "<brief reasoning>", "action": "tool", "tool": {"name": "<tool name>", "input": {<tool input>}}}

or, to answer the agent directly:

{"thought": "<brief reasoning>", "action": "respond", "final_response": "<your reply>"}

Never set both "tool" and "final_response". Use only the tools listed
below, with inputs matching their schemas.`

const promptExample = `Example:
agent: save a note that the demo went well
you: {"thought": "the agent wants a note recorded", "action": "tool", "tool": {"name": "record_note", "input": {"text": "the demo went well"}}}`

const strictInstruction = `Your previous reply was not valid JSON. Respond with ONLY the JSON
object described above: no prose, no code fences, no commentary.`

func (o *Orchestrator) systemPrompt(sess *session.Session, strict bool) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nTools:\n")
	for _, def := range o.registry.Catalogue() {
		schema, err := json.Marshal(def.Schema)
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s: %s Input schema: %s\n", def.Name, def.Description, schema)
	}
	b.WriteString("\n")
	b.WriteString(promptExample)
	b.WriteString("\n\n")
	if sess.Authenticated() {
		fmt.Fprintf(&b, "The agent is authenticated as %s (id %d).", sess.User.Name, sess.User.ID)
	} else {
		b.WriteString("The agent is NOT authenticated yet. CRM data tools will refuse until they verify their name and passcode with verify_passcode.")
	}
	if strict {
		b.WriteString("\n\n")
		b.WriteString(strictInstruction)
	}
	return b.String()
}
