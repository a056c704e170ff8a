// Package intent recognizes common user requests with deterministic pattern
// matching so they can bypass the model entirely. Every extractor is pure and
// all-or-nothing: it returns a fully formed tool input, or it declines.
package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JerePrograma/laburen-agent/internal/tools"
)

// Match pairs a tool name with its extracted input.
type Match struct {
	Tool  string
	Input any
}

var (
	nameRE = regexp.MustCompile(`(?i)\b(?:i\s+am|i'm|my\s+name\s+is|this\s+is)\s+([^,.;]+?)(?:\s*[,.;]|\s+(?:and|my|the)\b|$)`)
	codeRE = regexp.MustCompile(`(?i)\b(?:pass\s*code|passcode|code|pin)\s*(?:is|:)?\s*([0-9]{3,10})\b`)
)

// Credentials extracts a name plus passcode from a self-introduction such as
// "I am Carla, my passcode is 123456". Both parts are required.
func Credentials(text string) (tools.VerifyPasscodeInput, bool) {
	var in tools.VerifyPasscodeInput
	nm := nameRE.FindStringSubmatch(text)
	cm := codeRE.FindStringSubmatch(text)
	if nm == nil || cm == nil {
		return in, false
	}
	name := strings.Trim(strings.TrimSpace(nm[1]), ".,;:!?\"'")
	if name == "" {
		return in, false
	}
	in.Name = name
	in.Passcode = cm[1]
	return in, true
}

var noteRE = regexp.MustCompile(`(?i)\b(?:register|save|record|add|take|jot|write)\b[^.!?]*?\bnotes?\b[:,]?\s*(?:that\s+|saying\s+)?(.*)$`)

// Note extracts a note body from phrases like "save a note that the demo
// went well". The trailing text must be at least three characters long.
func Note(text string) (tools.RecordNoteInput, bool) {
	var in tools.RecordNoteInput
	m := noteRE.FindStringSubmatch(text)
	if m == nil {
		return in, false
	}
	body := strings.Trim(strings.TrimSpace(m[1]), "\"'")
	if utf8.RuneCountInString(body) < 3 {
		return in, false
	}
	in.Text = body
	return in, true
}

var (
	leadRE       = regexp.MustCompile(`(?i)\blead\s+for\s+(.+?)\s+with\s+(?:the\s+)?e-?mail\s+([^\s,]+)`)
	emailFindRE  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	emailValidRE = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	sourceRE     = regexp.MustCompile(`(?i)\b(?:from|of)\s+(.+)$`)
	leadNameRE   = regexp.MustCompile(`(?i)\blead\b\s*(?:for\s+)?(.*)$`)
	trailConnRE  = regexp.MustCompile(`(?i)(?:with\s+(?:the\s+)?e-?mail|e-?mail|[:,])\s*$`)
)

// Lead extracts a lead from "lead for NAME with email EMAIL [from SOURCE]",
// falling back to any bare email address preceded by a name when the word
// "lead" is present.
func Lead(text string) (tools.CreateLeadInput, bool) {
	var in tools.CreateLeadInput
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "lead") {
		return in, false
	}

	var name, email, rest string
	if m := leadRE.FindStringSubmatchIndex(text); m != nil {
		name = text[m[2]:m[3]]
		email = strings.Trim(text[m[4]:m[5]], ".,;:")
		rest = text[m[1]:]
	} else {
		loc := emailFindRE.FindStringIndex(text)
		if loc == nil {
			return in, false
		}
		email = text[loc[0]:loc[1]]
		rest = text[loc[1]:]
		before := text[:loc[0]]
		for {
			trimmed := trailConnRE.ReplaceAllString(strings.TrimSpace(before), "")
			if trimmed == before {
				break
			}
			before = trimmed
		}
		nm := leadNameRE.FindStringSubmatch(before)
		if nm == nil {
			return in, false
		}
		name = nm[1]
	}

	name = strings.Trim(strings.TrimSpace(name), ".,;:\"'")
	if name == "" || strings.Contains(name, "@") || !emailValidRE.MatchString(email) {
		return in, false
	}
	in.Name = name
	in.Email = email
	if sm := sourceRE.FindStringSubmatch(rest); sm != nil {
		in.Source = strings.Trim(strings.TrimSpace(sm[1]), ".,;:!?\"'")
	}
	return in, true
}

var (
	completeVerbRE = regexp.MustCompile(`(?i)\b(?:mark|complete|completed|close|finish|done)\b`)
	followupNumRE  = regexp.MustCompile(`(?i)\bfollow[- ]?up\s*#?\s*([0-9]+)\b`)
)

// CompleteFollowup matches a completion verb co-occurring with
// "follow-up #N" in either order.
func CompleteFollowup(text string) (tools.CompleteFollowupInput, bool) {
	var in tools.CompleteFollowupInput
	if !completeVerbRE.MatchString(text) {
		return in, false
	}
	m := followupNumRE.FindStringSubmatch(text)
	if m == nil {
		return in, false
	}
	id := int64(0)
	for _, r := range m[1] {
		id = id*10 + int64(r-'0')
		if id > 1<<31 {
			return in, false
		}
	}
	if id == 0 {
		return in, false
	}
	in.FollowupID = id
	return in, true
}

var (
	questionWordRE = regexp.MustCompile(`(?i)^\s*(?:what|how|where|when|which|why|who|can|could|does|do|is|are|should)\b`)
	searchVerbRE   = regexp.MustCompile(`(?i)\b(?:search|look\s+up|lookup|find)\b`)
	spaceRE        = regexp.MustCompile(`\s+`)
)

var docKeywords = []string{
	"documentation", "docs", "doc", "guide", "manual",
	"product", "pricing", "plan", "feature", "policy", "faq",
}

func mentionsDocs(lower string) bool {
	for _, kw := range docKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DocSearch matches a question (interrogative opener or question mark) or an
// explicit search verb, combined with documentation-related vocabulary.
func DocSearch(text string) (tools.SearchDocsInput, bool) {
	var in tools.SearchDocsInput
	lower := strings.ToLower(text)
	if !mentionsDocs(lower) {
		return in, false
	}
	question := strings.Contains(text, "?") || questionWordRE.MatchString(text)
	if !question && !searchVerbRE.MatchString(text) {
		return in, false
	}
	query := strings.TrimSpace(spaceRE.ReplaceAllString(text, " "))
	if query == "" {
		return in, false
	}
	in.Question = query
	return in, true
}

var (
	displayVerbRE = regexp.MustCompile(`(?i)\b(?:show|list|view|display|see|query|what\s+are)\b`)
	bareNumberRE  = regexp.MustCompile(`\b([0-9]{1,2})\b`)
	notesWordRE   = regexp.MustCompile(`(?i)\bnotes?\b`)
	leadsWordRE   = regexp.MustCompile(`(?i)\bleads?\b`)
	fupsWordRE    = regexp.MustCompile(`(?i)\bfollow[- ]?ups?\b`)
	completedRE   = regexp.MustCompile(`(?i)\b(?:completed|done|closed|finished)\b`)
	pendingRE     = regexp.MustCompile(`(?i)\b(?:pending|open|outstanding)\b`)
)

func listLimit(text string) int {
	m := bareNumberRE.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n := int(m[1][0]-'0')
	if len(m[1]) == 2 {
		n = n*10 + int(m[1][1]-'0')
	}
	if n < 1 {
		return 0
	}
	if n > tools.MaxListLimit {
		return tools.MaxListLimit
	}
	return n
}

// List matches a display verb near an entity keyword and returns the
// corresponding listing tool, with an optional result-count limit and, for
// follow-ups, an optional status filter.
func List(text string) (Match, bool) {
	if !displayVerbRE.MatchString(text) {
		return Match{}, false
	}
	limit := listLimit(text)
	switch {
	case notesWordRE.MatchString(text):
		return Match{Tool: tools.ToolListNotes, Input: tools.ListNotesInput{Limit: limit}}, true
	case leadsWordRE.MatchString(text):
		return Match{Tool: tools.ToolListLeads, Input: tools.ListLeadsInput{Limit: limit}}, true
	case fupsWordRE.MatchString(text):
		in := tools.ListFollowupsInput{Limit: limit}
		switch {
		case completedRE.MatchString(text):
			in.Status = "completed"
		case pendingRE.MatchString(text):
			in.Status = "pending"
		}
		return Match{Tool: tools.ToolListFollowups, Input: in}, true
	}
	return Match{}, false
}
