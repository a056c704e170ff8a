package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parse converts raw LLM output into a validated Plan. Strategies are
// tried in order, stopping at the first success:
//
//  1. the whole text as strict JSON
//  2. the substring from the first '{' to the last '}' (tolerates
//     leading/trailing commentary)
//  3. a best-effort repair of that substring (code fences, smart
//     quotes, trailing commas, bare keys), then strict JSON again
//
// When every strategy fails the caller must substitute a deterministic
// fallback Plan.
func Parse(raw string, knownTool func(string) bool) (*Plan, error) {
	candidates := []string{raw}

	if slice, ok := braceSlice(raw); ok {
		candidates = append(candidates, slice, repair(slice))
	} else {
		candidates = append(candidates, repair(raw))
	}

	var lastErr error
	for _, candidate := range candidates {
		p, err := decode(candidate, knownTool)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
}

func decode(text string, knownTool func(string) bool) (*Plan, error) {
	dec := json.NewDecoder(strings.NewReader(text))

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if err := p.Validate(knownTool); err != nil {
		return nil, err
	}
	return &p, nil
}

// braceSlice returns the substring spanning the first '{' and the last
// '}' of text, when both exist in order.
func braceSlice(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

var (
	codeFenceRE    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRE      = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	smartQuoteRepl = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// repair applies best-effort fixes for the malformations models
// produce most often. It offers no correctness guarantee beyond being
// more permissive than strict parsing.
func repair(text string) string {
	if m := codeFenceRE.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = smartQuoteRepl.Replace(text)
	text = trailingComma.ReplaceAllString(text, "$1")
	text = bareKeyRE.ReplaceAllString(text, `$1"$2":`)
	return strings.TrimSpace(text)
}
