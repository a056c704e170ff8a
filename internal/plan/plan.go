// Package plan turns raw LLM output into a validated Plan.
//
// A Plan is a tagged union: either a tool call or a direct response,
// never both, never neither. The free-text thought is transparency
// only and never drives control flow.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action discriminates the two Plan arms.
type Action string

const (
	ActionTool    Action = "tool"
	ActionRespond Action = "respond"
)

// Sentinel errors. Check with errors.Is().
var (
	// ErrUnparseable indicates no parse strategy produced valid JSON.
	ErrUnparseable = errors.New("unparseable plan")

	// ErrInvalidPlan indicates the JSON parsed but violates the
	// tagged-union contract.
	ErrInvalidPlan = errors.New("invalid plan")
)

// ToolCall references a registry tool by name with its untyped input
// payload. The payload is validated later, at the tool boundary.
type ToolCall struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Plan is the structured decision parsed from the model's output.
type Plan struct {
	Thought       string    `json:"thought"`
	Action        Action    `json:"action"`
	Tool          *ToolCall `json:"tool,omitempty"`
	FinalResponse string    `json:"final_response,omitempty"`
}

// Validate enforces the tagged-union invariant. knownTool restricts
// tool references to the registry's catalogue; nil skips that check.
func (p *Plan) Validate(knownTool func(string) bool) error {
	switch p.Action {
	case ActionTool:
		if p.Tool == nil || p.Tool.Name == "" {
			return fmt.Errorf("%w: action %q requires a tool reference", ErrInvalidPlan, ActionTool)
		}
		if strings.TrimSpace(p.FinalResponse) != "" {
			return fmt.Errorf("%w: action %q must not carry a final response", ErrInvalidPlan, ActionTool)
		}
		if knownTool != nil && !knownTool(p.Tool.Name) {
			return fmt.Errorf("%w: unknown tool %q", ErrInvalidPlan, p.Tool.Name)
		}
	case ActionRespond:
		if strings.TrimSpace(p.FinalResponse) == "" {
			return fmt.Errorf("%w: action %q requires a non-empty final response", ErrInvalidPlan, ActionRespond)
		}
		if p.Tool != nil {
			return fmt.Errorf("%w: action %q must not carry a tool reference", ErrInvalidPlan, ActionRespond)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidPlan, p.Action)
	}
	return nil
}

// Fallback builds the deterministic substitute Plan used when the
// model's output cannot be parsed or the provider call failed.
func Fallback(text string) *Plan {
	return &Plan{
		Thought:       "falling back to a direct reply",
		Action:        ActionRespond,
		FinalResponse: text,
	}
}
