package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/JerePrograma/laburen-agent/internal/session"
	"github.com/google/jsonschema-go/jsonschema"
)

const notAuthenticatedMsg = "you are not authenticated; verify your name and passcode first"

// identity returns the authenticated agent, or nil.
func identity(tc *Context) *session.Identity {
	if tc == nil || tc.Session == nil {
		return nil
	}
	return tc.Session.User
}

func verifyPasscodeTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"name":     stringSchema("the agent's name as registered in the CRM"),
		"passcode": stringSchema("the agent's numeric passcode"),
	}, "name", "passcode")

	return define(ToolVerifyPasscode,
		"Authenticate an agent by name and passcode. Required before any tool that writes or reads agent-owned data.",
		schema,
		func(ctx context.Context, tc *Context, in VerifyPasscodeInput) (Result, error) {
			name := strings.TrimSpace(in.Name)
			passcode := strings.TrimSpace(in.Passcode)
			if name == "" || passcode == "" {
				return nil, fmt.Errorf("%w: name and passcode are required", ErrInvalidInput)
			}
			agent, err := cfg.CRM.Authenticate(ctx, name, passcode)
			if err != nil {
				if errors.Is(err, crm.ErrInvalidCredentials) {
					return &AuthResult{outcome: failure("the name or passcode is incorrect")}, nil
				}
				return nil, err
			}
			id := &session.Identity{ID: agent.ID, Name: agent.Name}
			if tc != nil && tc.Session != nil {
				tc.Session.User = id
			}
			return &AuthResult{
				outcome: success(fmt.Sprintf("authenticated as %s", agent.Name)),
				Agent:   id,
			}, nil
		})
}
