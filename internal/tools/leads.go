package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

func createLeadTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"name":   stringSchema("the prospect's full name"),
		"email":  stringSchema("the prospect's email address"),
		"source": stringSchema("where the lead came from, e.g. referral, website"),
	}, "name", "email")

	return define(ToolCreateLead,
		"Register a new sales lead with a name, an email address and an optional source.",
		schema,
		func(ctx context.Context, tc *Context, in CreateLeadInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &LeadResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			name := strings.TrimSpace(in.Name)
			email := strings.TrimSpace(in.Email)
			if name == "" {
				return nil, fmt.Errorf("%w: lead name is required", ErrInvalidInput)
			}
			if !emailRE.MatchString(email) {
				return nil, fmt.Errorf("%w: %q is not a valid email address", ErrInvalidInput, email)
			}
			createdBy := user.ID
			lead, err := cfg.CRM.CreateLead(ctx, name, email, strings.TrimSpace(in.Source), &createdBy)
			if err != nil {
				return nil, err
			}
			return &LeadResult{
				outcome: success(fmt.Sprintf("created lead #%d for %s <%s>", lead.ID, lead.Name, lead.Email)),
				Lead:    lead,
			}, nil
		})
}

func listLeadsTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"limit": limitSchema(),
	})

	return define(ToolListLeads,
		"List the most recently created leads, newest first.",
		schema,
		func(ctx context.Context, tc *Context, in ListLeadsInput) (Result, error) {
			if identity(tc) == nil {
				return &LeadListResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			leads, err := cfg.CRM.ListLeads(ctx, normalizeLimit(in.Limit))
			if err != nil {
				return nil, err
			}
			return &LeadListResult{
				outcome: success(fmt.Sprintf("found %d leads", len(leads))),
				Leads:   leads,
			}, nil
		})
}
