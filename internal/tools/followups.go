package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/google/jsonschema-go/jsonschema"
)

func scheduleFollowupTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"title": stringSchema("short description of the follow-up"),
		"due_at": &jsonschema.Schema{
			Type:        "string",
			Description: "when the follow-up is due, as an RFC 3339 timestamp; omit for no due date",
		},
		"notes": stringSchema("optional extra context"),
	}, "title")

	return define(ToolScheduleFollowup,
		"Schedule a follow-up task for the authenticated agent, optionally with a due date.",
		schema,
		func(ctx context.Context, tc *Context, in ScheduleFollowupInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &FollowupResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			title := strings.TrimSpace(in.Title)
			if title == "" {
				return nil, fmt.Errorf("%w: follow-up title is required", ErrInvalidInput)
			}
			var dueAt *time.Time
			if raw := strings.TrimSpace(in.DueAt); raw != "" {
				t, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return nil, fmt.Errorf("%w: due_at must be RFC 3339: %v", ErrInvalidInput, err)
				}
				dueAt = &t
			}
			fu, err := cfg.CRM.CreateFollowup(ctx, user.ID, title, dueAt, strings.TrimSpace(in.Notes))
			if err != nil {
				return nil, err
			}
			msg := fmt.Sprintf("scheduled follow-up #%d: %s", fu.ID, fu.Title)
			if fu.DueAt != nil {
				msg = fmt.Sprintf("%s, due %s", msg, fu.DueAt.Format("Mon 2 Jan 15:04"))
			}
			return &FollowupResult{outcome: success(msg), Followup: fu}, nil
		})
}

func listFollowupsTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"status": &jsonschema.Schema{
			Type:        "string",
			Description: "filter by status; defaults to pending",
			Enum:        []any{crm.StatusPending, crm.StatusCompleted},
		},
		"limit": limitSchema(),
	})

	return define(ToolListFollowups,
		"List the authenticated agent's follow-ups, soonest due first.",
		schema,
		func(ctx context.Context, tc *Context, in ListFollowupsInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &FollowupListResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			status := in.Status
			if status == "" {
				status = crm.StatusPending
			}
			fus, err := cfg.CRM.ListFollowups(ctx, user.ID, status, normalizeLimit(in.Limit))
			if err != nil {
				return nil, err
			}
			return &FollowupListResult{
				outcome:   success(fmt.Sprintf("found %d %s follow-ups", len(fus), status)),
				Status:    status,
				Followups: fus,
			}, nil
		})
}

func completeFollowupTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"followup_id": idSchema("the numeric id of the follow-up to mark completed"),
	}, "followup_id")

	return define(ToolCompleteFollowup,
		"Mark one of the authenticated agent's follow-ups as completed.",
		schema,
		func(ctx context.Context, tc *Context, in CompleteFollowupInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &FollowupResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			fu, err := cfg.CRM.CompleteFollowup(ctx, user.ID, in.FollowupID)
			if err != nil {
				if errors.Is(err, crm.ErrNotFound) {
					return &FollowupResult{
						outcome: failure(fmt.Sprintf("follow-up #%d does not exist or is not yours", in.FollowupID)),
					}, nil
				}
				return nil, err
			}
			return &FollowupResult{
				outcome:  success(fmt.Sprintf("completed follow-up #%d: %s", fu.ID, fu.Title)),
				Followup: fu,
			}, nil
		})
}
