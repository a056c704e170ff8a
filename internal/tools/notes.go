package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JerePrograma/laburen-agent/internal/crm"
	"github.com/google/jsonschema-go/jsonschema"
)

func recordNoteTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"text": stringSchema("the note body to record"),
	}, "text")

	return define(ToolRecordNote,
		"Save a free-form note for the authenticated agent.",
		schema,
		func(ctx context.Context, tc *Context, in RecordNoteInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &NoteResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			text := strings.TrimSpace(in.Text)
			if text == "" {
				return nil, fmt.Errorf("%w: note text is required", ErrInvalidInput)
			}
			note, err := cfg.CRM.CreateNote(ctx, user.ID, text)
			if err != nil {
				return nil, err
			}
			return &NoteResult{
				outcome: success(fmt.Sprintf("saved note #%d", note.ID)),
				Note:    note,
			}, nil
		})
}

func listNotesTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"limit": limitSchema(),
	})

	return define(ToolListNotes,
		"List the authenticated agent's notes, newest first.",
		schema,
		func(ctx context.Context, tc *Context, in ListNotesInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &NoteListResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			notes, err := cfg.CRM.ListNotes(ctx, user.ID, normalizeLimit(in.Limit))
			if err != nil {
				return nil, err
			}
			return &NoteListResult{
				outcome: success(fmt.Sprintf("found %d notes", len(notes))),
				Notes:   notes,
			}, nil
		})
}

func deleteNoteTool(cfg Config) (*Definition, error) {
	schema := objectSchema(map[string]*jsonschema.Schema{
		"note_id": idSchema("the numeric id of the note to delete"),
	}, "note_id")

	return define(ToolDeleteNote,
		"Delete one of the authenticated agent's notes by id. Notes owned by other agents cannot be deleted.",
		schema,
		func(ctx context.Context, tc *Context, in DeleteNoteInput) (Result, error) {
			user := identity(tc)
			if user == nil {
				return &NoteDeletedResult{outcome: failure(notAuthenticatedMsg)}, nil
			}
			if err := cfg.CRM.DeleteNote(ctx, user.ID, in.NoteID); err != nil {
				if errors.Is(err, crm.ErrNotFound) {
					return &NoteDeletedResult{
						outcome: failure(fmt.Sprintf("note #%d does not exist or is not yours", in.NoteID)),
						NoteID:  in.NoteID,
					}, nil
				}
				return nil, err
			}
			return &NoteDeletedResult{
				outcome: success(fmt.Sprintf("deleted note #%d", in.NoteID)),
				NoteID:  in.NoteID,
			}, nil
		})
}
