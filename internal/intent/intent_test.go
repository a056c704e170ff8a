package intent

import (
	"testing"
	"time"

	"github.com/JerePrograma/laburen-agent/internal/tools"
)

func TestCredentials(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   tools.VerifyPasscodeInput
		wantOK bool
	}{
		{
			name:   "name and passcode",
			text:   "I am Carla, my passcode is 123456",
			want:   tools.VerifyPasscodeInput{Name: "Carla", Passcode: "123456"},
			wantOK: true,
		},
		{
			name:   "multi word name with code keyword",
			text:   "my name is Ana Torres and the code is 9988",
			want:   tools.VerifyPasscodeInput{Name: "Ana Torres", Passcode: "9988"},
			wantOK: true,
		},
		{name: "name alone declines", text: "I am Carla"},
		{name: "passcode alone declines", text: "passcode 123456"},
		{name: "unrelated text declines", text: "how is the weather today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Credentials(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNote(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "save a note that",
			text:   "save a note that the demo went well",
			want:   "the demo went well",
			wantOK: true,
		},
		{
			name:   "record with colon",
			text:   "please record a note: call back on monday",
			want:   "call back on monday",
			wantOK: true,
		},
		{name: "too short body declines", text: "save a note hi"},
		{name: "no verb declines", text: "the note about pricing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Note(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Text != tt.want {
				t.Fatalf("body = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestLead(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   tools.CreateLeadInput
		wantOK bool
	}{
		{
			name: "canonical phrase with source",
			text: "create a lead for Ana Torres with email ana@example.com from referral",
			want: tools.CreateLeadInput{Name: "Ana Torres", Email: "ana@example.com", Source: "referral"},
			wantOK: true,
		},
		{
			name:   "bare email fallback",
			text:   "new lead: Ana Torres ana@example.com",
			want:   tools.CreateLeadInput{Name: "Ana Torres", Email: "ana@example.com"},
			wantOK: true,
		},
		{name: "invalid email declines", text: "lead for Bob with email not-an-email"},
		{name: "no lead keyword declines", text: "contact ana@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lead(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompleteFollowup(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID int64
		wantOK bool
	}{
		{name: "mark with hash", text: "mark follow-up #12 as done", wantID: 12, wantOK: true},
		{name: "verb after reference", text: "follow-up 7 is complete", wantID: 7, wantOK: true},
		{name: "no number declines", text: "complete the follow-up"},
		{name: "no verb declines", text: "follow-up #3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CompleteFollowup(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.FollowupID != tt.wantID {
				t.Fatalf("id = %d, want %d", got.FollowupID, tt.wantID)
			}
		})
	}
}

func TestScheduleFollowup(t *testing.T) {
	now := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		text      string
		wantDue   string
		wantTitle string
		wantOK    bool
	}{
		{
			name:      "tomorrow morning",
			text:      "schedule a follow-up to call Ana tomorrow at 10am",
			wantDue:   "2026-09-02T10:00:00Z",
			wantTitle: "call Ana",
			wantOK:    true,
		},
		{
			name:      "day after tomorrow with minutes",
			text:      "remind me to send the proposal day after tomorrow at 9:30",
			wantDue:   "2026-09-03T09:30:00Z",
			wantTitle: "send the proposal",
			wantOK:    true,
		},
		{
			name:      "absolute day and month",
			text:      "schedule demo with Ana on 15 september at 3pm",
			wantDue:   "2026-09-15T15:00:00Z",
			wantTitle: "demo with Ana",
			wantOK:    true,
		},
		{
			name:      "past absolute date rolls to next year",
			text:      "schedule review on 1 may at 10am",
			wantDue:   "2027-05-01T10:00:00Z",
			wantTitle: "review",
			wantOK:    true,
		},
		{
			name:      "nothing left becomes generic title",
			text:      "schedule a follow-up tomorrow at 8",
			wantDue:   "2026-09-02T08:00:00Z",
			wantTitle: "Follow-up",
			wantOK:    true,
		},
		{name: "date without scheduling cue declines", text: "tomorrow at 10 works for me"},
		{name: "cue without a time declines", text: "schedule a follow-up with Ana"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScheduleFollowup(tt.text, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.DueAt != tt.wantDue {
				t.Errorf("due = %s, want %s", got.DueAt, tt.wantDue)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
		})
	}
}

func TestDocSearch(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantOK bool
	}{
		{name: "question with product keyword", text: "what plans does the product have?", wantOK: true},
		{name: "search verb with docs keyword", text: "search the docs for pricing", wantOK: true},
		{name: "question without doc vocabulary", text: "how are you today?"},
		{name: "doc keyword without question or verb", text: "the documentation is long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DocSearch(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Question == "" {
				t.Fatal("empty query on match")
			}
		})
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantTool string
		wantIn   any
		wantOK   bool
	}{
		{
			name:     "notes without limit",
			text:     "show my notes",
			wantTool: tools.ToolListNotes,
			wantIn:   tools.ListNotesInput{},
			wantOK:   true,
		},
		{
			name:     "leads with limit",
			text:     "list my last 5 leads",
			wantTool: tools.ToolListLeads,
			wantIn:   tools.ListLeadsInput{Limit: 5},
			wantOK:   true,
		},
		{
			name:     "pending followups",
			text:     "show pending follow-ups",
			wantTool: tools.ToolListFollowups,
			wantIn:   tools.ListFollowupsInput{Status: "pending"},
			wantOK:   true,
		},
		{
			name:     "completed followups with limit",
			text:     "view 20 completed follow-ups",
			wantTool: tools.ToolListFollowups,
			wantIn:   tools.ListFollowupsInput{Status: "completed", Limit: 20},
			wantOK:   true,
		},
		{name: "no entity declines", text: "show me everything"},
		{name: "entity without verb declines", text: "my notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := List(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Tool != tt.wantTool {
				t.Errorf("tool = %s, want %s", got.Tool, tt.wantTool)
			}
			if got.Input != tt.wantIn {
				t.Errorf("input = %+v, want %+v", got.Input, tt.wantIn)
			}
		})
	}
}
