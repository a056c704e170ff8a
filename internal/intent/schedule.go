package intent

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JerePrograma/laburen-agent/internal/tools"
)

var (
	scheduleCueRE = regexp.MustCompile(`(?i)\b(?:schedule|remind|reminder|follow[- ]?up)\b`)

	relativeRE = regexp.MustCompile(`(?i)\b(today|tomorrow|day\s+after\s+tomorrow)\b(?:\s+at)?\s+([0-9]{1,2})(?::([0-9]{2}))?\s*(am|pm)?\b`)

	monthNames = `january|february|march|april|may|june|july|august|september|october|november|december`

	absDayMonthRE = regexp.MustCompile(`(?i)\b(?:on\s+)?([0-9]{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b(?:\s+at)?\s+([0-9]{1,2})(?::([0-9]{2}))?\s*(am|pm)?\b`)
	absMonthDayRE = regexp.MustCompile(`(?i)\b(?:on\s+)?(` + monthNames + `)\s+([0-9]{1,2})(?:st|nd|rd|th)?\b(?:\s+at)?\s+([0-9]{1,2})(?::([0-9]{2}))?\s*(am|pm)?\b`)

	scheduleVerbRE = regexp.MustCompile(`(?i)\b(?:please|schedule|set\s+up|set|create|add|remind\s+me\s+to|remind\s+me|remind|reminder)\b`)
	followupRefRE  = regexp.MustCompile(`(?i)\b(?:a|an|the)?\s*follow[- ]?up\b`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

func clockTime(hourStr, minStr, meridiem string) (hour, minute int, ok bool) {
	for _, r := range hourStr {
		hour = hour*10 + int(r-'0')
	}
	for _, r := range minStr {
		minute = minute*10 + int(r-'0')
	}
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ScheduleFollowup matches scheduling phrases carrying a relative date
// ("tomorrow at 10am") or an absolute day-and-month date with an hour, and
// derives a task title from the rest of the sentence. now anchors relative
// dates and supplies the location and the year for absolute ones.
func ScheduleFollowup(text string, now time.Time) (tools.ScheduleFollowupInput, bool) {
	var in tools.ScheduleFollowupInput
	if !scheduleCueRE.MatchString(text) {
		return in, false
	}

	var due time.Time
	var loc []int

	if m := relativeRE.FindStringSubmatchIndex(text); m != nil {
		word := strings.ToLower(spaceRE.ReplaceAllString(text[m[2]:m[3]], " "))
		days := 0
		switch word {
		case "tomorrow":
			days = 1
		case "day after tomorrow":
			days = 2
		}
		hour, minute, ok := clockTime(text[m[4]:m[5]], sub(text, m, 3), sub(text, m, 4))
		if !ok {
			return in, false
		}
		base := now.AddDate(0, 0, days)
		due = time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())
		loc = m[:2]
	} else if m := absDayMonthRE.FindStringSubmatchIndex(text); m != nil {
		due2, ok := absoluteDate(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]], sub(text, m, 4), sub(text, m, 5), now)
		if !ok {
			return in, false
		}
		due = due2
		loc = m[:2]
	} else if m := absMonthDayRE.FindStringSubmatchIndex(text); m != nil {
		due2, ok := absoluteDate(text[m[4]:m[5]], text[m[2]:m[3]], text[m[6]:m[7]], sub(text, m, 4), sub(text, m, 5), now)
		if !ok {
			return in, false
		}
		due = due2
		loc = m[:2]
	} else {
		return in, false
	}

	in.Title = deriveTitle(text[:loc[0]] + " " + text[loc[1]:])
	in.DueAt = due.Format(time.RFC3339)
	return in, true
}

// sub returns the n-th submatch of an index slice, or "" when it did not
// participate in the match.
func sub(text string, m []int, n int) string {
	lo, hi := m[2*n], m[2*n+1]
	if lo < 0 {
		return ""
	}
	return text[lo:hi]
}

func absoluteDate(dayStr, monthStr, hourStr, minStr, meridiem string, now time.Time) (time.Time, bool) {
	day := 0
	for _, r := range dayStr {
		day = day*10 + int(r-'0')
	}
	month, ok := months[strings.ToLower(monthStr)]
	if !ok || day < 1 || day > 31 {
		return time.Time{}, false
	}
	hour, minute, ok := clockTime(hourStr, minStr, meridiem)
	if !ok {
		return time.Time{}, false
	}
	due := time.Date(now.Year(), month, day, hour, minute, 0, 0, now.Location())
	if due.Before(now) {
		due = due.AddDate(1, 0, 0)
	}
	return due, true
}

var leadingFillers = map[string]bool{
	"to": true, "for": true, "about": true, "with": true,
	"a": true, "an": true, "the": true, "me": true, "my": true,
}

func deriveTitle(rest string) string {
	rest = scheduleVerbRE.ReplaceAllString(rest, " ")
	rest = followupRefRE.ReplaceAllString(rest, " ")
	fields := strings.Fields(strings.Trim(rest, " \t.,:;!-"))
	for len(fields) > 0 && leadingFillers[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	title := strings.Trim(strings.Join(fields, " "), " .,:;!-")
	if utf8.RuneCountInString(title) < 3 {
		return "Follow-up"
	}
	return title
}
