package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CalendarEntry is the payload shape the calendar sink accepts.
type CalendarEntry struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Start time.Time `json:"start,omitempty"`
}

// Calendar writes entries to the calendar service. Commit is
// non-idempotent: a retried commit would create a duplicate entry, so the
// executor runs publish stages bound to it at most once.
type Calendar struct {
	apiClient
	calendarID string
}

// NewCalendar creates a calendar-write sink.
func NewCalendar(baseURL, apiKey string) *Calendar {
	return &Calendar{
		apiClient:  newAPIClient("gcal", baseURL, apiKey, nil),
		calendarID: "primary",
	}
}

func (c *Calendar) Name() string { return c.name }

// Commit creates one calendar entry. It accepts a CalendarEntry or a plain
// string (first line becomes the title, the rest the body).
func (c *Calendar) Commit(ctx context.Context, payload any) error {
	entry, err := toEntry(payload)
	if err != nil {
		return err
	}

	body := map[string]any{
		"summary":     entry.Title,
		"description": entry.Body,
		"apiKey":      c.apiKey,
	}
	if !entry.Start.IsZero() {
		body["start"] = entry.Start.UTC().Format(time.RFC3339)
	}

	path := fmt.Sprintf("/calendars/%s/events", c.calendarID)
	return c.postJSON(ctx, path, body, nil)
}

func toEntry(payload any) (CalendarEntry, error) {
	switch p := payload.(type) {
	case CalendarEntry:
		return p, nil
	case *CalendarEntry:
		return *p, nil
	case string:
		title, rest, _ := strings.Cut(p, "\n")
		return CalendarEntry{Title: title, Body: rest}, nil
	default:
		return CalendarEntry{}, fmt.Errorf("unsupported calendar payload type %T", payload)
	}
}
