package source

import (
	"context"
	"net/url"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/record"
)

// EconCalendar fetches scheduled macroeconomic events (rate decisions, CPI
// releases, payrolls) from an economic-calendar provider.
type EconCalendar struct {
	apiClient
}

// NewEconCalendar creates an economic-calendar adapter.
func NewEconCalendar(baseURL, apiKey string) *EconCalendar {
	return &EconCalendar{apiClient: newAPIClient("econ_calendar", baseURL, apiKey, nil)}
}

func (c *EconCalendar) Name() string { return c.name }

type econEvent struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Country string `json:"country"`
	Impact  string `json:"impact"`
	Date    string `json:"date"`
}

// Fetch returns one record per calendar event in the query window.
func (c *EconCalendar) Fetch(ctx context.Context, q adapter.Query) ([]record.Record, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(apiTimeFormat))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(apiTimeFormat))
	}
	if q.Text != "" {
		params.Set("q", q.Text)
	}

	var events []econEvent
	if err := c.getJSON(ctx, "/events", params, &events); err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, len(events))
	for _, ev := range events {
		r := record.Record{
			Source:      c.name,
			SourceID:    ev.ID,
			DisplayName: ev.Title,
			Attributes:  map[string]string{},
		}
		if ev.Country != "" {
			r.Attributes["country"] = ev.Country
		}
		if ev.Impact != "" {
			r.Attributes["impact"] = ev.Impact
		}
		if ts, err := time.Parse(time.RFC3339, ev.Date); err == nil {
			r.Timestamp = ts
		}
		recs = append(recs, r)
	}
	return recs, nil
}
