package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/record"
)

// playerMarkets are the market keys requested for player-entity fetches.
// Player markets carry the player name in the outcome description, which is
// what entity resolution matches against.
var playerMarkets = []string{
	"player_points", "player_rebounds", "player_assists",
	"player_threes", "player_blocks", "player_steals",
	"player_points_rebounds_assists", "player_double_double",
}

// Odds fetches betting events and markets from the odds provider. By
// default Fetch returns one record per bet event; set Params["entity"] =
// "players" and Params["event"] = <event id> for the player names offered
// in that event's player markets.
type Odds struct {
	apiClient
	sport string
}

// NewOdds creates an odds-feed adapter for NBA basketball.
func NewOdds(baseURL, apiKey string) *Odds {
	return &Odds{
		apiClient: newAPIClient("odds", baseURL, apiKey, nil),
		sport:     "basketball_nba",
	}
}

func (c *Odds) Name() string { return c.name }

type oddsEvent struct {
	ID           string `json:"id"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	CommenceTime string `json:"commence_time"`
}

type oddsOutcome struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Point       float64 `json:"point,omitempty"`
	Description string  `json:"description,omitempty"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsBookmaker struct {
	Key     string       `json:"key"`
	Markets []oddsMarket `json:"markets"`
}

type oddsEventDetail struct {
	oddsEvent
	Bookmakers []oddsBookmaker `json:"bookmakers"`
}

// Fetch returns bet-event records or, for the "players" entity, one record
// per player offered in the named event's player markets.
func (c *Odds) Fetch(ctx context.Context, q adapter.Query) ([]record.Record, error) {
	if q.Params["entity"] == "players" {
		eventID := q.Params["event"]
		if eventID == "" {
			return nil, &adapter.Error{
				Kind:   adapter.KindBadRequest,
				Op:     "player-markets",
				Source: c.name,
				Err:    fmt.Errorf("player entity requires an event param"),
			}
		}
		return c.fetchPlayers(ctx, eventID)
	}
	return c.fetchEvents(ctx, q)
}

func (c *Odds) fetchEvents(ctx context.Context, q adapter.Query) ([]record.Record, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if !q.From.IsZero() {
		params.Set("commenceTimeFrom", q.From.UTC().Format(apiTimeFormat))
	}
	if !q.To.IsZero() {
		params.Set("commenceTimeTo", q.To.UTC().Format(apiTimeFormat))
	}

	var events []oddsEvent
	path := fmt.Sprintf("/sports/%s/events", c.sport)
	if err := c.getJSON(ctx, path, params, &events); err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, len(events))
	for _, ev := range events {
		r := record.Record{
			Source:      c.name,
			SourceID:    ev.ID,
			DisplayName: fmt.Sprintf("%s vs %s", ev.HomeTeam, ev.AwayTeam),
			Attributes: map[string]string{
				"home_team": ev.HomeTeam,
				"away_team": ev.AwayTeam,
			},
		}
		if ts, err := time.Parse(time.RFC3339, ev.CommenceTime); err == nil {
			r.Timestamp = ts
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// fetchPlayers pulls the event's player markets and emits one record per
// distinct player description, with the markets offering that player listed
// as an attribute.
func (c *Odds) fetchPlayers(ctx context.Context, eventID string) ([]record.Record, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("markets", strings.Join(playerMarkets, ","))

	var detail oddsEventDetail
	path := fmt.Sprintf("/sports/%s/events/%s/odds", c.sport, url.PathEscape(eventID))
	if err := c.getJSON(ctx, path, params, &detail); err != nil {
		return nil, err
	}
	if len(detail.Bookmakers) == 0 {
		return nil, nil
	}

	// One bookmaker is enough for identity; prices differ, names don't.
	markets := make(map[string][]string)
	ts, _ := time.Parse(time.RFC3339, detail.CommenceTime)
	for _, m := range detail.Bookmakers[0].Markets {
		for _, o := range m.Outcomes {
			name := o.Description
			if name == "" {
				name = o.Name
			}
			if name == "" {
				continue
			}
			markets[name] = append(markets[name], m.Key)
		}
	}

	recs := make([]record.Record, 0, len(markets))
	for name, keys := range markets {
		recs = append(recs, record.Record{
			Source:      c.name,
			DisplayName: name,
			Timestamp:   ts,
			Attributes: map[string]string{
				"event_id": detail.ID,
				"markets":  strings.Join(dedupe(keys), ","),
			},
		})
	}
	return recs, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
