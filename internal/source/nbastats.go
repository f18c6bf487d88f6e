package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/record"
)

// NBAStats fetches upcoming games and rosters from the NBA stats provider.
// By default Fetch returns game records; set Params["entity"] = "players"
// for roster records instead.
type NBAStats struct {
	apiClient
}

// NewNBAStats creates an NBA stats adapter.
func NewNBAStats(baseURL, apiKey string) *NBAStats {
	return &NBAStats{apiClient: newAPIClient("nba_stats", baseURL, apiKey, nil)}
}

func (c *NBAStats) Name() string { return c.name }

type nbaTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type nbaPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team string `json:"team_id"`
}

type nbaGame struct {
	GameID    string      `json:"game_id"`
	HomeTeam  nbaTeam     `json:"home_team"`
	AwayTeam  nbaTeam     `json:"away_team"`
	StartTime string      `json:"start_time"`
	Players   []nbaPlayer `json:"players,omitempty"`
}

type scoreboardResponse struct {
	Games []nbaGame `json:"games"`
}

// Fetch returns game records (one per upcoming game) or player records when
// the query asks for the "players" entity.
func (c *NBAStats) Fetch(ctx context.Context, q adapter.Query) ([]record.Record, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(apiTimeFormat))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(apiTimeFormat))
	}

	var resp scoreboardResponse
	if err := c.getJSON(ctx, "/scoreboard", params, &resp); err != nil {
		return nil, err
	}

	if q.Params["entity"] == "players" {
		return playerRecords(c.name, resp.Games), nil
	}
	return gameRecords(c.name, resp.Games), nil
}

func gameRecords(source string, games []nbaGame) []record.Record {
	recs := make([]record.Record, 0, len(games))
	for _, g := range games {
		r := record.Record{
			Source:      source,
			SourceID:    g.GameID,
			DisplayName: fmt.Sprintf("%s vs %s", g.HomeTeam.Name, g.AwayTeam.Name),
			Attributes: map[string]string{
				"home_team": g.HomeTeam.Name,
				"away_team": g.AwayTeam.Name,
			},
		}
		if ts, err := time.Parse(time.RFC3339, g.StartTime); err == nil {
			r.Timestamp = ts
		}
		recs = append(recs, r)
	}
	return recs
}

func playerRecords(source string, games []nbaGame) []record.Record {
	var recs []record.Record
	for _, g := range games {
		teamName := map[string]string{
			g.HomeTeam.ID: g.HomeTeam.Name,
			g.AwayTeam.ID: g.AwayTeam.Name,
		}
		for _, p := range g.Players {
			recs = append(recs, record.Record{
				Source:      source,
				SourceID:    p.ID,
				DisplayName: p.Name,
				Attributes: map[string]string{
					"team":    teamName[p.Team],
					"game_id": g.GameID,
				},
			})
		}
	}
	return recs
}

// PlayerStatLines fetches recent stat lines for the given player IDs and
// returns them as display-ready note records, one per player.
func (c *NBAStats) PlayerStatLines(ctx context.Context, playerIDs []string) ([]record.Record, error) {
	var recs []record.Record
	for _, id := range playerIDs {
		params := url.Values{}
		params.Set("apiKey", c.apiKey)

		var resp struct {
			PlayerID string `json:"player_id"`
			Name     string `json:"name"`
			Line     string `json:"line"`
		}
		if err := c.getJSON(ctx, "/players/"+url.PathEscape(id)+"/stats", params, &resp); err != nil {
			return nil, err
		}
		recs = append(recs, record.Record{
			Source:      c.name,
			SourceID:    resp.PlayerID,
			DisplayName: resp.Name,
			Attributes:  map[string]string{"snippet": resp.Line},
		})
	}
	return recs, nil
}
