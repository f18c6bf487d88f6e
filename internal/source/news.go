package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/record"
)

// News fetches background articles from a news/search provider. News
// records carry no provider ID; their identity is the link.
type News struct {
	apiClient
	maxResults int
}

// NewNews creates a news-search adapter.
func NewNews(baseURL, apiKey string) *News {
	return &News{
		apiClient:  newAPIClient("news", baseURL, apiKey, nil),
		maxResults: 10,
	}
}

func (n *News) Name() string { return n.name }

type newsResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"published_at"`
}

type newsResponse struct {
	Results []newsResult `json:"results"`
}

// Fetch returns one record per search result for the query text.
func (n *News) Fetch(ctx context.Context, q adapter.Query) ([]record.Record, error) {
	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("q", q.Text)
	params.Set("num", strconv.Itoa(n.maxResults))

	var resp newsResponse
	if err := n.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, len(resp.Results))
	for _, res := range resp.Results {
		r := record.Record{
			Source:      n.name,
			DisplayName: res.Title,
			Attributes: map[string]string{
				"link":    res.Link,
				"snippet": res.Snippet,
			},
		}
		if ts, err := time.Parse(time.RFC3339, res.PublishedAt); err == nil {
			r.Timestamp = ts
		}
		recs = append(recs, r)
	}
	return recs, nil
}
