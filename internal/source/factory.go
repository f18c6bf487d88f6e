package source

import (
	"fmt"
	"os"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/config"
)

// New builds the adapter for a configured source. Credentials are resolved
// from the environment here, at the edge — the core never sees key names.
// Sources with a configured quota are wrapped in a client-side rate
// limiter.
func New(cfg config.Source) (adapter.Adapter, error) {
	apiKey, err := resolveKey(cfg)
	if err != nil {
		return nil, err
	}

	var a adapter.Adapter
	switch cfg.Kind {
	case "econ_calendar":
		a = NewEconCalendar(cfg.BaseURL, apiKey)
	case "news":
		a = NewNews(cfg.BaseURL, apiKey)
	case "nba_stats":
		a = NewNBAStats(cfg.BaseURL, apiKey)
	case "odds":
		a = NewOdds(cfg.BaseURL, apiKey)
	default:
		return nil, fmt.Errorf("no fetch adapter for source kind %q", cfg.Kind)
	}

	if cfg.RequestsPerMinute > 0 {
		a = adapter.Limit(a, cfg.RequestsPerMinute, time.Minute)
	}
	return a, nil
}

// NewCommitter builds the committer for a configured sink source.
func NewCommitter(cfg config.Source) (adapter.Committer, error) {
	apiKey, err := resolveKey(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case "gcal":
		return NewCalendar(cfg.BaseURL, apiKey), nil
	default:
		return nil, fmt.Errorf("no committer for source kind %q", cfg.Kind)
	}
}

func resolveKey(cfg config.Source) (string, error) {
	if cfg.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", cfg.APIKeyEnv)
	}
	return key, nil
}
