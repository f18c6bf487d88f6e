// Package resolve matches records describing the same real-world entity
// across independent sources. Matching is deterministic and config-driven:
// callers calibrate weights and thresholds per entity type, since economic
// event titles and player names have very different name-similarity
// reliability.
package resolve

import (
	"fmt"
	"sort"
	"time"

	"github.com/lucaskeller/crossfeed/internal/record"
)

// Config holds the scoring weights and acceptance thresholds for one
// resolution pass. Zero values are invalid; start from DefaultConfig.
type Config struct {
	NameWeight float64 `yaml:"name_weight"`
	TimeWeight float64 `yaml:"time_weight"`
	AttrWeight float64 `yaml:"attr_weight"`

	// TimeWindow is the span beyond which temporal proximity scores zero.
	TimeWindow time.Duration `yaml:"time_window"`

	// MinScore is the floor below which candidates are discarded outright —
	// never reported, even as low-confidence matches.
	MinScore float64 `yaml:"min_score"`

	// AcceptThreshold is the minimum composite score for a match.
	AcceptThreshold float64 `yaml:"accept_threshold"`

	// SeparationMargin is the minimum lead the top candidate must hold over
	// the runner-up. Two candidates inside the margin are ambiguous.
	SeparationMargin float64 `yaml:"separation_margin"`

	// Aliases expands provider shorthand during name tokenization
	// (e.g. "lal" → "los angeles lakers").
	Aliases record.Aliases `yaml:"aliases,omitempty"`
}

// DefaultConfig returns the baseline calibration: name similarity dominates,
// temporal proximity and attribute overlap refine.
func DefaultConfig() Config {
	return Config{
		NameWeight:       0.5,
		TimeWeight:       0.3,
		AttrWeight:       0.2,
		TimeWindow:       36 * time.Hour,
		MinScore:         0.3,
		AcceptThreshold:  0.75,
		SeparationMargin: 0.15,
	}
}

// Validate checks the config for values that would make scoring degenerate.
func (c Config) Validate() error {
	if c.NameWeight < 0 || c.TimeWeight < 0 || c.AttrWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.NameWeight+c.TimeWeight+c.AttrWeight == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	if c.TimeWindow <= 0 {
		return fmt.Errorf("time_window must be positive")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score %v out of range [0,1]", c.MinScore)
	}
	if c.AcceptThreshold < c.MinScore || c.AcceptThreshold > 1 {
		return fmt.Errorf("accept_threshold %v out of range [min_score,1]", c.AcceptThreshold)
	}
	if c.SeparationMargin < 0 || c.SeparationMargin > 1 {
		return fmt.Errorf("separation_margin %v out of range [0,1]", c.SeparationMargin)
	}
	return nil
}

// Resolve matches primary against candidates from another source.
//
// Candidates scoring below the floor are discarded. Of the survivors, the
// top candidate is accepted only when it clears the threshold and leads the
// runner-up by the separation margin; anything less is ambiguous and is
// surfaced as such — auto-accepting the top score here would silently
// corrupt downstream analysis.
func Resolve(primary record.Record, candidates []record.Record, cfg Config) record.ResolvedEntity {
	scored := make([]record.MatchCandidate, 0, len(candidates))
	for _, cand := range candidates {
		mc := Score(primary, cand, cfg)
		if mc.Score < cfg.MinScore {
			continue
		}
		scored = append(scored, mc)
	}

	// Rank descending. On exact score ties, stronger provenance (a
	// provider-local ID) ranks first.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.SourceID != "" && scored[j].Record.SourceID == ""
	})

	entity := record.ResolvedEntity{
		CanonicalName: primary.DisplayName,
		Records:       map[string]record.Record{primary.Source: primary},
	}

	if len(scored) == 0 {
		entity.Status = record.StatusUnmatched
		return entity
	}

	top := scored[0]
	if top.Score >= cfg.AcceptThreshold && clearsMargin(scored, cfg.SeparationMargin) {
		entity.Status = record.StatusMatched
		entity.Records[top.Record.Source] = top.Record
		entity.Score = top.Score
		return entity
	}

	entity.Status = record.StatusAmbiguous
	entity.Score = top.Score
	entity.Candidates = scored
	return entity
}

// clearsMargin reports whether the ranked top candidate leads the runner-up
// by at least margin. An exact tie where only the top candidate carries a
// source ID is treated as separated: provenance breaks the tie before we
// fall back to ambiguous.
func clearsMargin(ranked []record.MatchCandidate, margin float64) bool {
	if len(ranked) < 2 {
		return true
	}
	top, runner := ranked[0], ranked[1]
	if top.Score-runner.Score >= margin {
		return true
	}
	if top.Score == runner.Score && top.Record.SourceID != "" && runner.Record.SourceID == "" {
		return true
	}
	return false
}

// Score computes the composite confidence that primary and cand describe the
// same entity. Sub-scores that cannot be computed (a side missing its
// timestamp, no overlapping attribute keys) are excluded and the remaining
// weights renormalized, so sparse records are not penalized for fields they
// never carried.
func Score(primary, cand record.Record, cfg Config) record.MatchCandidate {
	rationale := make(map[string]float64, 3)
	var weighted, totalWeight float64

	if cfg.NameWeight > 0 {
		s := nameSimilarity(primary.DisplayName, cand.DisplayName, cfg.Aliases)
		rationale["name"] = s
		weighted += cfg.NameWeight * s
		totalWeight += cfg.NameWeight
	}

	if cfg.TimeWeight > 0 && primary.HasTimestamp() && cand.HasTimestamp() {
		s := temporalProximity(primary.Timestamp, cand.Timestamp, cfg.TimeWindow)
		rationale["time"] = s
		weighted += cfg.TimeWeight * s
		totalWeight += cfg.TimeWeight
	}

	if cfg.AttrWeight > 0 {
		if s, ok := attributeOverlap(primary.Attributes, cand.Attributes); ok {
			rationale["attrs"] = s
			weighted += cfg.AttrWeight * s
			totalWeight += cfg.AttrWeight
		}
	}

	score := 0.0
	if totalWeight > 0 {
		score = weighted / totalWeight
	}
	return record.MatchCandidate{Record: cand, Score: score, Rationale: rationale}
}

// temporalProximity decays linearly from 1.0 at an exact timestamp match to
// 0 at the window edge. Providers report schedule changes with materially
// different timestamps, so a hard equality check would be too brittle.
func temporalProximity(a, b time.Time, window time.Duration) float64 {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	if diff >= window {
		return 0
	}
	return 1 - float64(diff)/float64(window)
}

// attributeOverlap returns the fraction of keys present on both records that
// carry equal values. The second return is false when the records share no
// keys, in which case the component is excluded from the composite.
func attributeOverlap(a, b map[string]string) (float64, bool) {
	shared, equal := 0, 0
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		shared++
		if record.NormalizeName(av) == record.NormalizeName(bv) {
			equal++
		}
	}
	if shared == 0 {
		return 0, false
	}
	return float64(equal) / float64(shared), true
}
