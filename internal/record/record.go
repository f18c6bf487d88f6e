package record

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Record is the normalized representation of one entity instance from one
// source: an economic event, an NBA game, a player, a bet event. Records are
// value types — adapters produce them and nothing mutates them afterwards.
type Record struct {
	Source      string            `json:"source"`
	SourceID    string            `json:"source_id,omitempty"`
	DisplayName string            `json:"display_name"`
	Timestamp   time.Time         `json:"timestamp,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// HasTimestamp reports whether the record carries a known event time.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Attr returns the named attribute, or "" if absent.
func (r Record) Attr(key string) string {
	return r.Attributes[key]
}

// Clone returns a deep copy of the record. Views hand clones to stages so a
// stage can never reach back into shared state.
func (r Record) Clone() Record {
	out := r
	if r.Attributes != nil {
		out.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// MatchCandidate pairs a candidate record with its composite score against a
// primary record. Rationale maps each contributing component ("name", "time",
// "attrs") to its sub-score.
type MatchCandidate struct {
	Record    Record             `json:"record"`
	Score     float64            `json:"score"`
	Rationale map[string]float64 `json:"rationale,omitempty"`
}

// ResolutionStatus classifies the outcome of matching a primary record
// against candidates from another source.
type ResolutionStatus string

const (
	StatusMatched   ResolutionStatus = "matched"
	StatusUnmatched ResolutionStatus = "unmatched"
	StatusAmbiguous ResolutionStatus = "ambiguous"
)

// ResolvedEntity is the accepted pairing (or singleton) downstream stages
// consume. A new resolution produces a new ResolvedEntity; existing values
// are never mutated.
type ResolvedEntity struct {
	CanonicalName string            `json:"canonical_name"`
	Status        ResolutionStatus  `json:"status"`
	// Records holds at most one record per originating source.
	Records map[string]Record `json:"records"`
	Score   float64           `json:"score,omitempty"`
	// Candidates is populated only for ambiguous outcomes: every candidate
	// that cleared the floor, ranked descending, so a policy stage (or a
	// human) can disambiguate.
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// Clone returns a deep copy of the entity.
func (e ResolvedEntity) Clone() ResolvedEntity {
	out := e
	if e.Records != nil {
		out.Records = make(map[string]Record, len(e.Records))
		for src, r := range e.Records {
			out.Records[src] = r.Clone()
		}
	}
	if e.Candidates != nil {
		out.Candidates = append([]MatchCandidate(nil), e.Candidates...)
	}
	return out
}

// Aliases maps a normalized token (or phrase) to its canonical expansion,
// e.g. "lal" → "los angeles lakers". Applied during tokenization.
type Aliases map[string]string

// stopTokens are connective tokens that carry no identity: "Lakers vs
// Celtics" and "LAL @ BOS" should reduce to team tokens only.
var stopTokens = map[string]bool{
	"vs": true, "v": true, "at": true, "the": true, "and": true,
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, strips diacritics, and collapses punctuation and
// whitespace. "Nikola Jokić" and "nikola jokic" normalize identically.
func NormalizeName(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens normalizes a display name into its identity-bearing tokens, with
// stop tokens removed and aliases expanded. The result is sorted-stable in
// input order and may contain duplicates from alias expansion; callers that
// need set semantics build their own set.
func Tokens(name string, aliases Aliases) []string {
	var out []string
	for _, tok := range strings.Fields(NormalizeName(name)) {
		if stopTokens[tok] {
			continue
		}
		if exp, ok := aliases[tok]; ok {
			out = append(out, strings.Fields(NormalizeName(exp))...)
			continue
		}
		out = append(out, tok)
	}
	return out
}
