package resolve

import (
	"strings"

	"github.com/lucaskeller/crossfeed/internal/record"
)

// nameSimilarity scores two display names in [0,1], case- and
// diacritic-insensitive, with alias expansion applied to both sides. It takes
// the better of token-set overlap and normalized edit distance: token overlap
// handles reordered forms ("LAL @ BOS" vs "Lakers vs Celtics" after alias
// expansion), edit distance handles near-misses within a single token
// ("Jokic" vs "Jokíc").
func nameSimilarity(a, b string, aliases record.Aliases) float64 {
	at := record.Tokens(a, aliases)
	bt := record.Tokens(b, aliases)

	overlap := tokenOverlap(at, bt)
	edit := editSimilarity(strings.Join(at, " "), strings.Join(bt, " "))
	if overlap > edit {
		return overlap
	}
	return edit
}

// tokenOverlap computes |A ∩ B| / min(|A|, |B|) over token sets. The smaller
// set is the denominator because providers abbreviate: "Lakers vs Celtics"
// is a subset of the fully expanded "Los Angeles Lakers Boston Celtics" and
// should score as a full overlap, not be penalized for the tokens the
// shorter notation drops.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	as := make(map[string]bool, len(a))
	for _, t := range a {
		as[t] = true
	}
	bs := make(map[string]bool, len(b))
	for _, t := range b {
		bs[t] = true
	}

	inter := 0
	for t := range as {
		if bs[t] {
			inter++
		}
	}
	smaller := len(as)
	if len(bs) < smaller {
		smaller = len(bs)
	}
	return float64(inter) / float64(smaller)
}

// editSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
func editSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	ar, br := []rune(a), []rune(b)
	longest := len(ar)
	if len(br) > longest {
		longest = len(br)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ar, br))/float64(longest)
}

// levenshtein computes edit distance with a two-row DP.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
