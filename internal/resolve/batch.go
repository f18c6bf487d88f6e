package resolve

import (
	"github.com/lucaskeller/crossfeed/internal/record"
)

// ResolveAll matches each primary against the candidate pool one-to-one: a
// candidate claimed by an earlier match is withheld from later primaries.
// Primaries are processed in input order, so callers control precedence by
// ordering (e.g. games before players). Ambiguous outcomes claim nothing —
// their candidates stay available to later primaries.
func ResolveAll(primaries, candidates []record.Record, cfg Config) []record.ResolvedEntity {
	claimed := make(map[int]bool, len(candidates))
	out := make([]record.ResolvedEntity, 0, len(primaries))

	for _, p := range primaries {
		var pool []record.Record
		var poolIdx []int
		for i, c := range candidates {
			if claimed[i] {
				continue
			}
			pool = append(pool, c)
			poolIdx = append(poolIdx, i)
		}

		entity := Resolve(p, pool, cfg)
		if entity.Status == record.StatusMatched {
			for j, c := range pool {
				if matchedRecord(entity, c) {
					claimed[poolIdx[j]] = true
					break
				}
			}
		}
		out = append(out, entity)
	}
	return out
}

// matchedRecord reports whether entity's accepted record is c.
func matchedRecord(entity record.ResolvedEntity, c record.Record) bool {
	r, ok := entity.Records[c.Source]
	if !ok {
		return false
	}
	return r.SourceID == c.SourceID && r.DisplayName == c.DisplayName
}
