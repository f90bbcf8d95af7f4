package normalizer

import (
	"cmp"
	"slices"

	"tekken-tracker/internal/domain"
)

// Merge combines the per-source match lists into one list, newest first, with one entry per
// match identity. sources are applied in order, so pass the richer source first: the first entry
// seen for a key wins, and only a missing opponent rank is backfilled from later duplicates.
func Merge(sources ...[]domain.MatchRecord) []domain.MatchRecord {
	index := make(map[string]int)
	var merged []domain.MatchRecord

	for _, records := range sources {
		for _, rec := range records {
			key := domain.MatchKey(rec)
			i, ok := index[key]
			if !ok {
				index[key] = len(merged)
				merged = append(merged, rec)
				continue
			}
			if merged[i].OpponentRank == "" && rec.OpponentRank != "" {
				merged[i].OpponentRank = rec.OpponentRank
			}
		}
	}

	slices.SortStableFunc(merged, func(a, b domain.MatchRecord) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return merged
}
