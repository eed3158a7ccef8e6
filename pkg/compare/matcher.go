package compare

import "sort"

// pair is a candidate or accepted pairing of an old and a new id.
type pair struct {
	old, new string
	score    float64
}

// greedyPairs scores every old/new combination, keeps those at or above
// threshold and accepts them from the highest score down. Ties break on the
// old id, then the new id, both ascending. Each id is used at most once.
func greedyPairs(oldIDs, newIDs []string, threshold float64, score func(o, n string) float64) []pair {
	var candidates []pair
	for _, o := range oldIDs {
		for _, n := range newIDs {
			if s := score(o, n); s >= threshold {
				candidates = append(candidates, pair{o, n, s})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.old != b.old {
			return a.old < b.old
		}
		return a.new < b.new
	})

	usedOld := make(map[string]bool)
	usedNew := make(map[string]bool)
	var accepted []pair
	for _, c := range candidates {
		if usedOld[c.old] || usedNew[c.new] {
			continue
		}
		usedOld[c.old], usedNew[c.new] = true, true
		accepted = append(accepted, c)
	}
	return accepted
}

// pairKey names a pair in the result buckets: the shared id, or "old↔new"
// for a cross-id pairing.
func pairKey(o, n string) string {
	if o == n {
		return o
	}
	return o + "↔" + n
}
