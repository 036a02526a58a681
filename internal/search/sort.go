package search

import "sort"

// sortRanked orders documents by representative flag, integer score,
// priority and the per-request random tie-break, in that precedence.
func sortRanked(ranked []*rankedDoc) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.main != b.main {
			return a.main > b.main
		}
		if a.intScore != b.intScore {
			return a.intScore > b.intScore
		}
		if a.doc.Priority != b.doc.Priority {
			return a.doc.Priority > b.doc.Priority
		}
		return a.random < b.random
	})
}
