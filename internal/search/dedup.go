package search

import "sort"

// parentDedupKey returns the id the chunk collapses under for
// parent-dedup purposes: its own id if it has no parent (it's not a
// window), otherwise the parent's id (spec §4.5 step 4: "at most one
// window per parent id; prefer the highest-scoring").
func parentDedupKey(id, parentID string) string {
	if parentID == "" {
		return id
	}
	return parentID
}

// dedupResults collapses results sharing a parentDedupKey, keeping the
// highest-scoring member of each group. Input order is not assumed to be
// sorted; output is sorted best-first, ties broken by chunk id for
// determinism.
func dedupResults(results []Result) []Result {
	best := make(map[string]Result, len(results))
	order := make([]string, 0, len(results))
	for _, r := range results {
		key := parentDedupKey(r.Chunk.ID, r.Chunk.ParentID)
		existing, ok := best[key]
		if !ok {
			best[key] = r
			order = append(order, key)
			continue
		}
		if r.Score > existing.Score || (r.Score == existing.Score && r.Chunk.ID < existing.Chunk.ID) {
			best[key] = r
		}
	}

	out := make([]Result, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out
}
