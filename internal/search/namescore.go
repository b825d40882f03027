package search

import (
	"strings"

	"github.com/cqs-dev/cqs/internal/store"
)

// exactNameBoost and prefixNameBoost are the "strictly bounded" boosts
// spec §4.5 step 3 asks for on top of the raw name/BM25 score, applied
// before the per-query normalisation pass so no single candidate's
// boosted score can dominate by more than a fixed, known amount.
const (
	exactNameBoost  = 2.0
	prefixNameBoost = 1.0
)

// nameScores turns raw per-id BM25 scores (from store.ScoreNamesByID)
// into the bounded [0,1] name_score spec §4.5 describes: floored at 0.0
// (never the naive 0.5 midpoint some hybrid-search implementations
// default unmatched candidates to), boosted for an exact or prefix match
// against the candidate's own name, then normalised by the top score in
// this candidate set.
func nameScores(raw map[string]float32, queryText string, candidates []store.ScoringFields) map[string]float32 {
	out := make(map[string]float32, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	q := strings.ToLower(strings.TrimSpace(queryText))
	var max float32
	for _, c := range candidates {
		s := raw[c.ID]
		if s < 0 {
			s = 0
		}
		if q != "" {
			name := strings.ToLower(c.Name)
			switch {
			case name == q:
				s += exactNameBoost
			case strings.HasPrefix(name, q):
				s += prefixNameBoost
			}
		}
		out[c.ID] = s
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for id, s := range out {
			out[id] = s / max
		}
	}
	return out
}
