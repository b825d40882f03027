package search

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter (spec
// §4.5: "fuse via RRF (1/(rank+k), k=60)"), same k the teacher's
// RRFFusion defaults to.
const DefaultRRFConstant = 60

// rankedHit is one candidate in a single ranked list (semantic or
// name); its index in that list is its rank.
type rankedHit struct {
	id    string
	score float32
}

// fusedScore is the outcome of combining an id's semantic and name
// ranks into one RRF score, mirroring the teacher's FusedResult.
type fusedScore struct {
	id          string
	rrf         float64
	semanticHit rankedHit
	semanticOK  bool
	nameHit     rankedHit
	nameOK      bool
	inBoth      bool
}

// rrfFuse combines two ranked candidate lists (semantic-similarity
// order, name/BM25 order) into one RRF-scored, sorted list. Grounded on
// the teacher's RRFFusion.Fuse: same missing-rank handling (absent from
// a list contributes at max(len1,len2)+1), same tie-break chain, same
// 0-1 normalisation by the top score.
func rrfFuse(semantic, name []rankedHit, weights Weights, k int) []fusedScore {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if len(semantic) == 0 && len(name) == 0 {
		return nil
	}

	scores := make(map[string]*fusedScore, len(semantic)+len(name))
	get := func(id string) *fusedScore {
		if f, ok := scores[id]; ok {
			return f
		}
		f := &fusedScore{id: id}
		scores[id] = f
		return f
	}

	for rank, h := range semantic {
		f := get(h.id)
		f.semanticHit = h
		f.semanticOK = true
		f.rrf += weights.Semantic / float64(k+rank+1)
	}
	for rank, h := range name {
		f := get(h.id)
		f.nameHit = h
		f.nameOK = true
		f.rrf += weights.Name / float64(k+rank+1)
		if f.semanticOK {
			f.inBoth = true
		}
	}

	missingRank := len(semantic)
	if len(name) > missingRank {
		missingRank = len(name)
	}
	missingRank++
	for _, f := range scores {
		if !f.semanticOK && f.nameOK {
			f.rrf += weights.Semantic / float64(k+missingRank)
		}
		if !f.nameOK && f.semanticOK {
			f.rrf += weights.Name / float64(k+missingRank)
		}
	}

	out := make([]fusedScore, 0, len(scores))
	for _, f := range scores {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.rrf != b.rrf {
			return a.rrf > b.rrf
		}
		if a.inBoth != b.inBoth {
			return a.inBoth
		}
		if a.nameHit.score != b.nameHit.score {
			return a.nameHit.score > b.nameHit.score
		}
		return a.id < b.id
	})

	if len(out) > 0 && out[0].rrf > 0 {
		max := out[0].rrf
		for i := range out {
			out[i].rrf /= max
		}
	}
	return out
}
