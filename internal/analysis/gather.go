package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
)

// GatherOptions configures gather's seed selection and call-graph
// expansion (spec §4.6).
type GatherOptions struct {
	SeedLimit        int
	SeedThreshold    float32
	ExpandDepth      int
	DecayFactor      float64
	MaxExpandedNodes int
	Limit            int
}

// GatherHit is one chunk surfaced by gather, with its final (possibly
// decayed) score.
type GatherHit struct {
	Chunk store.Chunk
	Score float32
}

// Gather implements gather(query_text, options): semantic seeds expanded
// by a call-graph BFS with single-hop decay, deduplicated and truncated
// to limit (spec §4.6).
func (a *Analyzer) Gather(ctx context.Context, queryEmb []float32, opts GatherOptions) ([]GatherHit, error) {
	if math.IsNaN(opts.DecayFactor) || math.IsInf(opts.DecayFactor, 0) {
		return nil, cqserrors.New(cqserrors.KindValidation, "decay_factor must be finite")
	}
	decay := opts.DecayFactor
	if decay < 0 {
		decay = 0
	} else if decay > 1 {
		decay = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	seeds, err := a.engine.SearchFilteredWithIndex(ctx, queryEmb, search.Filter{Limit: opts.SeedLimit})
	if err != nil {
		return nil, err
	}

	type hit struct {
		chunk store.Chunk
		score float32
	}
	byID := make(map[string]hit)
	nameScore := make(map[string]float32)
	seenName := make(map[string]struct{})
	type frontierNode struct {
		name  string
		score float32
	}
	var frontier []frontierNode

	for _, s := range seeds {
		if s.Score < opts.SeedThreshold {
			continue
		}
		byID[s.Chunk.ID] = hit{chunk: s.Chunk, score: s.Score}
		if _, ok := seenName[s.Chunk.Name]; !ok {
			seenName[s.Chunk.Name] = struct{}{}
			nameScore[s.Chunk.Name] = s.Score
			frontier = append(frontier, frontierNode{name: s.Chunk.Name, score: s.Score})
		}
	}

	graph, err := a.store.GetCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	expanded := 0
	for hop := 0; hop < opts.ExpandDepth && expanded < opts.MaxExpandedNodes && len(frontier) > 0; hop++ {
		var next []frontierNode
		for _, node := range frontier {
			neighbors := make(map[string]struct{})
			for n := range graph.Forward[node.name] {
				neighbors[n] = struct{}{}
			}
			for n := range graph.Reverse[node.name] {
				neighbors[n] = struct{}{}
			}
			for n := range neighbors {
				if expanded >= opts.MaxExpandedNodes {
					break
				}
				if _, ok := seenName[n]; ok {
					continue
				}
				seenName[n] = struct{}{}
				s := node.score * float32(decay)
				nameScore[n] = s
				next = append(next, frontierNode{name: n, score: s})
				expanded++
			}
		}
		frontier = next
	}

	names := make([]string, 0, len(nameScore))
	for n := range nameScore {
		names = append(names, n)
	}
	chunksByName, err := a.store.GetChunksByNamesBatch(ctx, names)
	if err != nil {
		return nil, err
	}
	for name, score := range nameScore {
		for _, c := range chunksByName[name] {
			if existing, ok := byID[c.ID]; !ok || score > existing.score {
				byID[c.ID] = hit{chunk: c, score: score}
			}
		}
	}

	out := make([]GatherHit, 0, len(byID))
	for _, h := range byID {
		out = append(out, GatherHit{Chunk: h.chunk, Score: h.score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
