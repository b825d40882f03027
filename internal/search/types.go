// Package search implements the hybrid code+notes search engine from
// spec §4.5: HNSW candidate retrieval over internal/vectorindex, scored
// by cosine similarity and name-field BM25, optionally fused by
// Reciprocal Rank Fusion, parent-deduplicated, and truncated to a
// caller-requested limit. Grounded on the teacher's internal/search
// package (RRFFusion, SearchOptions/SearchResult shape, Weights),
// generalised from the teacher's single code-chunk corpus to CQS's
// unified chunk+note id space (internal/vectorindex's "chunk:"/"note:"
// prefixes) and from the teacher's always-BM25-index fusion to the
// spec's adaptive-efSearch HNSW candidate path.
package search

import (
	"github.com/cqs-dev/cqs/internal/store"
)

// Weights configures the relative importance of name (BM25) vs semantic
// (cosine) scoring, used only when RRF fusion combines the two ranked
// lists (spec §4.5: "normalise semantic and name ranks and fuse via
// RRF"). Mirrors the teacher's search.Weights.
type Weights struct {
	Name     float64
	Semantic float64
}

// DefaultWeights mirrors the teacher's DefaultWeights split.
func DefaultWeights() Weights {
	return Weights{Name: 0.35, Semantic: 0.65}
}

// Filter narrows a hybrid search and tunes its scoring behaviour.
type Filter struct {
	Languages []string
	PathGlob  string
	Limit     int

	// QueryText drives the name/BM25 scoring component. Empty disables
	// it entirely (pure semantic search).
	QueryText string

	// EnableRRF turns on rank-fusion scoring (spec §4.5 step 3); when
	// false, semantic and name scores are linearly blended by Weights
	// instead.
	EnableRRF bool
	Weights   Weights

	// NoteBoost, when > 0, is added to a chunk's score when its origin
	// or name appears in a relevant note's mentions set (spec §4.5 step
	// 3's "optional note_boost").
	NoteBoost float32
}

// Result is one hybrid search hit: the hydrated chunk plus its scoring
// breakdown, matching the teacher's SearchResult shape.
type Result struct {
	Chunk        store.Chunk
	Note         *store.Note // not set by this package's searches; note hits come back as UnifiedResult
	Score        float32
	SemanticRank int // 1-indexed rank in the HNSW candidate list, 0 if absent
	NameRank     int // 1-indexed rank in the name-score list, 0 if absent
	InBothLists  bool
}

// UnifiedResult is one hit from SearchUnifiedWithIndex: either a chunk or
// a note, disambiguated by Kind.
type UnifiedResult struct {
	Kind  HitKind
	Chunk store.Chunk
	Note  store.Note
	Score float32
}

// HitKind distinguishes a UnifiedResult's payload.
type HitKind string

const (
	HitKindChunk HitKind = "chunk"
	HitKindNote  HitKind = "note"
)
