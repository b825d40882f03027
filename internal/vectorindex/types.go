// Package vectorindex wraps github.com/coder/hnsw in the spec's tombstone
// semantics and four-file checksummed persistence (spec §4.3). It is
// grounded on the teacher's HNSWStore (internal/store/hnsw.go in the
// example pack) — same lazy-deletion idea, same atomic save/load shape —
// generalised from the teacher's two-file (index + gob meta) layout to
// the spec's graph/data/ids/checksum quartet.
package vectorindex

import "github.com/cqs-dev/cqs/internal/cqserrors"

// Config holds the HNSW construction and search parameters from spec
// §4.3: "M = 24, maxLayer = 16, efConstruction = 200, efSearch default
// 100, adaptive up to 500".
type Config struct {
	Dimensions int

	M              int
	EfConstruction int
	EfSearch       int
	MaxEfSearch    int

	// MaxLayer documents the spec's stated ceiling on graph depth.
	// coder/hnsw derives layer count from Ml (the level generation
	// factor) rather than accepting an explicit cap; we set Ml so that
	// layers stay within MaxLayer for realistic corpus sizes and record
	// the constant here for the checksum-manifest / stats surface
	// rather than enforcing it as a hard stop inside the library.
	MaxLayer int
}

// DefaultConfig returns spec §4.3's parameters for dimensions d.
func DefaultConfig(d int) Config {
	return Config{
		Dimensions:     d,
		M:              24,
		EfConstruction: 200,
		EfSearch:       100,
		MaxEfSearch:    500,
		MaxLayer:       16,
	}
}

func (c Config) validate() error {
	if c.Dimensions <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "vector index dimensions must be positive")
	}
	if c.M <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "vector index M must be positive")
	}
	return nil
}

// Point is one embedding to be indexed, keyed by an opaque string id.
// Builders that merge chunks and notes into one index are responsible
// for id-prefixing (spec §4.3: "Notes are included; consumers filter by
// id-prefix").
type Point struct {
	ID        string
	Embedding []float32
}

// Result is one hit from Search: id, raw HNSW distance, and the
// converted similarity score (spec §4.3: "distances are converted to
// similarity scores 1 - d (cosine)").
type Result struct {
	ID       string
	Distance float32
	Score    float32
}

// Stats reports index occupancy, including lazily-deleted orphans still
// resident in the underlying graph (spec's SUPPLEMENTED FEATURES: "the
// teacher's HNSW store's orphan bookkeeping becomes the basis for CQS's
// tombstone-aware vector index").
type Stats struct {
	ValidIDs   int
	GraphNodes int
	Orphans    int
}
