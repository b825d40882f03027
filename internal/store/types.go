// Package store is the SQLite-backed persistence layer from spec §4.2:
// chunks, notes, function_calls, and metadata tables plus FTS5 mirrors,
// behind a single transactional Store type. Grounded on the teacher's
// internal/store/sqlite_bm25.go (WAL pragmas, FTS5 virtual table setup,
// corruption-on-open handling) and internal/store/types.go (the
// interface/config shape), generalised from a keyword-only BM25 index
// into the full chunk/call/note/metadata schema spec §6 requires.
package store

import (
	"time"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

// Chunk is the store's on-disk representation of parser.Chunk plus the
// two fields only the store layer knows: Embedding (computed by the
// pipeline's embedder stage) and SourceMtime (captured by the walker at
// enumeration time, per spec §4.4).
type Chunk struct {
	ID          string
	Origin      string
	Name        string
	Signature   string
	Content     string
	Doc         string
	ChunkKind   langregistry.ChunkKind
	Language    string
	LineStart   int
	LineEnd     int
	ContentHash string
	ParentID    string // empty means no parent
	SourceMtime int64  // Unix milliseconds
	Embedding   []float32
}

// CallEdge is one row of function_calls.
type CallEdge struct {
	CallerName string
	CalleeName string
	CallerFile string
	CallerLine int
}

// CallGraph holds the two adjacency maps spec §3 defines: forward
// (callee names reachable from a caller) and reverse (caller names that
// reach a callee), both deduplicated by (caller, callee) pair.
type CallGraph struct {
	Forward map[string]map[string]struct{}
	Reverse map[string]map[string]struct{}
}

// Note is a developer-authored sidecar annotation (spec §3's Note).
type Note struct {
	ID         string
	Text       string
	Sentiment  float64
	Mentions   []string
	SourceFile string
	Mtime      int64
	Embedding  []float32
}

// SearchResult is one row returned by SearchFiltered / SearchByName —
// enough to score and dedup without fetching full content.
type SearchResult struct {
	Chunk    Chunk
	Semantic float32
	NameHit  float32
}

// Filter narrows SearchFiltered's brute-force scan.
type Filter struct {
	Languages []string
	PathGlob  string // matched against origin, via internal/pathutil + gobwas/glob
	Limit     int
}

// Metadata keys, per spec §3's "Schema metadata" record.
const (
	MetaSchemaVersion = "schema_version"
	MetaCreatedAt     = "created_at"
	MetaUpdatedAt     = "updated_at"
	MetaModelName     = "model_name"
	MetaDimensions    = "dimensions"
)

// Checkpoint state keys, adopted from the teacher's resumable-indexing
// design (internal/store/types.go StateKeyCheckpoint*) and kept verbatim
// since nothing about the spec's pipeline contradicts resumability.
const (
	MetaCheckpointStage     = "checkpoint_stage"
	MetaCheckpointTotal     = "checkpoint_total"
	MetaCheckpointEmbedded  = "checkpoint_embedded"
	MetaCheckpointTimestamp = "checkpoint_timestamp"
	MetaCheckpointModel     = "checkpoint_embedder_model"
)

// CurrentSchemaVersion is the store's current schema version (spec §3:
// "schema_version (monotonic integer)").
const CurrentSchemaVersion = 1

// MaxBatchRows is the per-INSERT row cap from spec §4.2: "≤ 300 rows per
// batched INSERT for a 3-column row; chunk size computed from binding
// arity." Chunk rows bind far more than 3 columns, so writers compute
// their own cap from this reference point and their column count.
const MaxBatchRows = 300

// Checkpoint mirrors a row set under the checkpoint_* metadata keys.
type Checkpoint struct {
	Stage         string
	Total         int
	Embedded      int
	Timestamp     time.Time
	EmbedderModel string
}
