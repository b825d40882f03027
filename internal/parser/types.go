// Package parser turns a (path, language, content) triple into chunks
// and call edges. It is built on tree-sitter via
// github.com/smacker/go-tree-sitter, converting to a plain-data AST
// wrapper rather than threading *sitter.Node pointers directly through
// chunk extraction.
package parser

import (
	"github.com/cqs-dev/cqs/internal/langregistry"
)

// Chunk is the parser's output unit, matching spec §3's Chunk record
// one-for-one (the store layer adds embedding + source_mtime at write
// time, so those two fields live in store.Chunk, not here).
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
	ContentHash string // hex BLAKE3-128, 32 chars
	ParentID    string // empty unless this is a windowed sub-chunk
}

// CallEdge is a single call-site observation (spec §3).
type CallEdge struct {
	CallerName   string
	CalleeName   string
	CallerFile   string
	CallerLine   int
}

// Result is everything the parser produces for one file.
type Result struct {
	Chunks []Chunk
	Calls  []CallEdge
}

// MaxChunkLines and MaxChunkBytes are the oversized-body thresholds from
// spec §4.1 that trigger windowing.
const (
	MaxChunkLines = 100
	MaxChunkBytes = 100 * 1024
)
