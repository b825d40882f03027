// Package pipeline implements spec §4.4's staged indexing pipeline:
//
//	walker -> parser pool -> embedder -> writer
//
// Each stage is a goroutine connected to the next by a bounded channel,
// following the teacher's errgroup-based fan-out shape
// (internal/search/multi_query.go's MultiQuerySearcher) generalised from
// one fan-out stage to a four-stage assembly line. Grounded structurally
// on the teacher's internal/index/runner.go for the config/result shape
// and internal/index/coordinator.go for watch-mode reconciliation, but
// neither teacher file implements a literal staged channel pipeline, so
// the producer/consumer wiring itself is new, built directly from spec
// §4.4's stage contracts.
package pipeline

import (
	"runtime"
	"time"

	"github.com/cqs-dev/cqs/internal/parser"
	"github.com/cqs-dev/cqs/internal/store"
)

// Options configures one pipeline run.
type Options struct {
	// ProjectRoot is the directory files are resolved relative to.
	ProjectRoot string

	// IncludePatterns and ExcludePatterns are passed to the walker.
	IncludePatterns []string
	ExcludePatterns []string

	// Workers bounds parser-pool concurrency (0 = NumCPU).
	Workers int

	// WalkerBatchSize is the walker's file-batch size, spec §4.4's
	// "configurable, 1000-5000". Small in tests, large in production.
	WalkerBatchSize int

	// EmbedBatchSize bounds the embedder stage's per-call batch size
	// (spec §4.4: "Per-batch size is bounded (32 default)").
	EmbedBatchSize int

	// ChannelDepth sizes every inter-stage channel (spec §4.4: "default 256").
	ChannelDepth int

	// Resume, when true, skips files whose checkpoint-recorded mtime
	// still matches the filesystem (spec §4.4's resume contract).
	Resume bool
}

// DefaultOptions returns spec §4.4's defaults.
func DefaultOptions(projectRoot string) Options {
	return Options{
		ProjectRoot:     projectRoot,
		Workers:         0,
		WalkerBatchSize: 1000,
		EmbedBatchSize:  32,
		ChannelDepth:    256,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.WalkerBatchSize <= 0 {
		o.WalkerBatchSize = 1000
	}
	if o.EmbedBatchSize <= 0 {
		o.EmbedBatchSize = 32
	}
	if o.ChannelDepth <= 0 {
		o.ChannelDepth = 256
	}
	return o
}

// Result summarises one completed (or cancelled) run.
type Result struct {
	FilesWalked    int
	FilesParsed    int
	ParseErrors    int
	ChunksWritten  int
	CacheHits      int
	CacheMisses    int
	BatchesWritten int
	Duration       time.Duration
	Cancelled      bool
}

// parsedFile is one walker-emitted file after parsing, travelling from
// the parser pool to the embedder stage.
type parsedFile struct {
	origin string
	mtime  int64
	result parser.Result
}

// writeBatch is the unit the embedder stage hands to the writer: one
// file's chunks (now embedded) and call edges, ready for
// replace_file_chunks_and_calls.
type writeBatch struct {
	origin string
	mtime  int64
	chunks []store.Chunk
	calls  []store.CallEdge
}
