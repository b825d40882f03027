// Package embedder implements the spec §4.2 neural-encoder contract: a
// deterministic, fixed-dimension, L2-normalised text-to-vector encoder
// with an LRU cache in front of it. Grounded on the teacher's
// internal/embed package, trimmed of the model-loading/thermal-timeout
// machinery CQS has no use for (the deterministic encoder never warms up
// a GPU session).
package embedder

import "context"

// Dimensions is the fixed output width of every vector this package
// produces (spec §4.2's "D, e.g. 769").
const Dimensions = 769

// DefaultBatchSize matches the pipeline's embedder-stage batching
// (spec §4.8: "Per-batch size is bounded (32 default)").
const DefaultBatchSize = 32

// Embedder generates L2-normalised, fixed-dimension vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}
