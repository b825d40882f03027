// Package analysis implements the call-graph and search-driven
// operations of spec §4.6 that consume the store, search engine, and
// vector index: impact, diff-impact, gather, related, scout, dead-code,
// and where-to-add. None of these has a teacher analogue — the teacher
// repo stops at retrieval — so this package follows the error-kind,
// context-propagation, and constructor conventions the rest of this
// module's new packages (internal/store, internal/search) established
// from the teacher's style, rather than a specific teacher file.
package analysis

import (
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
)

// DefaultMaxTestSearchDepth is used when a caller doesn't override
// MAX_TEST_SEARCH_DEPTH (spec §4.6: "configurable per call, not a
// module constant" — this is only the fallback, not a hardcoded limit).
const DefaultMaxTestSearchDepth = 5

// Analyzer wires the store, search engine, and language registry
// together for the operations in this package. One Analyzer is safe for
// concurrent use; all state lives in the Store/Engine it wraps.
type Analyzer struct {
	store    *store.Store
	engine   *search.Engine
	registry *langregistry.Registry
}

// New creates an Analyzer.
func New(s *store.Store, engine *search.Engine, registry *langregistry.Registry) *Analyzer {
	return &Analyzer{store: s, engine: engine, registry: registry}
}
