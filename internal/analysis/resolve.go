package analysis

import (
	"context"
	"strings"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/store"
)

// resolveTarget resolves a target name via search_by_name, preferring a
// non-windowed chunk (parent_id is empty) so callers get correct
// line offsets for call-site snippet extraction (spec §4.6).
func (a *Analyzer) resolveTarget(ctx context.Context, target string) (store.Chunk, error) {
	results, err := a.engine.SearchByName(ctx, target, 20)
	if err != nil {
		return store.Chunk{}, err
	}
	if len(results) == 0 {
		return store.Chunk{}, cqserrors.New(cqserrors.KindValidation, "no chunk matches target name: "+target)
	}
	for _, r := range results {
		if r.Chunk.ParentID == "" {
			return r.Chunk, nil
		}
	}
	return results[0].Chunk, nil
}

// extractSnippet returns the single source line at line (an absolute
// file line number) from a chunk whose own span starts at
// chunk.LineStart. Out-of-range requests return "" rather than panic —
// caller/callee bookkeeping can drift by a line across edits between
// index and query.
func extractSnippet(chunk store.Chunk, line int) string {
	idx := line - chunk.LineStart
	if idx < 0 {
		return ""
	}
	lines := strings.Split(chunk.Content, "\n")
	if idx >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[idx])
}

// isTestChunk is the unified test-chunk predicate spec §4.6 says
// dead-code, impact, and scout all share: language-hinted test name or
// path pattern, with the user's registry overrides already baked into
// the LanguageDef passed through a.registry.
func (a *Analyzer) isTestChunk(c store.Chunk) bool {
	def, ok := a.registry.ByName(c.Language)
	if !ok {
		return false
	}
	return def.IsTestName(c.Name) || def.IsTestPath(c.Origin)
}

// pickCallerChunk prefers the chunk matching the call edge's recorded
// file, since a name can collide across files; when no chunk comes from
// that file it falls back to the first chunk with the name.
func pickCallerChunk(chunks []store.Chunk, file string) (store.Chunk, bool) {
	if len(chunks) == 0 {
		return store.Chunk{}, false
	}
	for _, c := range chunks {
		if c.Origin == file {
			return c, true
		}
	}
	return chunks[0], true
}
