package analysis

import (
	"context"

	"github.com/cqs-dev/cqs/internal/diffparse"
)

// DiffImpactResult is analyze_diff_impact's output (spec §4.6).
type DiffImpactResult struct {
	ChangedFunctions []string
	Callers          []CallerContext
	Tests            []TestRef
}

// AnalyzeDiffImpact maps diff hunks to the functions they touch, collects
// their distinct direct callers, then runs one multi-source reverse BFS
// over all of them to find distinct tests (spec §4.6). maxTestDepth bounds the test search,
// matching Impact's MAX_TEST_SEARCH_DEPTH knob.
func (a *Analyzer) AnalyzeDiffImpact(ctx context.Context, files []diffparse.FileDiff, maxTestDepth int) (*DiffImpactResult, error) {
	changedSet := make(map[string]struct{})
	for _, f := range files {
		chunks, err := a.store.GetChunksByOrigin(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		for _, h := range f.Hunks {
			if h.NewCount == 0 {
				continue // pure deletion: no new-side functions affected
			}
			newEnd := h.NewStart + h.NewCount
			for _, c := range chunks {
				if c.LineStart < newEnd && h.NewStart < c.LineEnd+1 {
					changedSet[c.Name] = struct{}{}
				}
			}
		}
	}

	changed := make([]string, 0, len(changedSet))
	for n := range changedSet {
		changed = append(changed, n)
	}

	if len(changed) == 0 {
		return &DiffImpactResult{}, nil
	}

	graph, err := a.store.GetCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	edges, err := a.store.GetCallEdgesByCallees(ctx, changed)
	if err != nil {
		return nil, err
	}
	callerNames := make([]string, 0, len(edges))
	seenCaller := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if _, ok := seenCaller[e.CallerName]; ok {
			continue
		}
		seenCaller[e.CallerName] = struct{}{}
		callerNames = append(callerNames, e.CallerName)
	}
	callerChunks, err := a.store.GetChunksByNamesBatch(ctx, callerNames)
	if err != nil {
		return nil, err
	}
	callers := make([]CallerContext, 0, len(callerNames))
	emitted := make(map[string]struct{}, len(callerNames))
	for _, e := range edges {
		if _, ok := emitted[e.CallerName]; ok {
			continue
		}
		emitted[e.CallerName] = struct{}{}
		cc := CallerContext{Name: e.CallerName, File: e.CallerFile, Line: e.CallerLine}
		if chunk, ok := pickCallerChunk(callerChunks[e.CallerName], e.CallerFile); ok {
			cc.Snippet = extractSnippet(chunk, e.CallerLine)
		}
		callers = append(callers, cc)
	}

	testRefs, err := a.store.FindTestChunkNames(ctx, a.registry)
	if err != nil {
		return nil, err
	}
	type testLoc struct {
		origin string
		line   int
	}
	testByName := make(map[string]testLoc, len(testRefs))
	for _, t := range testRefs {
		testByName[t.Name] = testLoc{origin: t.Origin, line: t.Line}
	}

	bfs := ReverseBFSMulti(graph.Reverse, changed, maxTestDepth)
	var tests []TestRef
	for n, d := range bfs.Depths {
		if _, ok := changedSet[n]; ok {
			continue
		}
		if meta, ok := testByName[n]; ok {
			tests = append(tests, TestRef{Name: n, Origin: meta.origin, Line: meta.line, Depth: d, Via: bfs.Provenance[n]})
		}
	}

	return &DiffImpactResult{ChangedFunctions: changed, Callers: callers, Tests: tests}, nil
}
