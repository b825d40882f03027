package analysis

import (
	"context"
	"fmt"
)

// CallerContext is one caller of a function, with its call-site
// location and the source line at that site (spec §4.6: "callers =
// reverse_adj[target] with context (site line, snippet)").
type CallerContext struct {
	Name    string
	File    string
	Line    int
	Snippet string
}

// TransitiveCaller is a caller reachable at more than one hop.
type TransitiveCaller struct {
	Name  string
	Depth int
}

// TestRef is a test reachable from a target via the call graph.
type TestRef struct {
	Name   string
	Origin string
	Line   int
	Depth  int
	Via    string // the seed (for multi-source callers) that produced this depth
}

// ImpactResult is analyze_impact's output (spec §4.6).
type ImpactResult struct {
	FunctionName      string
	Callers           []CallerContext
	Tests             []TestRef
	TransitiveCallers []TransitiveCaller
	Summary           string
}

// Impact implements analyze_impact(target, depth): direct callers with
// call-site context, tests reachable within maxTestDepth, and
// transitive callers (reachable within depth hops, excluding direct
// callers) — spec §4.6. maxTestDepth is MAX_TEST_SEARCH_DEPTH, which the
// spec requires be configurable per call rather than a module constant.
func (a *Analyzer) Impact(ctx context.Context, target string, depth, maxTestDepth int) (*ImpactResult, error) {
	resolved, err := a.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	name := resolved.Name

	graph, err := a.store.GetCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	edges, err := a.store.GetCallEdgesByCallees(ctx, []string{name})
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

	// Batch name-lookup for caller metadata: one query for all N caller
	// names, not N round trips (spec §4.6).
	callerChunks, err := a.store.GetChunksByNamesBatch(ctx, callerNames)
	if err != nil {
		return nil, err
	}

	callers := make([]CallerContext, 0, len(edges))
	for _, e := range edges {
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

	testDepths := ReverseBFS(graph.Reverse, name, maxTestDepth)
	var tests []TestRef
	for n, d := range testDepths {
		if n == name {
			continue
		}
		if meta, ok := testByName[n]; ok {
			tests = append(tests, TestRef{Name: n, Origin: meta.origin, Line: meta.line, Depth: d})
		}
	}

	allDepths := ReverseBFS(graph.Reverse, name, depth)
	var transitive []TransitiveCaller
	for n, d := range allDepths {
		if n == name || d <= 1 {
			continue
		}
		transitive = append(transitive, TransitiveCaller{Name: n, Depth: d})
	}

	return &ImpactResult{
		FunctionName:      name,
		Callers:           callers,
		Tests:             tests,
		TransitiveCallers: transitive,
		Summary: fmt.Sprintf("%s: %d direct callers, %d tests, %d transitive callers",
			name, len(callers), len(tests), len(transitive)),
	}, nil
}
