package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/store"
)

func TestFindRelated_SharedCallerAndCallee(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	target := chunkFixture("a.go", "Target", "func Target()", 1, 5)
	sibling := chunkFixture("a.go", "Sibling", "func Sibling()", 10, 15)
	caller := chunkFixture("a.go", "Caller", "func Caller()", 20, 25)
	shared := chunkFixture("a.go", "Shared", "func Shared()", 30, 35)
	putChunks(t, s, "a.go", []store.Chunk{target, sibling, caller, shared}, []store.CallEdge{
		// Caller calls both Target and Sibling -> shared caller.
		{CallerName: "Caller", CalleeName: "Target", CallerFile: "a.go", CallerLine: 22},
		{CallerName: "Caller", CalleeName: "Sibling", CallerFile: "a.go", CallerLine: 23},
		// Target and Sibling both call Shared -> shared callee.
		{CallerName: "Target", CalleeName: "Shared", CallerFile: "a.go", CallerLine: 3},
		{CallerName: "Sibling", CalleeName: "Shared", CallerFile: "a.go", CallerLine: 12},
	})

	hits, err := a.FindRelated(ctx, "Target")
	require.NoError(t, err)

	byName := make(map[string]RelatedHit)
	for _, h := range hits {
		byName[h.Chunk.Name] = h
	}
	require.Contains(t, byName, "Sibling")
	assert.Equal(t, 1, byName["Sibling"].SharedCallers)
	assert.Equal(t, 1, byName["Sibling"].SharedCallees)
	assert.NotContains(t, byName, "Shared")
}

func TestFindRelated_SharedTypeInSignature(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	target := chunkFixture("a.go", "Target", "func Target(n *NodeConfig)", 1, 5)
	related := chunkFixture("b.go", "Related", "func Related(n *NodeConfig) error", 10, 15)
	unrelated := chunkFixture("b.go", "Unrelated", "func Unrelated(n *NodeId) error", 20, 25)
	putChunks(t, s, "a.go", []store.Chunk{target}, nil)
	putChunks(t, s, "b.go", []store.Chunk{related, unrelated}, nil)

	hits, err := a.FindRelated(ctx, "Target")
	require.NoError(t, err)

	byName := make(map[string]RelatedHit)
	for _, h := range hits {
		byName[h.Chunk.Name] = h
	}
	require.Contains(t, byName, "Related")
	assert.True(t, byName["Related"].SharedType)
	assert.NotContains(t, byName, "Unrelated")
}

func TestExtractTypeNames_OnlyCapitalizedMultiCharTokens(t *testing.T) {
	names := extractTypeNames("func Foo(n *NodeConfig, id int) (*Result, error)")
	assert.Contains(t, names, "NodeConfig")
	assert.Contains(t, names, "Result")
	assert.NotContains(t, names, "id")
	assert.NotContains(t, names, "error")
}
