package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/store"
)

func TestFindDeadCode_NoCallersAndNotReferencedIsDead(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	called := chunkFixture("a.go", "Called", "func Called()", 1, 5)
	caller := chunkFixture("a.go", "Caller", "func Caller()", 10, 15)
	orphan := chunkFixture("a.go", "Orphan", "func Orphan()", 20, 25)
	putChunks(t, s, "a.go", []store.Chunk{called, caller, orphan}, []store.CallEdge{
		{CallerName: "Caller", CalleeName: "Called", CallerFile: "a.go", CallerLine: 12},
	})

	hits, err := a.FindDeadCode(ctx)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, h := range hits {
		names[h.Chunk.Name] = true
	}
	assert.True(t, names["Orphan"])
	assert.False(t, names["Called"])
	assert.True(t, names["Caller"])
}

func TestFindDeadCode_ExcludesTestChunks(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	testFn := chunkFixture("a_test.go", "TestSomething", "func TestSomething(t *testing.T)", 1, 5)
	putChunks(t, s, "a_test.go", []store.Chunk{testFn}, nil)

	hits, err := a.FindDeadCode(ctx)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "TestSomething", h.Chunk.Name)
	}
}

func TestFindDeadCode_ExcludesEntryPoints(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	main := chunkFixture("main.go", "main", "func main()", 1, 5)
	putChunks(t, s, "main.go", []store.Chunk{main}, nil)

	hits, err := a.FindDeadCode(ctx)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "main", h.Chunk.Name)
	}
}

func TestFindDeadCode_ExcludesNamesReferencedAsValues(t *testing.T) {
	a, s := newTestAnalyzer(t)
	ctx := context.Background()

	handler := chunkFixture("a.go", "Handler", "func Handler()", 1, 5)
	handler.Content = "func Handler() {}"
	registrar := chunkFixture("b.go", "Register", "func Register()", 10, 20)
	registrar.Content = "var handlers = []func(){Handler}"
	putChunks(t, s, "a.go", []store.Chunk{handler}, nil)
	putChunks(t, s, "b.go", []store.Chunk{registrar}, nil)

	hits, err := a.FindDeadCode(ctx)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "Handler", h.Chunk.Name)
	}
}

func TestLineReferencesAsValue(t *testing.T) {
	assert.False(t, lineReferencesAsValue("Foo(x, y)", "Foo"))
	assert.True(t, lineReferencesAsValue("handlers = []func(){Foo}", "Foo"))
	assert.False(t, lineReferencesAsValue("other(x); Foo(y)", "Foo"))
	assert.True(t, lineReferencesAsValue("var f = Foo", "Foo"))
}
