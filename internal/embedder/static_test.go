package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestStaticEmbedder_Embed_ReturnsCorrectDimensions(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	embedding, err := e.Embed(context.Background(), "func main() {}")

	require.NoError(t, err)
	assert.Len(t, embedding, Dimensions)
}

func TestStaticEmbedder_Embed_VectorIsNormalized(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	embedding, err := e.Embed(context.Background(), "func main() {}")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, vectorMagnitude(embedding), 0.001)
}

func TestStaticEmbedder_Embed_EmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	embedding, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, embedding, Dimensions)
	assert.Equal(t, 0.0, vectorMagnitude(embedding))
}

func TestStaticEmbedder_Embed_IsDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	text := "func add(a, b int) int { return a + b }"
	emb1, err1 := e.Embed(context.Background(), text)
	emb2, err2 := e.Embed(context.Background(), text)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, emb1, emb2)
}

func TestStaticEmbedder_Embed_DeterministicAcrossInstances(t *testing.T) {
	e1 := NewStaticEmbedder()
	e2 := NewStaticEmbedder()
	defer func() { _ = e1.Close() }()
	defer func() { _ = e2.Close() }()

	text := "func getUserByID(id string) (*User, error)"
	emb1, _ := e1.Embed(context.Background(), text)
	emb2, _ := e2.Embed(context.Background(), text)

	assert.Equal(t, emb1, emb2)
}

func TestStaticEmbedder_Embed_SimilarCodeCloserThanUnrelated(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	a, _ := e.Embed(context.Background(), "func getUserByID(id string) (*User, error)")
	b, _ := e.Embed(context.Background(), "func getUserByName(name string) (*User, error)")
	c, _ := e.Embed(context.Background(), "func renderPDFInvoice(path string) error")

	assert.Greater(t, cosine(a, b), cosine(a, c))
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestStaticEmbedder_EmbedBatch_MatchesIndividualEmbed(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	texts := []string{"func a() {}", "func b() {}", "func c() {}"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedder_EmbedAfterClose_ReturnsError(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "func f() {}")
	assert.Error(t, err)
}

func TestStaticEmbedder_Dimensions(t *testing.T) {
	e := NewStaticEmbedder()
	assert.Equal(t, Dimensions, e.Dimensions())
}
