package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Add(context.Background(), []Point{
		{ID: "chunk:a", Embedding: []float32{1, 0, 0}},
		{ID: "chunk:b", Embedding: []float32{0, 1, 0}},
		{ID: "note:c", Embedding: []float32{0, 0, 1}},
	}))
	return idx
}

func TestSaveLoad_RoundTripsSearchResults(t *testing.T) {
	idx := buildSampleIndex(t)
	prefix := filepath.Join(t.TempDir(), "hnsw")
	require.NoError(t, idx.Save(prefix))

	loaded, err := Load(prefix, testConfig())
	require.NoError(t, err)
	assert.Equal(t, idx.Len(), loaded.Len())

	results, err := loaded.Search(context.Background(), []float32{1, 0, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk:a", results[0].ID)
}

func TestSave_WritesAllFourFiles(t *testing.T) {
	idx := buildSampleIndex(t)
	prefix := filepath.Join(t.TempDir(), "hnsw")
	require.NoError(t, idx.Save(prefix))

	for _, p := range []string{graphPath(prefix), dataPath(prefix), idsPath(prefix), checksumPath(prefix)} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestLoad_TamperedDataFile_FailsChecksum(t *testing.T) {
	idx := buildSampleIndex(t)
	prefix := filepath.Join(t.TempDir(), "hnsw")
	require.NoError(t, idx.Save(prefix))

	f, err := os.OpenFile(dataPath(prefix), os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Load(prefix, testConfig())
	require.Error(t, err)
}

func TestLoad_MissingChecksumFile_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), testConfig())
	assert.Error(t, err)
}
