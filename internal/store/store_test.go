package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_InMemory_CreatesSchema(t *testing.T) {
	s := openMemStore(t)

	ctx := context.Background()
	version, ok, err := s.GetMetadata(ctx, MetaSchemaVersion)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", version)

	_, ok, err = s.GetMetadata(ctx, MetaCreatedAt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_Twice_IsIdempotent(t *testing.T) {
	s := openMemStore(t)
	require.NoError(t, s.initSchema(context.Background()))
}

func TestClose_IsIdempotent(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestCheckOpen_AfterClose_ReturnsClosedError(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.GetMetadata(context.Background(), MetaSchemaVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestOpenReadOnly_MissingFile_Errors(t *testing.T) {
	_, err := OpenReadOnly("/nonexistent/path/to/index.db")
	require.Error(t, err)
}

func TestSetMetadata_GetMetadata_RoundTrips(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMetadata(ctx, "custom_key", "v1"))
	value, ok, err := s.GetMetadata(ctx, "custom_key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", value)

	require.NoError(t, s.SetMetadata(ctx, "custom_key", "v2"))
	value, ok, err = s.GetMetadata(ctx, "custom_key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", value)
}

func TestGetMetadata_MissingKey_ReturnsNotOK(t *testing.T) {
	s := openMemStore(t)
	_, ok, err := s.GetMetadata(context.Background(), "does_not_exist")
	require.NoError(t, err)
	assert.False(t, ok)
}
