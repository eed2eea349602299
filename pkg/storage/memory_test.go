package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/pkg/errors"
)

type record struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestMemoryStoragePutGet(t *testing.T) {
	s := NewInMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rounds/0", record{Name: "first", Value: 1}))

	var got record
	require.NoError(t, s.Get(ctx, "rounds/0", &got))
	assert.Equal(t, record{Name: "first", Value: 1}, got)

	assert.ErrorIs(t, s.Get(ctx, "rounds/99", &got), errors.ErrNotFound)
	assert.ErrorIs(t, s.Put(ctx, "", record{}), errors.ErrEmptyKey)
}

func TestMemoryStorageListPrefix(t *testing.T) {
	s := NewInMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rounds/0", record{Value: 0}))
	require.NoError(t, s.Put(ctx, "rounds/1", record{Value: 1}))
	require.NoError(t, s.Put(ctx, "rounds/2", record{Value: 2}))
	require.NoError(t, s.Put(ctx, "weights/latest", record{Value: 9}))

	keys, total, err := s.List(ctx, "rounds/", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []string{"rounds/0", "rounds/1", "rounds/2"}, keys)

	keys, total, err = s.List(ctx, "rounds/", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []string{"rounds/1"}, keys)

	keys, _, err = s.List(ctx, "rounds/", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStorageDelete(t *testing.T) {
	s := NewInMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "weights/latest", record{Value: 1}))
	require.NoError(t, s.Delete(ctx, "weights/latest"))

	var got record
	assert.ErrorIs(t, s.Get(ctx, "weights/latest", &got), errors.ErrNotFound)
}
