package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, err := kv.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, KeyToken, "t"))
	require.NoError(t, kv.Set(ctx, KeyUser, "u"))
	assert.Equal(t, 2, kv.Len())

	v, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "t", v)

	require.NoError(t, kv.Delete(ctx, KeyToken, KeyUser, "absent"))
	assert.Equal(t, 0, kv.Len())

	require.NoError(t, kv.Close())
	assert.ErrorIs(t, kv.Set(ctx, KeyToken, "x"), ErrClosed)
}
