package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/shared/storage"
)

func TestStore_PlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := New(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, storage.KeyToken, "tok-1"))
	require.NoError(t, s.Set(ctx, storage.KeyUser, `{"id":"u1"}`))

	got, err := s.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Delete(ctx, storage.KeyToken, storage.KeyUser))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty state removes the file")
}

func TestStore_Sealed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := New(path, WithSecret("correct horse"))
	require.NoError(t, err)
	assert.True(t, s.Sealed())

	require.NoError(t, s.Set(ctx, storage.KeyToken, "tok-secret"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), sealedPrefix))
	assert.NotContains(t, string(raw), "tok-secret")

	got, err := s.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", got)

	wrong, err := New(path, WithSecret("battery staple"))
	require.NoError(t, err)
	_, err = wrong.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrSealed)

	noKey, err := New(path)
	require.NoError(t, err)
	_, err = noKey.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrSealed)

	// 密钥不匹配时清空即可恢复
	require.NoError(t, wrong.Delete(ctx, storage.KeyToken, storage.KeyUser))
	_, err = wrong.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_PlainFileUpgradedOnWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"old"}`), 0o600))

	s, err := New(path, WithSecret("k"))
	require.NoError(t, err)
	got, err := s.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "old", got)

	require.NoError(t, s.Set(ctx, storage.KeyUser, "{}"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), sealedPrefix))
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
