package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/shared/storage"
)

func TestDSNForPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:"},
		{"file:x.db?mode=ro", "file:x.db?mode=ro"},
		{"/tmp/session.json", "file:/tmp/session.db?mode=rwc"},
		{"/tmp/session.db", "file:/tmp/session.db?mode=rwc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := DSNForPath(tt.in); got != tt.want {
				t.Errorf("DSNForPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, storage.KeyToken, "a"))
	require.NoError(t, s.Set(ctx, storage.KeyToken, "b"))
	require.NoError(t, s.Set(ctx, storage.KeyUser, `{"id":"u1"}`))

	got, err := s.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	require.NoError(t, s.Delete(ctx, storage.KeyToken, storage.KeyUser, "missing"))
	_, err = s.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, s.Delete(ctx))
}

func TestStore_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", "v"))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
