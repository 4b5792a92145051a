package infra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/config"
	"research-admin/internal/shared/storage"
	sqlitestore "research-admin/internal/shared/storage/driver/sqlite"
	filestore "research-admin/internal/shared/storage/file"
)

func TestOpenSessionStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		session config.SessionConfig
		redis   config.RedisConfig
		check   func(t *testing.T, kv storage.KV)
		wantErr bool
	}{
		{
			name:    "memory",
			session: config.SessionConfig{Driver: config.SessionDriverMemory},
			check: func(t *testing.T, kv storage.KV) {
				assert.IsType(t, &storage.MemoryKV{}, kv)
			},
		},
		{
			name:    "file sealed",
			session: config.SessionConfig{Driver: config.SessionDriverFile, Path: filepath.Join(dir, "s.json"), Secret: "k"},
			check: func(t *testing.T, kv storage.KV) {
				fs, ok := kv.(*filestore.Store)
				require.True(t, ok)
				assert.True(t, fs.Sealed())
			},
		},
		{
			name:    "empty driver falls back to file",
			session: config.SessionConfig{Path: filepath.Join(dir, "plain.json")},
			check: func(t *testing.T, kv storage.KV) {
				fs, ok := kv.(*filestore.Store)
				require.True(t, ok)
				assert.False(t, fs.Sealed())
			},
		},
		{
			name:    "sqlite",
			session: config.SessionConfig{Driver: config.SessionDriverSQLite, Path: filepath.Join(dir, "s.json")},
			check: func(t *testing.T, kv storage.KV) {
				assert.IsType(t, &sqlitestore.Store{}, kv)
			},
		},
		{
			name:    "redis without url",
			session: config.SessionConfig{Driver: config.SessionDriverRedis},
			wantErr: true,
		},
		{
			name:    "unknown",
			session: config.SessionConfig{Driver: "etcd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := OpenSessionStore(&config.Config{Session: tt.session, Redis: tt.redis})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			tt.check(t, kv)

			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, storage.KeyToken, "tok"))
			v, err := kv.Get(ctx, storage.KeyToken)
			require.NoError(t, err)
			assert.Equal(t, "tok", v)
		})
	}
}

func TestNew_WithoutMinIO(t *testing.T) {
	inf, err := New(&config.Config{Session: config.SessionConfig{Driver: config.SessionDriverMemory}}, nil)
	require.NoError(t, err)
	defer inf.Close()

	assert.Nil(t, inf.Objects)
	require.NotNil(t, inf.Attachments)
	_, err = inf.Attachments.Resolve(context.Background(), "s3://b/k.png")
	assert.Error(t, err)
}
