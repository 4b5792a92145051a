package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/apiclient"
	"research-admin/internal/session"
	"research-admin/internal/shared/storage"
	"research-admin/tests/testutil"
)

// TestAuth_Me 当前登录用户信息
func TestAuth_Me(t *testing.T) {
	u, err := c.API.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, u.Email)
	assert.True(t, u.Role.Valid(), "unexpected role %q", u.Role)
}

// TestAuth_SessionRestore 持久化的会话可以在新进程中恢复
func TestAuth_SessionRestore(t *testing.T) {
	ctx := context.Background()
	h := session.New(c.API, nil)
	require.NoError(t, h.Init(ctx))
	assert.Equal(t, session.StateReady, h.State())
	require.NotNil(t, h.CurrentUser())
	assert.NotEmpty(t, h.Capabilities().List())
}

// TestAuth_WrongPassword 错误密码不会写入会话
func TestAuth_WrongPassword(t *testing.T) {
	anon := testutil.NewAnonymousClient(c.BaseURL)
	_, err := anon.Session.Login(context.Background(), "nobody@example.com", "definitely-wrong")
	require.Error(t, err)
	assert.NotEmpty(t, apiclient.Message(err, "Login failed"))

	_, err = anon.Store.Get(context.Background(), storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestAuth_UnauthorizedAccess 未登录请求被拒绝
func TestAuth_UnauthorizedAccess(t *testing.T) {
	anon := testutil.NewAnonymousClient(c.BaseURL)
	_, err := anon.API.Dashboard.Get(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}
