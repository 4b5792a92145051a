// Package testutil 提供 E2E 测试共享基础设施
//
// E2EClient 封装了已登录的 apiclient + 会话持有者，
// 供 tests/e2e/ 下各子包复用。
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"research-admin/internal/apiclient"
	"research-admin/internal/session"
	"research-admin/internal/shared/storage"
)

// E2EClient 端到端测试共享客户端
type E2EClient struct {
	BaseURL string
	Store   storage.KV
	API     *apiclient.Client
	Session *session.Holder
}

// SetupE2EClient 初始化 E2E 客户端
// 读取 API_BASE_URL，等待服务就绪后用 ADMIN_EMAIL / ADMIN_PASSWORD 登录
// 返回 error 时调用者应 os.Exit(0) 跳过测试
func SetupE2EClient() (*E2EClient, error) {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL not set")
	}
	if !waitForAPI(baseURL, 15*time.Second) {
		return nil, fmt.Errorf("API not ready at %s", baseURL)
	}

	c := NewAnonymousClient(baseURL)
	email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL / ADMIN_PASSWORD not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	u, err := c.Session.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "e2e: logged in to %s as %s (%s)\n", baseURL, u.Email, u.Role)
	return c, nil
}

// NewAnonymousClient 未登录的客户端（内存会话存储）
func NewAnonymousClient(baseURL string) *E2EClient {
	kv := storage.NewMemoryKV()
	api := apiclient.New(baseURL, kv, apiclient.WithTimeout(30*time.Second))
	return &E2EClient{
		BaseURL: baseURL,
		Store:   kv,
		API:     api,
		Session: session.New(api, nil),
	}
}

// waitForAPI 任意 HTTP 响应都视为就绪（根路径可能 404）
func waitForAPI(baseURL string, timeout time.Duration) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/api/auth/me")
		if err == nil {
			resp.Body.Close()
			return true
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}
