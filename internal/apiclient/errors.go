package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCanceled 请求被更新的请求取代或调用方取消；界面层应静默忽略
	ErrCanceled = errors.New("request canceled")
	// ErrUnauthorized 401（非登录接口），本地会话已被清除
	ErrUnauthorized = errors.New("session expired")
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string // 响应体中的 message 字段，可能为空
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// Unwrap 401 映射到 ErrUnauthorized，便于 errors.Is 判断
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// StatusOf 返回 APIError 的状态码，其他错误返回 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsCanceled 判断是否为取消（不应展示给用户）
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Message 返回可展示的错误文案：服务端 message 优先，否则使用 fallback
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
