// Package apiclient 研究/询盘后台 REST API 客户端
//
// 负责：
//   - 从本地会话存储读取 token 并附加 Authorization: Bearer 头
//   - JSON 请求体设置 application/json；multipart 表单由 Form 生成 boundary，不强制 JSON
//   - 非登录接口返回 401 时清除本地 token+user，通知 Invalidator，并跳转到 "/"
//   - 其余错误原样返回（*APIError / ErrCanceled / 传输错误），不重试
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"research-admin/internal/metrics"
	"research-admin/internal/shared/storage"
	"research-admin/pkg/logging"
)

// LoginPath 登录接口；该路径的 401 视为"凭据错误"而非会话失效
const LoginPath = "/api/auth/login"

// Invalidator 接收会话失效通知（会话持有者清除内存中的用户）
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Navigator 会话失效后的跳转
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc 函数适配
type NavigatorFunc func(path string)

// Redirect 实现 Navigator
func (f NavigatorFunc) Redirect(path string) { f(path) }

// Client API 客户端
type Client struct {
	baseURL string
	http    *http.Client
	store   storage.KV
	logger  *logging.Logger
	metrics *metrics.Metrics

	mu           sync.Mutex
	invalidators []Invalidator
	navigator    Navigator
	// 已处理过 401，直到下次登录前并发或后续的 401 都不再跳转
	redirected bool

	Auth       *AuthService
	Research   *ResearchService
	Inquiry    *InquiryService
	Audit      *AuditService
	Categories *CategoryService
	Users      *UserService
	Payments   *PaymentService
	Dashboard  *DashboardService
	Notices    *NoticeService
	Settings   *SettingsService
}

// Option 配置项
type Option func(*Client)

// WithHTTPClient 自定义 http.Client（测试或代理）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout 单请求超时；0 使用传输层默认值
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger 日志
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics 出站请求指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithNavigator 会话失效时的跳转目标
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// New 创建客户端；store 保存 token 与用户快照
func New(baseURL string, store storage.KV, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		store:   store,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthService{c: c}
	c.Research = &ResearchService{c: c}
	c.Inquiry = &InquiryService{c: c}
	c.Audit = &AuditService{c: c}
	c.Categories = &CategoryService{c: c}
	c.Users = &UserService{c: c}
	c.Payments = &PaymentService{c: c}
	c.Dashboard = &DashboardService{c: c}
	c.Notices = &NoticeService{c: c}
	c.Settings = &SettingsService{c: c}
	return c
}

// BaseURL 服务端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store 会话存储
func (c *Client) Store() storage.KV {
	return c.store
}

// AddInvalidator 注册会话失效监听
func (c *Client) AddInvalidator(inv Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidators = append(c.invalidators, inv)
}

// SetNavigator 替换跳转目标
func (c *Client) SetNavigator(n Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigator = n
}

// token 读取持久化 token，不存在返回空串
func (c *Client) token(ctx context.Context) string {
	if c.store == nil {
		return ""
	}
	t, err := c.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return ""
	}
	return t
}

// Get GET 请求，params 为查询参数
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

// Post POST 请求
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put PUT 请求
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch PATCH 请求
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete DELETE 请求
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do 发送请求；body 可为 nil、*Form 或任意 JSON 值，out 为 nil 时丢弃响应体
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	token := c.token(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	done := c.metrics.RequestStarted(method, path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		done(0, err)
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%w: %s %s", ErrCanceled, method, path)
		}
		c.logger.HTTPRequestLog(method, path, 0, time.Since(start), err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		done(resp.StatusCode, err)
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s %s", ErrCanceled, method, path)
		}
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	done(resp.StatusCode, nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: serverMessage(data), Path: path}
		c.logger.HTTPRequestLog(method, path, resp.StatusCode, time.Since(start), apiErr)
		if resp.StatusCode == http.StatusUnauthorized && !strings.Contains(path, "/auth/login") {
			c.invalidate(ctx)
		}
		return apiErr
	}
	c.logger.HTTPRequestLog(method, path, resp.StatusCode, time.Since(start), nil)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		r, ct, err := b.encode()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		reader, contentType = r, ct
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader, contentType = bytes.NewReader(payload), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// invalidate 每次都清除本地会话；通知与跳转只在首次触发
func (c *Client) invalidate(ctx context.Context) {
	if c.store != nil {
		// 请求上下文可能已取消，清理不应因此失败
		if err := c.store.Delete(context.WithoutCancel(ctx), storage.KeyToken, storage.KeyUser); err != nil {
			c.logger.WithError(err).Warn("failed to clear session")
		}
	}

	c.mu.Lock()
	if c.redirected {
		c.mu.Unlock()
		return
	}
	c.redirected = true
	invalidators := append([]Invalidator(nil), c.invalidators...)
	navigator := c.navigator
	c.mu.Unlock()

	c.metrics.RecordInvalidation()
	c.logger.Info("session invalidated by 401")

	for _, inv := range invalidators {
		inv.Invalidate(ctx)
	}
	if navigator != nil {
		navigator.Redirect("/")
	}
}

// ResetInvalidation 登录成功后调用，使新 token 的 401 能再次触发跳转
func (c *Client) ResetInvalidation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redirected = false
}

func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
