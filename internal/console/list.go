// Package console 管理后台各列表页、批量操作、表单的客户端规则
//
// 每个列表视图持有 page / limit / 过滤条件，任何过滤或 limit 变化都把 page 重置为 1；
// 新请求会取消仍在进行的旧请求，旧结果不会被应用。
package console

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"strings"
	"sync"

	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
	"research-admin/pkg/logging"
)

// ErrStale 结果已被更新的请求取代
var ErrStale = errors.New("result superseded by a newer request")

// Row 列表行
type Row interface {
	RecordID() string
}

// Query 列表查询状态
type Query struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// Get 过滤值
func (q Query) Get(key string) string {
	return q.Filters[key]
}

func (q Query) equal(o Query) bool {
	return q.Page == o.Page && q.Limit == o.Limit && maps.Equal(q.Filters, o.Filters)
}

// Fetcher 拉取一页数据
type Fetcher[T Row] func(ctx context.Context, params url.Values) (*model.Page[T], error)

// ParamsBuilder 把查询状态转换为请求参数（不同页面规则不同）
type ParamsBuilder func(q Query) apiclient.Params

// ListController 列表控制器，并发安全
type ListController[T Row] struct {
	fetch    Fetcher[T]
	build    ParamsBuilder
	fallback string
	logger   *logging.Logger

	// 互斥过滤：设置其一时清除其余
	exclusive [][]string

	mu      sync.Mutex
	query   Query
	staged  string
	rows    []T
	total   int
	errMsg  string
	loading bool
	gen     uint64
	cancel  context.CancelFunc
	loaded  *Query

	onReset []func()
}

// ListOption 配置项
type ListOption func(*listOptions)

type listOptions struct {
	limit     int
	fallback  string
	logger    *logging.Logger
	exclusive [][]string
	filters   map[string]string
}

// WithPageSize 初始每页条数
func WithPageSize(n int) ListOption {
	return func(o *listOptions) { o.limit = n }
}

// WithFallbackMessage 加载失败且服务端无 message 时的文案
func WithFallbackMessage(msg string) ListOption {
	return func(o *listOptions) { o.fallback = msg }
}

// WithListLogger 日志
func WithListLogger(l *logging.Logger) ListOption {
	return func(o *listOptions) { o.logger = l }
}

// WithExclusiveFilters 互斥的过滤字段（例如 status 与 list）
func WithExclusiveFilters(keys ...string) ListOption {
	return func(o *listOptions) { o.exclusive = append(o.exclusive, keys) }
}

// WithFilters 初始过滤条件
func WithFilters(filters map[string]string) ListOption {
	return func(o *listOptions) { o.filters = filters }
}

// NewListController 创建列表控制器；build 为 nil 时只发送 page/limit 与全部过滤值
func NewListController[T Row](fetch Fetcher[T], build ParamsBuilder, opts ...ListOption) *ListController[T] {
	o := listOptions{limit: DefaultPageSize, fallback: "Failed to load"}
	for _, opt := range opts {
		opt(&o)
	}
	if !ValidPageSize(o.limit) {
		o.limit = DefaultPageSize
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if build == nil {
		build = PlainParams
	}
	filters := map[string]string{}
	for k, v := range o.filters {
		if v = strings.TrimSpace(v); v != "" {
			filters[k] = v
		}
	}
	return &ListController[T]{
		fetch:     fetch,
		build:     build,
		fallback:  o.fallback,
		logger:    o.logger,
		exclusive: o.exclusive,
		query:     Query{Page: 1, Limit: o.limit, Filters: filters},
	}
}

// OnReset 行集合变化（翻页、过滤变化）后回调，用于清空勾选
func (c *ListController[T]) OnReset(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReset = append(c.onReset, fn)
}

// SetFilter 设置过滤条件（空值表示清除），page 重置为 1
func (c *ListController[T]) SetFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value = strings.TrimSpace(value)
	if value == "" {
		delete(c.query.Filters, key)
	} else {
		c.query.Filters[key] = value
		for _, group := range c.exclusive {
			if !containsKey(group, key) {
				continue
			}
			for _, other := range group {
				if other != key {
					delete(c.query.Filters, other)
				}
			}
		}
	}
	c.query.Page = 1
}

// Filter 当前过滤值
func (c *ListController[T]) Filter(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Filters[key]
}

// SetLimit 修改每页条数，page 重置为 1
func (c *ListController[T]) SetLimit(n int) error {
	if !ValidPageSize(n) {
		return ErrInvalidPageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Limit = n
	c.query.Page = 1
	return nil
}

// SetPage 跳到指定页（从 1 开始）
func (c *ListController[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Page = n
}

// NextPage 下一页；已是最后一页时返回 false
func (c *ListController[T]) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paginationLocked().HasNext() {
		return false
	}
	c.query.Page++
	return true
}

// PrevPage 上一页；已是第一页时返回 false
func (c *ListController[T]) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query.Page <= 1 {
		return false
	}
	c.query.Page--
	return true
}

// StageSearch 只暂存输入，不触发请求
func (c *ListController[T]) StageSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = text
}

// Staged 暂存的搜索输入
func (c *ListController[T]) Staged() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staged
}

// SubmitSearch 提交暂存的搜索词，page 重置为 1
func (c *ListController[T]) SubmitSearch() {
	c.mu.Lock()
	staged := c.staged
	c.mu.Unlock()
	c.SetFilter("search", staged)
}

// Query 当前查询状态副本
func (c *ListController[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *ListController[T]) queryLocked() Query {
	return Query{Page: c.query.Page, Limit: c.query.Limit, Filters: maps.Clone(c.query.Filters)}
}

// Params 当前查询对应的请求参数
func (c *ListController[T]) Params() apiclient.Params {
	return c.build(c.Query())
}

// Load 按当前查询拉取；取消仍在进行的旧请求
//
// 被取代或被取消的请求返回 ErrStale / apiclient.ErrCanceled，且不修改列表状态。
// 其他失败写入 Err()，只影响本视图。
func (c *ListController[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	q := c.queryLocked()
	c.mu.Unlock()

	page, err := c.fetch(fctx, c.build(q).Values())

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		cancel()
		return ErrStale
	}
	cancel()
	c.cancel = nil
	c.loading = false

	if err != nil {
		if apiclient.IsCanceled(err) {
			c.mu.Unlock()
			return err
		}
		c.errMsg = apiclient.Message(err, c.fallback)
		c.mu.Unlock()
		c.logger.WithError(err).Warn("list load failed")
		return err
	}

	changed := c.loaded == nil || !c.loaded.equal(q)
	c.loaded = &q
	c.rows = page.Data
	c.total = page.Total
	c.errMsg = ""
	var hooks []func()
	if changed {
		hooks = append(hooks, c.onReset...)
	}
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Cancel 取消进行中的请求（视图关闭时调用）
func (c *ListController[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.loading = false
}

// Rows 当前行
func (c *ListController[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.rows...)
}

// Total 服务端总数
func (c *ListController[T]) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Err 本视图的错误文案
func (c *ListController[T]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// SetErr 记录本视图错误（批量操作失败等）
func (c *ListController[T]) SetErr(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
}

// Loading 是否有请求进行中
func (c *ListController[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Pagination 分页显示
func (c *ListController[T]) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paginationLocked()
}

func (c *ListController[T]) paginationLocked() Pagination {
	return Pagination{Page: c.query.Page, Limit: c.query.Limit, Total: c.total}
}

// RemoveLocal 乐观移除一行并把总数减一（申诉通过后不重新拉取）
func (c *ListController[T]) RemoveLocal(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rows {
		if r.RecordID() == id {
			c.rows = append(c.rows[:i:i], c.rows[i+1:]...)
			if c.total > 0 {
				c.total--
			}
			return true
		}
	}
	return false
}

// PlainParams page/limit 加全部过滤值
func PlainParams(q Query) apiclient.Params {
	p := apiclient.NewParams().SetInt("page", q.Page).SetInt("limit", q.Limit)
	for k, v := range q.Filters {
		p.Set(k, v)
	}
	return p
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
