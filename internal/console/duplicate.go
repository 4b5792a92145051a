package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"research-admin/internal/apiclient"
	"research-admin/internal/metrics"
	"research-admin/internal/shared/model"
	"research-admin/pkg/logging"
)

// 查重默认参数
const (
	DefaultDuplicateMinLength = 10
	DefaultDuplicateDebounce  = 400 * time.Millisecond
)

// 查重请求字段
const (
	FieldCompanyLink  = "companyLink"
	FieldLinkedinLink = "linkedinLink"
)

// DuplicateField 按目标类型选择查重字段
func DuplicateField(t model.ResearchType) string {
	if t == model.ResearchTypeLinkedIn {
		return FieldLinkedinLink
	}
	return FieldCompanyLink
}

// DuplicateLookup 查重请求（apiclient.ResearchService.CheckDuplicate）
type DuplicateLookup func(ctx context.Context, field, link string) (*apiclient.DuplicateResult, error)

// DuplicateChecker 输入过程中的链接查重
//
// 每次 Update 重置计时器，停止输入 delay 之后只对最终值发一次请求；
// 新的输入会取消仍在进行的旧请求，旧结果不会被应用。
// 请求失败按"不重复"处理，不阻止提交。
type DuplicateChecker struct {
	lookup   DuplicateLookup
	minLen   int
	delay    time.Duration
	metrics  *metrics.Metrics
	logger   *logging.Logger
	onResult func(apiclient.DuplicateResult)

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	pending bool
	result  apiclient.DuplicateResult
}

// DuplicateOption 配置项
type DuplicateOption func(*DuplicateChecker)

// WithDebounce 计时器间隔
func WithDebounce(d time.Duration) DuplicateOption {
	return func(c *DuplicateChecker) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithMinLength 触发查重的最短链接长度
func WithMinLength(n int) DuplicateOption {
	return func(c *DuplicateChecker) {
		if n > 0 {
			c.minLen = n
		}
	}
}

// WithDuplicateMetrics 记录查重结果计数
func WithDuplicateMetrics(m *metrics.Metrics) DuplicateOption {
	return func(c *DuplicateChecker) { c.metrics = m }
}

// WithDuplicateLogger 日志
func WithDuplicateLogger(l *logging.Logger) DuplicateOption {
	return func(c *DuplicateChecker) { c.logger = l }
}

// OnDuplicateResult 每次应用结果后回调（不在锁内调用）
func OnDuplicateResult(fn func(apiclient.DuplicateResult)) DuplicateOption {
	return func(c *DuplicateChecker) { c.onResult = fn }
}

// NewDuplicateChecker 创建查重器
func NewDuplicateChecker(lookup DuplicateLookup, opts ...DuplicateOption) *DuplicateChecker {
	c := &DuplicateChecker{
		lookup: lookup,
		minLen: DefaultDuplicateMinLength,
		delay:  DefaultDuplicateDebounce,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update 链接或类型变化时调用
func (c *DuplicateChecker) Update(ctx context.Context, field, link string) {
	link = strings.TrimSpace(link)

	c.mu.Lock()
	gen := c.supersedeLocked()
	if len(link) < c.minLen {
		c.result = apiclient.DuplicateResult{}
		c.pending = false
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.timer = time.AfterFunc(c.delay, func() {
		c.run(ctx, gen, field, link)
	})
	c.mu.Unlock()
}

// Check 立即查重（不经过计时器），结果同样写入 Result
func (c *DuplicateChecker) Check(ctx context.Context, field, link string) apiclient.DuplicateResult {
	link = strings.TrimSpace(link)
	c.mu.Lock()
	gen := c.supersedeLocked()
	if len(link) < c.minLen {
		c.result = apiclient.DuplicateResult{}
		c.pending = false
		c.mu.Unlock()
		return apiclient.DuplicateResult{}
	}
	c.pending = true
	c.mu.Unlock()

	c.run(ctx, gen, field, link)
	return c.Result()
}

// supersedeLocked 作废计时器与进行中的请求，返回新的代号
func (c *DuplicateChecker) supersedeLocked() uint64 {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.gen
}

func (c *DuplicateChecker) run(ctx context.Context, gen uint64, field, link string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	cctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	res, err := c.lookup(cctx, field, link)
	cancel()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.metrics.RecordDuplicateCheck("canceled")
		return
	}
	c.cancel = nil
	c.pending = false
	outcome := "unique"
	switch {
	case err != nil:
		outcome = "failed"
		if apiclient.IsCanceled(err) {
			outcome = "canceled"
		}
		c.result = apiclient.DuplicateResult{}
	case res == nil:
		c.result = apiclient.DuplicateResult{}
	default:
		c.result = *res
		if res.Duplicate {
			outcome = "duplicate"
		}
	}
	result := c.result
	c.mu.Unlock()

	c.metrics.RecordDuplicateCheck(outcome)
	if err != nil {
		c.logger.WithError(err).Debug("duplicate check failed", "field", field)
	}
	if c.onResult != nil {
		c.onResult(result)
	}
}

// Result 最近一次应用的结果
func (c *DuplicateChecker) Result() apiclient.DuplicateResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Pending 是否有等待中的计时器或请求
func (c *DuplicateChecker) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Blocked 检测到重复时禁止提交
func (c *DuplicateChecker) Blocked() bool {
	return c.Result().Duplicate
}

// Message 重复提示
func (c *DuplicateChecker) Message(t model.ResearchType) string {
	return DuplicateMessage(t, c.Result())
}

// DuplicateMessage 重复提示文案，不重复时为空
func DuplicateMessage(t model.ResearchType, res apiclient.DuplicateResult) string {
	if !res.Duplicate {
		return ""
	}
	ref := "—"
	if res.Existing != nil && res.Existing.ReferenceNo != "" {
		ref = res.Existing.ReferenceNo
	}
	what := "website"
	if t == model.ResearchTypeLinkedIn {
		what = "LinkedIn profile"
	}
	return fmt.Sprintf("Duplicate detected. This %s already exists (Ref: %s).", what, ref)
}

// Stop 关闭视图时调用
func (c *DuplicateChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.pending = false
}
