// Package metrics Prometheus 指标导出
//
// 记录控制台发往后端 API 的请求数、耗时和会话失效次数，
// 开启 metrics.enabled 时通过 /metrics 暴露。
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace 指标前缀
const DefaultNamespace = "research_admin"

// Metrics 控制台客户端指标
type Metrics struct {
	// 出站请求指标
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// 401 触发的会话失效
	SessionInvalidations prometheus.Counter

	// 查重请求（含被取消的）
	DuplicateChecks *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New 在指定 registry 上注册指标，reg 为 nil 时使用默认 registry
func New(namespace string, reg *prometheus.Registry) *Metrics {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer = reg
		gatherer = reg
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(registerer)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total outbound API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Outbound API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "api_requests_in_flight",
				Help:      "Current number of outbound API requests",
			},
		),
		SessionInvalidations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_session_invalidations_total",
				Help:      "Sessions cleared after an unauthorized response",
			},
		),
		DuplicateChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_checks_total",
				Help:      "Duplicate link checks by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: gatherer,
	}
}

// StatusCanceled 请求被取消时的 status 标签
const StatusCanceled = "canceled"

// StatusError 传输层失败时的 status 标签
const StatusError = "error"

// RequestStarted 返回结束回调；status 为 0 时按 err 记为 canceled/error
func (m *Metrics) RequestStarted(method, path string) func(status int, err error) {
	if m == nil {
		return func(int, error) {}
	}
	start := time.Now()
	m.RequestsInFlight.Inc()
	norm := NormalizePath(path)
	return func(status int, err error) {
		m.RequestsInFlight.Dec()
		label := strconv.Itoa(status)
		if status == 0 {
			label = StatusError
			if errors.Is(err, context.Canceled) {
				label = StatusCanceled
			}
		}
		m.RequestsTotal.WithLabelValues(method, norm, label).Inc()
		m.RequestDuration.WithLabelValues(method, norm).Observe(time.Since(start).Seconds())
	}
}

// RecordInvalidation 记录一次会话失效
func (m *Metrics) RecordInvalidation() {
	if m == nil {
		return
	}
	m.SessionInvalidations.Inc()
}

// RecordDuplicateCheck outcome: duplicate | unique | failed | canceled
func (m *Metrics) RecordDuplicateCheck(outcome string) {
	if m == nil {
		return
	}
	m.DuplicateChecks.WithLabelValues(outcome).Inc()
}

// NormalizePath 规范化路径，将 ID 段替换为 {id}，避免高基数
//
//	/api/research/65f0c2a1e4b0a1b2c3d4e5f6/appeal -> /api/research/{id}/appeal
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(seg string) bool {
	if seg == "" {
		return false
	}
	digits := 0
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F', r == '-':
		default:
			return false
		}
	}
	// 纯数字或 ObjectID/UUID 形态
	return digits == len(seg) || (len(seg) >= 12 && digits > 0)
}

// Handler 返回 /metrics Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve 在 addr 上暴露 /metrics，ctx 结束时关闭
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
