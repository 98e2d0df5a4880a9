// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 扫描指标
	scanFindingsTotal *prometheus.CounterVec
	scanDuration      prometheus.Histogram

	// 分析指标
	analysisRejectionsTotal *prometheus.CounterVec

	// 执行指标
	executionsTotal    *prometheus.CounterVec
	executionDuration  prometheus.Histogram
	executionTruncated prometheus.Counter
	executionSlotsBusy prometheus.Gauge
	executionThrottled prometheus.Counter

	// 裁决指标
	verdictsTotal *prometheus.CounterVec

	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。
// registerer 为 nil 时注册到全局 Registry；测试注入独立 Registry。
func NewCollector(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(registerer)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 扫描指标
	c.scanFindingsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_findings_total",
			Help:      "Total number of scanner findings",
		},
		[]string{"category", "severity"},
	)

	c.scanDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Pattern scan duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// 分析指标
	c.analysisRejectionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_rejections_total",
			Help:      "Total number of static analysis rejections",
		},
		[]string{"rule_id"},
	)

	// 执行指标
	c.executionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Total number of isolated executions",
		},
		[]string{"status"},
	)

	c.executionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Isolated execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	c.executionTruncated = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_output_truncated_total",
			Help:      "Total number of executions with truncated output",
		},
	)

	c.executionSlotsBusy = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "execution_slots_busy",
			Help:      "Number of execution slots currently in use",
		},
	)

	c.executionThrottled = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_throttled_total",
			Help:      "Total number of executions rejected by pool admission",
		},
	)

	// 裁决指标
	c.verdictsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Total number of assembled verdicts",
		},
		[]string{"disposition"},
	)

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🔍 扫描指标记录
// =============================================================================

// RecordScan 记录一次扫描
func (c *Collector) RecordScan(duration time.Duration) {
	c.scanDuration.Observe(duration.Seconds())
}

// RecordFinding 记录单个检出
func (c *Collector) RecordFinding(category, severity string) {
	c.scanFindingsTotal.WithLabelValues(category, severity).Inc()
}

// =============================================================================
// 🧪 分析指标记录
// =============================================================================

// RecordRejection 记录静态分析拒绝
func (c *Collector) RecordRejection(ruleID string) {
	c.analysisRejectionsTotal.WithLabelValues(ruleID).Inc()
}

// =============================================================================
// ⚙️ 执行指标记录
// =============================================================================

// RecordExecution 记录一次隔离执行
func (c *Collector) RecordExecution(status string, duration time.Duration, truncated bool) {
	c.executionsTotal.WithLabelValues(status).Inc()
	c.executionDuration.Observe(duration.Seconds())
	if truncated {
		c.executionTruncated.Inc()
	}
}

// RecordThrottled 记录一次准入限流
func (c *Collector) RecordThrottled() {
	c.executionThrottled.Inc()
}

// SetSlotsBusy 记录执行槽位占用数
func (c *Collector) SetSlotsBusy(n int64) {
	c.executionSlotsBusy.Set(float64(n))
}

// =============================================================================
// ⚖️ 裁决指标记录
// =============================================================================

// RecordVerdict 记录最终裁决
func (c *Collector) RecordVerdict(disposition string) {
	c.verdictsTotal.WithLabelValues(disposition).Inc()
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
