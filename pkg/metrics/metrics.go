// Package metrics 基于Prometheus的指标收集
//
// 指标分三组：
//   - HTTP：请求总数、耗时、处理中的请求数（由middleware.Metrics记录）
//   - 业务：关系写入次数、评分重算次数与耗时、图书增删改次数
//   - 基础设施：熔断器状态、消息发布/消费、限流拒绝次数
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds），标签只使用有限取值
// （method、status、result），不要把user_id、book_id放进标签。
//
// 所有记录函数内部都会先调用InitMetrics，未显式初始化时也不会因为nil指标panic。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数，标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// RelationWritesTotal 用户-图书关系写入次数，标签：result（created/updated/failed）
	RelationWritesTotal *prometheus.CounterVec

	// RatingRecomputesTotal 评分重算次数，标签：result（success/failure）
	RatingRecomputesTotal *prometheus.CounterVec

	// RatingRecomputeDuration 评分重算耗时（含锁等待）
	RatingRecomputeDuration prometheus.Histogram

	// BookMutationsTotal 图书增删改次数，标签：op（create/update/delete）
	BookMutationsTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// MessagesPublishedTotal 消息发布总数，标签：exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数，标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration prometheus.Histogram

	// RateLimitedTotal 被限流拒绝的请求数
	RateLimitedTotal prometheus.Counter
)

// InitMetrics 注册所有指标到默认Registry（多次调用只注册一次）
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	RelationWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_writes_total",
			Help: "用户-图书关系写入次数",
		},
		[]string{"result"},
	)

	RatingRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_recomputes_total",
			Help: "图书评分重算次数",
		},
		[]string{"result"},
	)

	RatingRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "rating_recompute_duration_seconds",
			Help: "图书评分重算耗时（秒）",
			// 单行锁+一次聚合查询，正常在毫秒级
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	BookMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "book_mutations_total",
			Help: "图书增删改次数",
		},
		[]string{"op"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "被限流拒绝的请求数",
		},
	)
}

// =========================================
// 记录函数（业务代码只调用这些函数）
// =========================================

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// TrackInFlight 处理中请求数+1，返回的函数用于-1
func TrackInFlight() func() {
	InitMetrics()
	HTTPRequestsInProgress.Inc()
	return HTTPRequestsInProgress.Dec
}

// IncRelationWrite 记录一次关系写入
func IncRelationWrite(result string) {
	InitMetrics()
	RelationWritesTotal.WithLabelValues(result).Inc()
}

// ObserveRatingRecompute 记录一次评分重算
func ObserveRatingRecompute(err error, seconds float64) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	RatingRecomputesTotal.WithLabelValues(result).Inc()
	RatingRecomputeDuration.Observe(seconds)
}

// IncBookMutation 记录一次图书增删改
func IncBookMutation(op string) {
	InitMetrics()
	BookMutationsTotal.WithLabelValues(op).Inc()
}

// SetCircuitBreakerState 设置熔断器状态
func SetCircuitBreakerState(name string, state float64) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// IncCircuitBreakerRequest 记录熔断器请求结果
func IncCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncMessagePublished 记录一次消息发布
func IncMessagePublished(exchange, routingKey string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey).Inc()
}

// ObserveMessageConsumed 记录一次消息消费
func ObserveMessageConsumed(queue, result string, seconds float64) {
	InitMetrics()
	MessagesConsumedTotal.WithLabelValues(queue, result).Inc()
	MessageProcessingDuration.Observe(seconds)
}

// IncRateLimited 记录一次限流拒绝
func IncRateLimited() {
	InitMetrics()
	RateLimitedTotal.Inc()
}
