package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue", "status"},
	)

	// 分类模型调用延迟（毫秒）
	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_call_latency_ms",
			Help:    "LLM classification call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"model", "status"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 消息路由计数
	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_routed_total",
			Help: "Total number of message routing attempts",
		},
		[]string{"trigger", "team", "status"}, // trigger: single, batch, event
	)

	// 邮件发送计数
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of outbound emails",
		},
		[]string{"kind", "status"}, // kind: team_notification, welcome, completion, manager_alert
	)

	// 入驻任务生成计数
	OnboardingTasksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_tasks_created_total",
			Help: "Total number of onboarding tasks seeded",
		},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries above the slow threshold",
		},
		[]string{"sql"},
	)

	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue, status string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue, status).Observe(float64(duration.Milliseconds()))
}

// RecordClassifierLatency 记录分类调用延迟
func RecordClassifierLatency(model, status string, duration time.Duration) {
	ClassifierLatency.WithLabelValues(model, status).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementMessageRouted 增加路由计数；失败时 team 为空
func IncrementMessageRouted(trigger, team, status string) {
	MessagesRouted.WithLabelValues(trigger, team, status).Inc()
}

// IncrementEmailSent 增加邮件发送计数
func IncrementEmailSent(kind, status string) {
	EmailsSent.WithLabelValues(kind, status).Inc()
}

// AddOnboardingTasks 增加入驻任务计数
func AddOnboardingTasks(n int) {
	OnboardingTasksCreated.Add(float64(n))
}

// IncrementSlowQuery 记录一次慢查询
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(sql).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}
