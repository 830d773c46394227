// Package metrics 提供基于 Prometheus 的监控指标功能.
//
// Example:
//
//	import "github.com/uachado/uachado/pkg/metrics"
//
//	metrics.Init(config.Metrics)
//	metrics.RequestCounter.WithLabelValues("GET", "/api/v1/items", "200").Inc()
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uachado/uachado/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ItemsArchived 惰性归档扫描转入 archived 状态的物品总数.
	ItemsArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uachado_items_archived_total",
			Help: "Total number of items moved to the archived state",
		},
	)

	// NotificationsSent 已发出的邮件通知总数，按通知类型区分.
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uachado_notifications_sent_total",
			Help: "Total number of email notifications sent",
		},
		[]string{"kind"},
	)

	// NotificationFailures 发送失败的邮件通知总数.
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uachado_notification_failures_total",
			Help: "Total number of email notifications that failed to send",
		},
		[]string{"kind"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// Init 注册标准收集器和自定义指标.
func Init(config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry.MustRegister(
		RequestCounter,
		RequestDuration,
		ItemsArchived,
		NotificationsSent,
		NotificationFailures,
	)
}

// Register 在主引擎上暴露指标端点.
func Register(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	engine.GET(config.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
