package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uachado/uachado/pkg/metrics"
)

// PrometheusMiddleware Prometheus监控中间件.
// endpoint 维度使用路由模板（如 /api/v1/items/:id），避免按具体 ID 产生高基数标签.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// 执行下一个中间件/处理器
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" { // 未匹配路由（404）
			endpoint = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())

		// 记录请求计数
		metrics.RequestCounter.WithLabelValues(method, endpoint, status).Inc()

		// 记录请求持续时间
		duration := time.Since(start).Seconds()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}
