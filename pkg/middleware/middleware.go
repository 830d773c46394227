// Package middleware 提供HTTP中间件：认证、日志、限流、CORS、存储注入与指标采集.
package middleware
