// Package api 将业务路由组挂载到 gin 引擎，对外统一走 /api/v1 前缀.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/uachado/uachado/pkg/internal/router"
)

// RegisterGroup 注册物品路由与健康检查路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	root := e.Group("")
	router.RegisterHealthCheckRoute(root)
	router.Register(e.Group("/api/v1"))

	return e
}
