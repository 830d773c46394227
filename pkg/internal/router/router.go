// Package router 管理路由配置，将路径绑定到 pkg/internal/handle 提供的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// Register 注册全部业务路由到 API 路由组.
func Register(api *gin.RouterGroup) {
	RegisterItemsRoutes(api)
}
