package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/uachado/uachado/pkg/context"
	"github.com/uachado/uachado/pkg/internal/storage"
)

// StorageMiddleware 将存储管理器注入请求上下文，下游服务经 pkg/context 取用.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
