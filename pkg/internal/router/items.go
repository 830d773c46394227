package router

import (
	"github.com/gin-gonic/gin"

	"github.com/uachado/uachado/pkg/internal/handle"
	"github.com/uachado/uachado/pkg/middleware"
)

// RegisterItemsRoutes 注册物品相关路由.
// 公共读取接口无需认证；写入与按取物点查询的接口要求 Bearer 令牌.
func RegisterItemsRoutes(g *gin.RouterGroup) {
	itemsRoutes := g.Group("/items")
	{
		// 公共读取
		itemsRoutes.GET("", handle.ListItems)
		itemsRoutes.GET("/tags", handle.GetTags)
		itemsRoutes.GET("/state/:state", handle.ListItemsByState)
		itemsRoutes.GET("/:id", handle.GetItem)
		itemsRoutes.GET("/:id/image", handle.GetItemImage)

		// stored 列表查询接收可选过滤条件，保持公共访问
		itemsRoutes.POST("/stored", handle.ListStoredItems)

		// 失物报告是公共提交入口
		itemsRoutes.POST("/report", handle.CreateLostReport)

		// 写入与工作人员接口
		authRoutes := itemsRoutes.Group("")
		authRoutes.Use(middleware.AuthRequired())
		{
			authRoutes.POST("", handle.CreateFoundItem)
			authRoutes.POST("/point/:pointID", handle.ListPointItems)
			authRoutes.PUT("/:id/retrieve", handle.RetrieveItem)
			authRoutes.DELETE("/:id", handle.DeleteItem)
		}
	}
}
