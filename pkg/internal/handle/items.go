// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uachado/uachado/pkg/cache"
	ctxPkg "github.com/uachado/uachado/pkg/context"
	"github.com/uachado/uachado/pkg/internal/model"
	"github.com/uachado/uachado/pkg/internal/service"
	"github.com/uachado/uachado/pkg/internal/types"
	"github.com/uachado/uachado/pkg/log"
	"github.com/uachado/uachado/pkg/rule"
)

const tagsCacheTTL = time.Hour

// maxImageMemory 解析 multipart 表单时内存中保留的最大字节数.
const maxImageMemory = 8 << 20

// ListItems 返回全部物品，插入时间倒序.
func ListItems(c *gin.Context) {
	svc := service.NewItemService(c.Request.Context())

	items, err := svc.List(c.Request.Context())
	if err != nil {
		log.Logger().Error().Err(err).Msg("list items")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list items"})

		return
	}

	c.JSON(http.StatusOK, types.ListItemsResponse{Items: items, Total: len(items)})
}

// GetTags 返回固定标签目录，结果经 KV 缓存.
func GetTags(c *gin.Context) {
	svc := service.NewItemService(c.Request.Context())

	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		c.JSON(http.StatusOK, types.TagsResponse{Tags: svc.Tags()})

		return
	}

	cc := cache.NewCache(kvc)

	tags, err := cache.GetOrSet(c.Request.Context(), cc, "items:tags", func() ([]string, error) {
		return svc.Tags(), nil
	}, tagsCacheTTL)
	if err != nil {
		tags = svc.Tags()
	}

	c.JSON(http.StatusOK, types.TagsResponse{Tags: tags})
}

// GetItem 按 id 返回物品.
func GetItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	svc := service.NewItemService(c.Request.Context())

	item, err := svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "get item")

		return
	}

	c.JSON(http.StatusOK, item)
}

// ListItemsByState 按状态过滤.
func ListItemsByState(c *gin.Context) {
	state := c.Param("state")

	switch state {
	case model.StateStored, model.StateReported, model.StateRetrieved, model.StateArchived:
	default:
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "unknown state: " + state})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	items, err := svc.ListByState(c.Request.Context(), state)
	if err != nil {
		log.Logger().Error().Err(err).Str("state", state).Msg("list items by state")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list items"})

		return
	}

	c.JSON(http.StatusOK, types.ListItemsResponse{Items: items, Total: len(items)})
}

// ListStoredItems 返回 stored 物品，请求体携带可选过滤条件.
func ListStoredItems(c *gin.Context) {
	var filter types.StoredFilter
	if err := c.ShouldBind(&filter); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	items, err := svc.ListStored(c.Request.Context(), filter)
	if err != nil {
		log.Logger().Error().Err(err).Msg("list stored items")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list items"})

		return
	}

	c.JSON(http.StatusOK, types.ListItemsResponse{Items: items, Total: len(items)})
}

// ListPointItems 返回指定取物点的物品，请求体携带可选过滤条件.
func ListPointItems(c *gin.Context) {
	pointID, err := strconv.Atoi(c.Param("pointID"))
	if err != nil || pointID < 1 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid dropoff point id"})

		return
	}

	var filter types.PointFilter
	if err := c.ShouldBind(&filter); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	items, err := svc.ListByDropoffPoint(c.Request.Context(), pointID, filter)
	if err != nil {
		log.Logger().Error().Err(err).Int("point_id", pointID).Msg("list point items")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list items"})

		return
	}

	c.JSON(http.StatusOK, types.ListItemsResponse{Items: items, Total: len(items)})
}

// CreateFoundItem 登记拾得物品. multipart 表单，图片文件在字段 image 中，可选.
// tag 必须来自固定目录.
func CreateFoundItem(c *gin.Context) {
	var req types.CreateFoundItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	if !types.KnownTag(req.Tag) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "unknown tag: " + req.Tag})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	item, err := svc.CreateFound(c.Request.Context(), req, imageFromForm(c))
	if err != nil {
		log.Logger().Error().Err(err).Msg("create found item")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create item"})

		return
	}

	c.JSON(http.StatusCreated, item)
}

// CreateLostReport 提交失物报告. 公共端点，不要求认证.
func CreateLostReport(c *gin.Context) {
	var req types.CreateLostReportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	if !types.KnownTag(req.Tag) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "unknown tag: " + req.Tag})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	item, err := svc.CreateReport(c.Request.Context(), req, imageFromForm(c))
	if err != nil {
		log.Logger().Error().Err(err).Msg("create lost report")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create report"})

		return
	}

	c.JSON(http.StatusCreated, item)
}

// RetrieveItem 领取物品. 只有 stored 状态会发生转移，其他状态原样返回记录.
func RetrieveItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.RetrieveItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewItemService(c.Request.Context())

	item, err := svc.Retrieve(c.Request.Context(), id, req.Email)
	if err != nil {
		respondLookupError(c, err, "retrieve item")

		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem 删除物品记录及其附带图片.
func DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	svc := service.NewItemService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		respondLookupError(c, err, "delete item")

		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Item deleted"})
}

// GetItemImage 下载物品附带的图片.
func GetItemImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	svc := service.NewItemService(c.Request.Context())

	reader, contentType, err := svc.GetImage(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "get item image")

		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}

// parseID 解析路径中的物品 id，失败时写入 400 响应.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid item id"})

		return 0, false
	}

	return uint(id), true
}

// respondLookupError 把服务层错误映射为 HTTP 响应：不存在 → 404，其他 → 500.
func respondLookupError(c *gin.Context, err error, op string) {
	if errors.Is(err, service.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "item not found"})

		return
	}

	log.Logger().Error().Err(err).Msg(op)
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal error"})
}

// imageFromForm 从 multipart 表单中取出可选的图片文件；没有图片时返回 nil.
func imageFromForm(c *gin.Context) *service.ImageUpload {
	if c.ContentType() != "multipart/form-data" {
		return nil
	}

	if err := c.Request.ParseMultipartForm(maxImageMemory); err != nil {
		return nil
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Logger().Warn().Err(err).Msg("image form file open failed")

		return nil
	}

	return &service.ImageUpload{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}
}
