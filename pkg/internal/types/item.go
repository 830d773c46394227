// Package types 定义 API 请求与响应结构.
package types

import (
	"github.com/uachado/uachado/pkg/internal/model"
)

// CreateFoundItemRequest 登记拾得物品的请求，作为 multipart 表单提交，图片文件单独携带.
type CreateFoundItemRequest struct {
	Description    string `form:"description"      json:"description"      rule:"required,max=2048"`
	Tag            string `form:"tag"              json:"tag"              rule:"required,max=128"`
	DropoffPointID int    `form:"dropoff_point_id" json:"dropoff_point_id" rule:"required,gte=1"`
}

// CreateLostReportRequest 提交失物报告的请求.
type CreateLostReportRequest struct {
	Description string `form:"description"  json:"description"  rule:"required,max=2048"`
	Tag         string `form:"tag"          json:"tag"          rule:"required,max=128"`
	ReportEmail string `form:"report_email" json:"report_email" rule:"required,email"`
}

// RetrieveItemRequest 领取物品的请求.
type RetrieveItemRequest struct {
	Email string `json:"email" rule:"required,email"`
}

// StoredFilter 对 stored 物品列表的可选过滤条件，nil 字段不施加约束.
type StoredFilter struct {
	Tag            *string `form:"tag"              json:"tag"`
	DropoffPointID *int    `form:"dropoff_point_id" json:"dropoff_point_id"`
}

// PointFilter 按取物点查询时的可选过滤条件.
type PointFilter struct {
	Tag   *string `form:"tag"   json:"tag"`
	State *string `form:"state" json:"state"`
}

// ListItemsResponse 物品列表响应.
type ListItemsResponse struct {
	Items []model.Item `json:"items"`
	Total int          `json:"total"`
}

// TagsResponse 标签目录响应.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// MessageResponse 简单消息响应.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}
