// Package model 定义持久化实体.
package model

import (
	"time"
)

// 物品生命周期状态.
const (
	// StateStored 已在取物点登记的拾得物品.
	StateStored = "stored"
	// StateReported 失主提交的失物报告.
	StateReported = "reported"
	// StateRetrieved 已被领取的物品.
	StateRetrieved = "retrieved"
	// StateArchived 领取超过保留期后归档的物品.
	StateArchived = "archived"
)

// Item 失物招领物品模型.
// 创建时 DropoffPointID 与 ReportEmail 恰好设置其一：
// 拾得物品登记在取物点，失物报告只携带联系邮箱.
type Item struct {
	ID          uint   `gorm:"primaryKey"       json:"id"`
	Description string `gorm:"type:text"        json:"description"`
	// Tag 类别标签，取值来自固定目录，但按自由文本存储
	Tag string `gorm:"size:128;index" json:"tag"`
	// Image 对象存储中图片的键（可空）
	Image *string `gorm:"size:255"       json:"image"`
	State string  `gorm:"size:16;index"  json:"state"`
	// DropoffPointID 物品所在取物点（拾得物品）
	DropoffPointID *int `gorm:"index" json:"dropoff_point_id"`
	// ReportEmail 失物报告的联系邮箱
	ReportEmail *string `gorm:"size:255" json:"report_email"`
	// RetrievedEmail 领取人的邮箱，仅在领取后设置
	RetrievedEmail *string `gorm:"size:255" json:"retrieved_email"`
	// RetrievedDate 领取时间，仅在领取后设置
	RetrievedDate *time.Time `gorm:"index" json:"retrieved_date"`
	// InsertionDate 创建时间，创建后不可变
	InsertionDate time.Time `gorm:"index" json:"insertion_date"`
}

// TableName 指定表名.
func (Item) TableName() string {
	return "items"
}

// IsRetrievable 物品当前是否可被领取.
func (i *Item) IsRetrievable() bool {
	return i.State == StateStored
}

// ArchiveDue 判断已领取的物品在 now 时刻是否超出保留期.
func (i *Item) ArchiveDue(now time.Time, retention time.Duration) bool {
	if i.State != StateRetrieved || i.RetrievedDate == nil {
		return false
	}

	return now.Sub(*i.RetrievedDate) > retention
}
