package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 请求关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ItemRef 标识一条物品记录的关键字段，够通知文案使用.
type ItemRef struct {
	ID          uint   `json:"id"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// MatchRecipient 匹配到的失物报告联系人.
type MatchRecipient struct {
	Email       string `json:"email"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// ItemStoredPayload 拾得物品已登记；Matches 是同标签失物报告的联系人列表.
type ItemStoredPayload struct {
	Item           ItemRef          `json:"item"`
	DropoffPointID int              `json:"dropoff_point_id"`
	Matches        []MatchRecipient `json:"matches,omitempty"`
}

// ItemReportedPayload 失物报告已提交.
type ItemReportedPayload struct {
	Item        ItemRef `json:"item"`
	ReportEmail string  `json:"report_email"`
}

// ItemRetrievedPayload 物品已被领取.
type ItemRetrievedPayload struct {
	Item           ItemRef   `json:"item"`
	RetrievedEmail string    `json:"retrieved_email"`
	RetrievedDate  time.Time `json:"retrieved_date"`
}

// ItemDeletedPayload 物品记录已删除；Image 为曾附带的图片对象键.
type ItemDeletedPayload struct {
	Item  ItemRef `json:"item"`
	Image string  `json:"image,omitempty"`
}

// ItemArchivedPayload 归档扫描结果.
type ItemArchivedPayload struct {
	ItemIDs []uint `json:"item_ids"`
}
