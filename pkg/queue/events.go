package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 是发布端最小接口，由 storage/mq 的 Client 实现.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishItemStored 发布 ua.item.stored 事件.
// 在拾得物品记录提交后调用，负载携带同标签失物报告的联系人，供通知端派发匹配邮件.
func PublishItemStored(ctx context.Context, pub Publisher, payload ItemStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicItemStored, msg)
}

// PublishItemReported 发布 ua.item.reported 事件.
func PublishItemReported(ctx context.Context, pub Publisher, payload ItemReportedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemReported, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicItemReported, msg)
}

// PublishItemRetrieved 发布 ua.item.retrieved 事件，仅在 stored→retrieved 转移成功时发布一次.
func PublishItemRetrieved(ctx context.Context, pub Publisher, payload ItemRetrievedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemRetrieved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicItemRetrieved, msg)
}

// PublishItemDeleted 发布 ua.item.deleted 事件.
func PublishItemDeleted(ctx context.Context, pub Publisher, payload ItemDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicItemDeleted, msg)
}

// PublishItemArchived 发布 ua.item.archived 事件.
func PublishItemArchived(ctx context.Context, pub Publisher, payload ItemArchivedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemArchived, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicItemArchived, msg)
}

// ParseItemStored 将 Watermill 消息解析为强类型 Envelope（ItemStoredPayload）.
func ParseItemStored(msg *message.Message) (Message[ItemStoredPayload], error) {
	return ParseWatermillMessage[ItemStoredPayload](msg)
}

// ParseItemReported 解析 ua.item.reported 消息.
func ParseItemReported(msg *message.Message) (Message[ItemReportedPayload], error) {
	return ParseWatermillMessage[ItemReportedPayload](msg)
}

// ParseItemRetrieved 解析 ua.item.retrieved 消息.
func ParseItemRetrieved(msg *message.Message) (Message[ItemRetrievedPayload], error) {
	return ParseWatermillMessage[ItemRetrievedPayload](msg)
}

// ParseItemDeleted 解析 ua.item.deleted 消息.
func ParseItemDeleted(msg *message.Message) (Message[ItemDeletedPayload], error) {
	return ParseWatermillMessage[ItemDeletedPayload](msg)
}
