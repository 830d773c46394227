// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：ua.<域>.<动作>，尽量稳定且向后兼容.
const (
	// 物品生命周期领域.
	TopicItemStored    = "ua.item.stored"    // 拾得物品已登记，触发失物报告匹配通知
	TopicItemReported  = "ua.item.reported"  // 失物报告已提交，触发确认通知
	TopicItemRetrieved = "ua.item.retrieved" // 物品已领取，触发领取确认通知
	TopicItemDeleted   = "ua.item.deleted"   // 物品记录已删除
	TopicItemArchived  = "ua.item.archived"  // 归档扫描把物品转入 archived 状态
)

// ItemTopics 物品相关主题集合，用于批量订阅.
var ItemTopics = []string{
	TopicItemStored,
	TopicItemReported,
	TopicItemRetrieved,
	TopicItemDeleted,
	TopicItemArchived,
}
