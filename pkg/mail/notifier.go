package mail

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/uachado/uachado/pkg/internal/storage/mq"
	nlog "github.com/uachado/uachado/pkg/log"
	"github.com/uachado/uachado/pkg/metrics"
	"github.com/uachado/uachado/pkg/queue"
)

// Notifier 订阅物品事件并派发邮件通知.
// 记录先提交、事件后派发，SMTP 故障不影响业务写路径.
type Notifier struct {
	sender Sender
	client *mq.Client
}

// NewNotifier 创建通知订阅端.
func NewNotifier(sender Sender, client *mq.Client) *Notifier {
	return &Notifier{sender: sender, client: client}
}

// Start 订阅全部通知相关主题，直到 ctx 取消.
func (n *Notifier) Start(ctx context.Context) error {
	storedCh, err := n.client.Subscribe(ctx, queue.TopicItemStored)
	if err != nil {
		return err
	}

	reportedCh, err := n.client.Subscribe(ctx, queue.TopicItemReported)
	if err != nil {
		return err
	}

	retrievedCh, err := n.client.Subscribe(ctx, queue.TopicItemRetrieved)
	if err != nil {
		return err
	}

	go n.consume(ctx, storedCh, n.handleStored)
	go n.consume(ctx, reportedCh, n.handleReported)
	go n.consume(ctx, retrievedCh, n.handleRetrieved)

	nlog.Logger().Info().Msg("mail notifier started")

	return nil
}

func (n *Notifier) consume(ctx context.Context, ch <-chan *message.Message, handle func(context.Context, *message.Message)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			handle(ctx, msg)
			msg.Ack()
		}
	}
}

// handleStored 拾得物品登记后，通知所有同标签失物报告的联系人.
// 同一事件内的重复收件人只通知一次.
func (n *Notifier) handleStored(ctx context.Context, msg *message.Message) {
	env, err := queue.ParseItemStored(msg)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("parse item stored event")

		return
	}

	notified := make(map[string]struct{}, len(env.Payload.Matches))

	for _, match := range env.Payload.Matches {
		if _, done := notified[match.Email]; done {
			continue
		}

		notified[match.Email] = struct{}{}

		subject, body := MatchFoundMessage(match.Tag, match.Description)
		n.send(ctx, "match", match.Email, subject, body)
	}
}

// handleReported 失物报告提交后，给报告人发确认邮件.
func (n *Notifier) handleReported(ctx context.Context, msg *message.Message) {
	env, err := queue.ParseItemReported(msg)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("parse item reported event")

		return
	}

	subject, body := ReportReceivedMessage(env.Payload.Item.Tag, env.Payload.Item.Description, env.Payload.ReportEmail)
	n.send(ctx, "report", env.Payload.ReportEmail, subject, body)
}

// handleRetrieved 物品领取后，给领取人发确认邮件.
func (n *Notifier) handleRetrieved(ctx context.Context, msg *message.Message) {
	env, err := queue.ParseItemRetrieved(msg)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("parse item retrieved event")

		return
	}

	subject, body := RetrievedMessage(
		env.Payload.Item.Tag,
		env.Payload.Item.Description,
		env.Payload.RetrievedEmail,
		env.Payload.RetrievedDate,
	)
	n.send(ctx, "retrieved", env.Payload.RetrievedEmail, subject, body)
}

func (n *Notifier) send(ctx context.Context, kind, to, subject, body string) {
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		metrics.NotificationFailures.WithLabelValues(kind).Inc()
		nlog.Logger().Error().Err(err).Str("kind", kind).Str("to", to).Msg("notification failed")

		return
	}

	metrics.NotificationsSent.WithLabelValues(kind).Inc()
}
