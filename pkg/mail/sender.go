// Package mail 负责邮件通知：SMTP 发送、文案构造与事件订阅派发.
// 发送永远是尽力而为，失败只记录日志与指标，不回传给业务调用方.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"github.com/sony/gobreaker"

	"github.com/uachado/uachado/pkg/configs"
	nlog "github.com/uachado/uachado/pkg/log"
)

// Sender 抽象邮件发送能力，便于测试中替换.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender 基于 go-mail 的 SMTP 发送实现，外层包一圈熔断，
// 避免邮件服务故障时每次通知都等到超时.
type SMTPSender struct {
	cfg     configs.MailConfig
	breaker *gobreaker.CircuitBreaker
}

// NewSMTPSender 创建 SMTP 发送器.
func NewSMTPSender(cfg configs.MailConfig) *SMTPSender {
	s := &SMTPSender{cfg: cfg}

	if cfg.Breaker.Enabled {
		settings := gobreaker.Settings{
			Name:        "smtp-sender",
			MaxRequests: cfg.Breaker.MaxRequestsInHalf,
			Interval:    time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			Timeout:     time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				total := counts.Requests
				if total < cfg.Breaker.MinRequests {
					return false
				}
				// 失败比例
				failureRate := float64(counts.TotalFailures) / float64(total)

				return failureRate >= cfg.Breaker.FailureRate
			},
		}
		s.breaker = gobreaker.NewCircuitBreaker(settings)
	}

	return s
}

// Send 发送一封纯文本邮件.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if !s.cfg.Enabled {
		nlog.Logger().Debug().Str("to", to).Msg("mail disabled, notification skipped")

		return nil
	}

	send := func() (any, error) {
		return nil, s.deliver(ctx, to, subject, body)
	}

	var err error
	if s.breaker != nil {
		_, err = s.breaker.Execute(send)
	} else {
		_, err = send()
	}

	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	nlog.Logger().Info().Str("to", to).Str("subject", subject).Msg("email sent")

	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return err
	}

	if err := msg.To(to); err != nil {
		return err
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
	}

	if s.cfg.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}

	return client.DialAndSendWithContext(ctx, msg)
}
