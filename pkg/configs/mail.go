package configs

import "github.com/spf13/viper"

const (
	DefaultSMTPHost = "localhost"
	DefaultSMTPPort = 587
	DefaultMailFrom = "uachado.app@gmail.com"
)

// MailConfig SMTP 通知配置. 通知发送永远是尽力而为，发送失败只记录日志.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"     rule:"hostname"`
	Port     int    `mapstructure:"port"     rule:"min=1,max=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"     rule:"omitempty,email"`
	StartTLS bool   `mapstructure:"starttls"`

	// Breaker 熔断 SMTP 发送，避免邮件服务故障时反复超时.
	Breaker CircuitBreakerConfig `mapstructure:"breaker"`
}

func (c *MailConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mail.enabled", true)
	v.SetDefault("mail.host", DefaultSMTPHost)
	v.SetDefault("mail.port", DefaultSMTPPort)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", DefaultMailFrom)
	v.SetDefault("mail.starttls", true)

	c.Breaker.setDefaults(v, "mail.breaker")
}
