package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled = false // 是否启用限流
	DefaultRateLimitRPS     = 50.0  // 每秒允许请求数
	DefaultRateLimitBurst   = 100   // 突发容量
	DefaultRateLimitKey     = "ip"  // 限流维度: ip 或 global
)

type (
	// RateLimitConfig HTTP 限流相关配置.
	RateLimitConfig struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`
		Key     string  `mapstructure:"key"`
	}
)

func (r *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
}
