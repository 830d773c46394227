package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultArchiveAfterDays 领取后自动归档的保留天数.
	DefaultArchiveAfterDays = 7
)

// ItemsConfig 物品生命周期配置.
type ItemsConfig struct {
	ArchiveAfterDays int `mapstructure:"archive_after_days" rule:"min=1"`
}

// GetRetentionWindow 返回归档保留窗口.
func (c *ItemsConfig) GetRetentionWindow() time.Duration {
	days := c.ArchiveAfterDays
	if days <= 0 {
		days = DefaultArchiveAfterDays
	}

	return time.Duration(days) * 24 * time.Hour
}

func (c *ItemsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("items.archive_after_days", DefaultArchiveAfterDays)
}
