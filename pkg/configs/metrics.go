package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultMetricsEnabled     = true       // 是否启用指标采集
	DefaultMetricsPath        = "/metrics" // 指标暴露路径
	DefaultMetricsServiceName = "uachado"  // 服务名称标签
)

type (
	// MetricsConfig Prometheus 指标相关配置.
	MetricsConfig struct {
		Enabled     bool   `mapstructure:"enabled"`
		Path        string `mapstructure:"path"`
		ServiceName string `mapstructure:"service_name"`
	}
)

func (m *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", DefaultMetricsEnabled)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.service_name", DefaultMetricsServiceName)
}
