package configs

import "github.com/spf13/viper"

// AuthConfig 控制统一身份认证，令牌由外部身份提供方（如 Cognito）签发，
// 本服务只通过 JWKS 校验签名与 issuer/audience.
type AuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // 开启认证校验
	Issuer   string `mapstructure:"issuer"`   // 身份提供方 issuer URL
	Audience string `mapstructure:"audience"` // 期望的 audience
	JWKSURL  string `mapstructure:"jwks_url"` // JWKS 端点，留空时由 issuer 推导
}

// GetJWKSURL 返回 JWKS 端点，未显式配置时按约定从 issuer 推导.
func (c *AuthConfig) GetJWKSURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}

	return c.Issuer + "/.well-known/jwks.json"
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.jwks_url", "")
}
