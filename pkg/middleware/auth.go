package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/log"
)

const jwksInitTimeout = 10 * time.Second

// jwksVerifier 懒加载 JWKS 公钥集，首次校验时才访问身份提供方.
// 初始化失败不缓存，下一次请求重试.
type jwksVerifier struct {
	mu sync.Mutex
	kf keyfunc.Keyfunc
}

func (v *jwksVerifier) keyfunc(url string) (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.kf == nil {
		ctx, cancel := context.WithTimeout(context.Background(), jwksInitTimeout)
		defer cancel()

		kf, err := keyfunc.NewDefaultCtx(ctx, []string{url})
		if err != nil {
			return nil, err
		}

		v.kf = kf
	}

	return v.kf.Keyfunc, nil
}

// AuthRequired 校验 Bearer 令牌，令牌由外部身份提供方签发，经 JWKS 验签.
//   - 缺少 Authorization 头或令牌无效返回 401
//   - JWKS 端点不可达返回 503
//   - configs.auth.enabled=false 时直接放行（本地开发）.
func AuthRequired() gin.HandlerFunc {
	verifier := &jwksVerifier{}

	return func(c *gin.Context) {
		cfg := configs.GetConfig().Auth
		if !cfg.Enabled {
			c.Next()
			return
		}

		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		kf, err := verifier.keyfunc(cfg.GetJWKSURL())
		if err != nil {
			log.Logger().Error().Err(err).Msg("JWKS端点不可达")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "token verifier unavailable"})

			return
		}

		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
			jwt.WithExpirationRequired(),
		}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}

		if cfg.Audience != "" {
			opts = append(opts, jwt.WithAudience(cfg.Audience))
		}

		token, err := jwt.Parse(raw, kf, opts...)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Set("auth_subject", sub)
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
