package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/uachado/uachado/pkg/cache"
)

const cacheMaxBodyBytes = 1 << 20 // 超过 1MB 的响应不进缓存

// cachedResponse KV 中的序列化存储结构.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct,omitempty"`
	Body        []byte `json:"b,omitempty"`
}

// ResponseCacheMiddleware 对 GET 请求做短 TTL 响应缓存.
// 只有 cachePrefixes 列出的路径前缀参与缓存，物品这类读后即可能被删除或领取的
// 资源绝不能整页缓存，否则删除后还会从缓存读到旧记录；适合缓存的是标签目录
// 这种静态数据. 缓存失败只降级不报错；请求带 X-Cache-Bypass 头时跳过.
func ResponseCacheMiddleware(cache *appcache.Cache, ttl time.Duration, cachePrefixes ...string) gin.HandlerFunc {
	if cache == nil || len(cachePrefixes) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("X-Cache-Bypass") != "" {
			c.Next()
			return
		}

		cacheable := false
		for _, p := range cachePrefixes {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				cacheable = true
				break
			}
		}

		if !cacheable {
			c.Next()
			return
		}

		key := cacheKey(c)

		if entry, err := appcache.Get[cachedResponse](c.Request.Context(), cache, key); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()

			return
		}

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cacheMaxBodyBytes}
		c.Writer = bw
		c.Header("X-Cache", "MISS")
		c.Next()

		status := c.Writer.Status()
		if status != http.StatusOK || bw.overflow {
			return
		}

		entry := cachedResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        bw.buf.Bytes(),
		}
		_ = appcache.Set(c.Request.Context(), cache, key, entry, ttl)
	}
}

// cacheKey 对 方法+路径+查询串 做 xxhash，键短且均匀.
func cacheKey(c *gin.Context) string {
	h := xxhash.New()
	_, _ = h.WriteString(c.Request.Method)
	_, _ = h.WriteString(c.Request.URL.Path)
	_, _ = h.WriteString(c.Request.URL.RawQuery)

	return "resp:" + strconv.FormatUint(h.Sum64(), 16)
}

// bodyCaptureWriter 边写客户端边截留响应体.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	max      int
	overflow bool
}

func (w *bodyCaptureWriter) Write(p []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && w.buf.Len()+len(p) > w.max {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(p)
		}
	}

	return w.ResponseWriter.Write(p)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
