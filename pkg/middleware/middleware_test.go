package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/uachado/uachado/pkg/cache"
	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/internal/storage/kv"
)

func TestRateLimitGlobal(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(configs.RateLimitConfig{
		Enabled: true,
		RPS:     1,
		Burst:   1,
		Key:     "global",
	}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", code)
	}

	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(configs.RateLimitConfig{Enabled: false}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}
}

func TestResponseCacheHit(t *testing.T) {
	store, err := kv.NewMemoryKV(context.Background(), &configs.KVConfig{})
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	hits := 0

	engine := gin.New()
	engine.Use(ResponseCacheMiddleware(appcache.NewCache(store), time.Minute, "/items/tags"))
	engine.GET("/items/tags", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"total": hits})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/items/tags", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		return w
	}

	first := do()
	if first.Code != http.StatusOK {
		t.Fatalf("first: status = %d", first.Code)
	}

	second := do()
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request not served from cache")
	}

	if hits != 1 {
		t.Errorf("handler ran %d times, want 1", hits)
	}

	if first.Body.String() != second.Body.String() {
		t.Errorf("cached body differs: %q vs %q", first.Body.String(), second.Body.String())
	}

	// 绕过头直达处理器
	req := httptest.NewRequest(http.MethodGet, "/items/tags", nil)
	req.Header.Set("X-Cache-Bypass", "1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if hits != 2 {
		t.Errorf("bypass did not reach handler, hits = %d", hits)
	}
}

// 前缀之外的路径每次都要打到处理器：删除后再查必须返回 404 而不是缓存旧记录.
func TestResponseCacheScopedToPrefixes(t *testing.T) {
	store, err := kv.NewMemoryKV(context.Background(), &configs.KVConfig{})
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	deleted := false

	engine := gin.New()
	engine.Use(ResponseCacheMiddleware(appcache.NewCache(store), time.Minute, "/items/tags"))
	engine.GET("/items/1", func(c *gin.Context) {
		if deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 1})
	})
	engine.DELETE("/items/1", func(c *gin.Context) {
		deleted = true
		c.Status(http.StatusOK)
	})

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/items/1", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		return w
	}

	if w := do(http.MethodGet); w.Code != http.StatusOK {
		t.Fatalf("before delete: status = %d, want 200", w.Code)
	}

	if w := do(http.MethodDelete); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200", w.Code)
	}

	after := do(http.MethodGet)
	if after.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want 404", after.Code)
	}

	if after.Header().Get("X-Cache") == "HIT" {
		t.Errorf("item route must not be served from cache")
	}
}
