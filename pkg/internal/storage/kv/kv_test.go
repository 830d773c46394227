package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestRegisteredTypes 内存实现应当总是可用.
func TestRegisteredTypes(t *testing.T) {
	found := false

	for _, kvType := range GetRegisteredKVTypes() {
		if kvType == KVTypeMemory {
			found = true
		}
	}

	if !found {
		t.Fatal("memory KV factory not registered")
	}
}

// TestMemoryKVBasic 测试内存 KV 的基本读写.
func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()

	store, err := NewMemoryKV(ctx, nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	key := "items:tags"
	value := []byte(`["Tablets","Carregadores"]`)

	if err := store.Set(ctx, key, value, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true, nil", exists, err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete: got %v, want ErrKeyNotFound", err)
	}
}

// TestMemoryKVGetCopies 返回值应当是副本，调用方修改不影响存储.
func TestMemoryKVGetCopies(t *testing.T) {
	ctx := context.Background()

	store, _ := NewMemoryKV(ctx, nil)
	if err := store.Set(ctx, "k", []byte("abc"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	first, _ := store.Get(ctx, "k")
	first[0] = 'x'

	second, _ := store.Get(ctx, "k")
	if string(second) != "abc" {
		t.Errorf("stored value mutated: got %q", second)
	}
}

// TestMemoryKVTTL 过期的键在读取时被惰性删除.
func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()

	store, _ := NewMemoryKV(ctx, nil)
	if err := store.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// 未过期时可读
	if _, err := store.Get(ctx, "short"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// 直接写入一个已过期的包装值，避免测试真实等待
	expired, _, err := encodeWithTTL([]byte("v"), -time.Minute)
	if err != nil {
		t.Fatalf("encodeWithTTL: %v", err)
	}

	m, ok := store.(*MemoryKV)
	if !ok {
		t.Fatal("unexpected store type")
	}

	m.data.Store("gone", expired)

	if _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get expired key: got %v, want ErrKeyNotFound", err)
	}

	if exists, _ := store.Exists(ctx, "gone"); exists {
		t.Error("Exists reported true for expired key")
	}
}

// TestTTLEncodeDecode 测试 TTL 包装器的编解码.
func TestTTLEncodeDecode(t *testing.T) {
	value := []byte("payload")

	// ttl<=0 时不包装
	out, wrapped, err := encodeWithTTL(value, 0)
	if err != nil || wrapped {
		t.Fatalf("encodeWithTTL(0) = wrapped %v, err %v", wrapped, err)
	}

	if string(out) != string(value) {
		t.Errorf("unwrapped value changed: %q", out)
	}

	// ttl>0 时包装，且解码还原
	out, wrapped, err = encodeWithTTL(value, time.Hour)
	if err != nil || !wrapped {
		t.Fatalf("encodeWithTTL(1h) = wrapped %v, err %v", wrapped, err)
	}

	decoded, expired, wasWrapped, err := decodeWithTTL(out, time.Now())
	if err != nil {
		t.Fatalf("decodeWithTTL: %v", err)
	}

	if !wasWrapped || expired {
		t.Errorf("decodeWithTTL = expired %v, wrapped %v", expired, wasWrapped)
	}

	if string(decoded) != string(value) {
		t.Errorf("decoded value %q, want %q", decoded, value)
	}

	// 过期检测
	_, expired, _, err = decodeWithTTL(out, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("decodeWithTTL future: %v", err)
	}

	if !expired {
		t.Error("value should be expired two hours later")
	}
}
