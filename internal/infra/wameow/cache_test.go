package wameow

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache(time.Minute)
	cache.Set("sess:5511999999999@s.whatsapp.net", "available")

	value, ok := cache.Get("sess:5511999999999@s.whatsapp.net")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if value != "available" {
		t.Errorf("value = %v, want %q", value, "available")
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache(10 * time.Millisecond)
	cache.Set("key", "value")

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("key"); ok {
		t.Error("expired entry should not be returned")
	}
	// expired but not yet swept
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1 before sweep", cache.Len())
	}
}

func TestTTLCacheSweep(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache(10 * time.Millisecond)
	cache.Set("old1", 1)
	cache.Set("old2", 2)

	time.Sleep(20 * time.Millisecond)
	cache.Set("fresh", 3)

	removed := cache.Sweep()
	if removed != 2 {
		t.Errorf("Sweep removed %d entries, want 2", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", cache.Len())
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache(time.Minute)
	cache.Set("key", "value")
	cache.Delete("key")

	if _, ok := cache.Get("key"); ok {
		t.Error("deleted entry should not be returned")
	}
}
