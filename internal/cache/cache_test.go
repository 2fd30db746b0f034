package cache

import (
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(1024, 0)
	defer mc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	mc.Set("ex.com", []byte("User-agent: *"), time.Minute)
	if got, ok := mc.Get("ex.com"); !ok || string(got) != "User-agent: *" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := mc.Get("ex.com"); ok {
		t.Errorf("expected entry to expire")
	}

	stats := mc.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(10, 0)
	defer mc.Close()

	mc.Set("a", []byte("aaaa"), time.Hour)
	mc.Set("b", []byte("bbbb"), time.Hour)
	mc.Get("a") // a is now most recent
	mc.Set("c", []byte("cccc"), time.Hour)

	if _, ok := mc.Get("b"); ok {
		t.Errorf("expected b to be evicted")
	}
	if _, ok := mc.Get("a"); !ok {
		t.Errorf("expected a to survive")
	}
	if got := mc.Stats().SizeBytes; got != 8 {
		t.Errorf("expected 8 bytes cached, got %d", got)
	}
}

func TestMemoryCacheReplace(t *testing.T) {
	mc := NewMemoryCache(100, 0)
	defer mc.Close()

	mc.Set("k", []byte("one"), time.Hour)
	mc.Set("k", []byte("three"), time.Hour)

	got, ok := mc.Get("k")
	if !ok || string(got) != "three" {
		t.Fatalf("expected replaced value, got %q", got)
	}
	if size := mc.Stats().SizeBytes; size != 5 {
		t.Errorf("expected size 5, got %d", size)
	}
}
