package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 9, 13, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("photo:a", "https://example.com/a")

	got, ok := c.Get("photo:a")
	if !ok || got != "https://example.com/a" {
		t.Fatalf("expected cached value, got %q ok=%v", got, ok)
	}
	if _, ok := c.Get("photo:b"); ok {
		t.Fatalf("expected miss for unknown key")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // a becomes most recent
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiration(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.t = clock.t.Add(2 * time.Minute)
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry (b), got %d", removed)
	}
	if c.Size() != 1 {
		t.Fatalf("expected only c to remain, got %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("search:tokyo", "x")
	c.Set("search:osaka", "y")
	c.Set("photo:1", "z")

	if removed := c.DeletePrefix("search:"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	c.Delete("photo:1")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestManagerCleanNowAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if cleaned := m.CleanNow(); cleaned != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", cleaned)
	}

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop() // idempotent
}
