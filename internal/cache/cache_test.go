package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "w")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected k to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("analysis:1:2025-03", 1)
	c.Set("analysis:1:2025-04", 2)
	c.Set("analysis:12:2025-03", 3)
	c.Set("stats:1", 4)

	if n := c.DeletePrefix("analysis:1:"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := c.Get("analysis:12:2025-03"); !ok {
		t.Fatalf("expected other user's entry to survive")
	}
	if _, ok := c.Get("stats:1"); !ok {
		t.Fatalf("expected unrelated entry to survive")
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	c := NewLRUCache[int](1, time.Nanosecond)
	m.Register(c)
	c.Set("x", 1)
	time.Sleep(time.Millisecond)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	m.Stop()
	m.Stop()
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Minute))
	m.StartCleanup(time.Millisecond)
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Get("missing")
	c.Set("c", 3)
	c.Delete("a")

	st := c.Stats()
	want := Stats{Hits: 1, Misses: 1, Evictions: 1, Invalidated: 1, Size: 1}
	if st != want {
		t.Fatalf("expected %+v, got %+v", want, st)
	}
	if st.HitRate() != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", st.HitRate())
	}
	if (Stats{}).HitRate() != 0 {
		t.Fatalf("expected zero hit rate without lookups")
	}
}
