package cache

import (
	"testing"
	"time"
)

func TestTTL_GetSetInvalidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string](5*time.Minute, func() time.Time { return now })

	if _, ok := c.Get("a"); ok {
		t.Fatalf("empty cache must miss")
	}

	c.Set("a", "one")
	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Fatalf("expected hit, got %q ok=%v", v, ok)
	}

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("invalidated key must miss")
	}
}

func TestTTL_ExpiryUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[int](time.Minute, func() time.Time { return now })

	c.Set("k", 7)
	now = now.Add(59 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 7 {
		t.Fatalf("entry should still be live at 59s")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should expire after the ttl")
	}

	// A refresh restarts the window.
	c.Set("k", 8)
	now = now.Add(30 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 8 {
		t.Fatalf("refreshed entry should be live")
	}
}
