package cache

import (
	"testing"
	"time"
)

func TestGetAddInvalidate(t *testing.T) {
	c := New[string](4, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Expected miss on empty cache")
	}

	c.Add("a", "alpha")
	v, ok := c.Get("a")
	if !ok || v != "alpha" {
		t.Fatalf("Expected hit with alpha, got %q ok=%v", v, ok)
	}

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("Expected miss after invalidate")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[int](4, 20*time.Millisecond)

	c.Add("k", 42)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("Expected hit before expiry")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected miss after TTL expiry")
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("Expected oldest entry evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Expected len 2, got %d", c.Len())
	}
}

func TestStats(t *testing.T) {
	c := New[int](4, time.Minute)

	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Expected 2 hits / 1 miss, got %+v", s)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("Expected hit rate ~2/3, got %f", s.HitRate)
	}
}
