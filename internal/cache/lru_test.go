package cache

import (
	"testing"
	"time"
)

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "one")
	c.Set("b", "two")

	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Errorf("Get(a) = %q, %v; want one, true", v, ok)
	}

	// "a" was just touched, so inserting "c" should evict "b"
	c.Set("c", "three")
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) = hit, want evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) = miss, want retained")
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get(k) = hit after TTL, want miss")
	}
	if cleaned := c.CleanExpired(); cleaned != 0 {
		// Get already dropped the expired entry
		t.Errorf("CleanExpired() = %d, want 0", cleaned)
	}
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) = hit after Clear, want miss")
	}

	// The cache must stay usable after Clear
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) = hit after Delete, want miss")
	}
	// Deleting a missing key is a no-op
	c.Delete("missing")
}
