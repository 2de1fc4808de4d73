package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key should not hit")
	}
	c.Set("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Fatalf("expected hit with 'one', got %q %v", got, ok)
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used key should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used key should survive")
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should miss")
	}
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
}

func TestDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("alice:summary", 1)
	c.Set("alice:overview", 2)
	c.Set("bob:summary", 3)
	if n := c.DeletePrefix("alice:"); n != 2 {
		t.Fatalf("expected 2 removals, got %d", n)
	}
	if _, ok := c.Get("alice:summary"); ok {
		t.Fatal("prefixed key should be gone")
	}
	if _, ok := c.Get("bob:summary"); !ok {
		t.Fatal("other owner's key should survive")
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}
}
