package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache returned a value")
	}

	c.Set("a", "1")
	c.Set("a", "2")
	got, ok := c.Get("a")
	if !ok || got != "2" {
		t.Fatalf("Get(a) = (%q, %v), want (2, true)", got, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, making b the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry still readable")
	}
	c.Set("b", 2)
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](16, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("user:1:plot:%d", i), i)
	}
	c.Set("user:2:plot:0", 9)

	if n := c.DeletePrefix("user:1:"); n != 3 {
		t.Fatalf("DeletePrefix() = %d, want 3", n)
	}
	if _, ok := c.Get("user:2:plot:0"); !ok {
		t.Fatal("unrelated key was removed")
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}
