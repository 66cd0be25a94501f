package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	c.Set("a", "1")
	if got, ok := c.Get("a"); !ok || got != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = true, want false")
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should survive eviction after recent use")
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should not be returned")
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d, want 0 after expiry cleanup on access", c.Size())
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.Set("user1:2024-01", 1)
	c.Set("user1:2024-02", 2)
	c.Set("user2:2024-01", 3)

	if got := c.DeletePrefix("user1:"); got != 2 {
		t.Fatalf("DeletePrefix removed %d, want 2", got)
	}
	if _, ok := c.Get("user1:2024-01"); ok {
		t.Fatal("user1 entries should be gone")
	}
	if _, ok := c.Get("user2:2024-01"); !ok {
		t.Fatal("user2 entry should remain")
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)

	if got := c.CleanExpired(); got != 5 {
		t.Fatalf("CleanExpired removed %d, want 5", got)
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d, want 0", c.Size())
	}
}
