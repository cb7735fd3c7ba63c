package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New[int](8, time.Minute)
	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("Get(b) should miss")
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New[string](8, time.Minute)
	c.Set(Key("meta", "act_1", "2024-03-20"), "x")
	c.Set(Key("meta", "act_2", "2024-03-20"), "y")
	c.Set(Key("google", "99", "2024-03-20"), "z")

	if n := c.Invalidate("meta:"); n != 2 {
		t.Fatalf("Invalidate(meta:) = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len after Purge = %d, want 0", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](8, 20*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestEvictsOldest(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
}
