package cache

import (
	"strconv"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](4)

	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache = true")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after update = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now more recent than b
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction, want least recently used gone")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("Get(%q) = false after eviction of b", key)
		}
	}
}

func TestUnlimitedCapacity(t *testing.T) {
	c := New[string, int](0)
	for i := 0; i < 100; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if c.Len() != 100 {
		t.Errorf("Len() = %d, want 100", c.Len())
	}
	if c.Capacity() != 0 {
		t.Errorf("Capacity() = %d, want 0", c.Capacity())
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete(a) = false for a present key")
	}
	if c.Delete("a") {
		t.Error("Delete(a) = true for an absent key")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) = true after Delete")
	}

	// Deleting must unlink the LRU node so later eviction stays consistent.
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)
	c.Set("e", 5)
	c.Set("f", 6)
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) = true after Clear")
	}

	// Cache stays usable after Clear.
	c.Set("a", 9)
	if v, ok := c.Get("a"); !ok || v != 9 {
		t.Errorf("Get(a) = %d, %v after Clear and Set", v, ok)
	}
}

func BenchmarkGet(b *testing.B) {
	c := New[string, int](1000)
	for i := 0; i < 100; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("50")
	}
}

func BenchmarkSet(b *testing.B) {
	c := New[string, int](1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(strconv.Itoa(i%100), i)
	}
}
