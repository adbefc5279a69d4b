package lru

import "testing"

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // touch a, making b the LRU entry
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a to survive with value 1, got %v %v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c present with value 3, got %v %v", v, ok)
	}
}

func TestCacheRemoveMatching(t *testing.T) {
	type key struct {
		fileID string
		row    int
	}
	c := New[key, string](10)
	c.Put(key{"f1", 0}, "a")
	c.Put(key{"f1", 1}, "b")
	c.Put(key{"f2", 0}, "c")

	c.RemoveMatching(func(k key) bool { return k.fileID == "f1" })

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry remaining, got %d", c.Len())
	}
	if _, ok := c.Get(key{"f2", 0}); !ok {
		t.Fatalf("expected f2 entry to survive")
	}
}
