package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned a value")
	}

	c.Set("a", "apple")
	got, ok := c.Get("a")
	if !ok || got != "apple" {
		t.Errorf("Get(a) = %q, %v; want apple, true", got, ok)
	}

	c.Set("a", "apricot")
	got, _ = c.Get("a")
	if got != "apricot" {
		t.Errorf("Get(a) after overwrite = %q, want apricot", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size after overwrite = %d, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("fresh entry missing")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry still returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size after expiry read = %d, want 0", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("a", 1)
	c.Set("b", 2)
	current = current.Add(30 * time.Second)
	c.Set("c", 3)

	current = current.Add(45 * time.Second) // a, b expired; c still fresh
	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size after cleanup = %d, want 1", c.Size())
	}
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared entry still returned")
	}
	// Cache stays usable after Clear
	c.Set("d", 4)
	if _, ok := c.Get("d"); !ok {
		t.Error("entry set after Clear missing")
	}
}

func TestManagerCleanupLoop(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)

	deadline := time.After(time.Second)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatal("cleanup loop never removed expired entry")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	m.Stop()
}
