package nn

import "testing"

func TestShardedCachePutGet(t *testing.T) {
	c := NewShardedCache(1024)
	r := Result{Q: 0.5}
	c.Put(42, r)
	got, ok := c.Get(42)
	if !ok {
		t.Fatalf("expected key 42 present")
	}
	if got.Q != 0.5 {
		t.Fatalf("Q = %v, want 0.5", got.Q)
	}
}

func TestShardedCacheMiss(t *testing.T) {
	c := NewShardedCache(1024)
	if _, ok := c.Get(999); ok {
		t.Fatalf("expected miss on empty cache")
	}
	if c.Contains(999) {
		t.Fatalf("expected Contains false on empty cache")
	}
}

func TestShardedCacheSizeTracksEntries(t *testing.T) {
	c := NewShardedCache(1024)
	for i := uint64(0); i < 100; i++ {
		c.Put(i, Result{Q: float32(i)})
	}
	if c.Size() != 100 {
		t.Fatalf("Size() = %d, want 100", c.Size())
	}
}

func TestShardedCacheEvictsPerShardAtCapacity(t *testing.T) {
	// Small capacity forces per-shard eviction quickly; verify the
	// cache never grows unbounded and a later Put still succeeds.
	c := NewShardedCache(shardCount) // 1 entry per shard
	for i := uint64(0); i < 1000; i++ {
		c.Put(i, Result{Q: float32(i)})
	}
	if c.Size() > shardCount*2 {
		t.Fatalf("Size() = %d, expected eviction to bound growth near capacity", c.Size())
	}
	last := uint64(999)
	got, ok := c.Get(last)
	if !ok {
		t.Fatalf("expected most recently put key to still be present")
	}
	if got.Q != float32(last) {
		t.Fatalf("Q = %v, want %v", got.Q, float32(last))
	}
}

func TestShardedCacheCapacity(t *testing.T) {
	c := NewShardedCache(2048)
	if c.Capacity() != 2048 {
		t.Fatalf("Capacity() = %d, want 2048", c.Capacity())
	}
}
