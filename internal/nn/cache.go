package nn

import "sync"

const shardCount = 16

// ShardedCache spreads entries over 16 lock-independent shards so N
// search workers hitting the cache concurrently don't all queue on one
// sync.RWMutex. Each shard evicts wholesale once it passes its share
// of the overall capacity — a blunt "clear and start over" policy, but
// applied per shard rather than globally it only stalls a sixteenth of
// lookups at a time.
type ShardedCache struct {
	capacity int
	shards   [shardCount]cacheShard
}

type cacheShard struct {
	mu sync.RWMutex
	m  map[uint64]Result
}

// NewShardedCache creates a cache that holds at most capacity entries
// in total (approximately: capacity is distributed evenly across
// shards, so eviction can trigger a little early or late per shard).
func NewShardedCache(capacity int) *ShardedCache {
	c := &ShardedCache{capacity: capacity}
	perShard := capacity / shardCount
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i].m = make(map[uint64]Result, perShard)
	}
	return c
}

func (c *ShardedCache) shardFor(key uint64) *cacheShard {
	return &c.shards[key%shardCount]
}

func (c *ShardedCache) Get(key uint64) (Result, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[key]
	return r, ok
}

func (c *ShardedCache) Contains(key uint64) bool {
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok
}

func (c *ShardedCache) Put(key uint64, r Result) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	perShard := c.capacity / shardCount
	if perShard > 0 && len(s.m) > perShard {
		s.m = make(map[uint64]Result, perShard)
	}
	s.m[key] = r
}

func (c *ShardedCache) Size() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.RLock()
		total += len(c.shards[i].m)
		c.shards[i].mu.RUnlock()
	}
	return total
}

func (c *ShardedCache) Capacity() int { return c.capacity }
