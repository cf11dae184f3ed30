package provider

import "sync"

// defaultTxCacheSize bounds the fake transaction cache. A browser tab can get
// away with unbounded growth; a long-running service cannot, so the oldest
// entries are evicted once the cap is reached.
const defaultTxCacheSize = 1024

// txCache holds synthesized transaction records keyed by safeTxHash.
type txCache struct {
	mu    sync.Mutex
	max   int
	order []string
	m     map[string]*FakeTransaction
}

func newTxCache(max int) *txCache {
	if max <= 0 {
		max = defaultTxCacheSize
	}

	return &txCache{
		max: max,
		m:   make(map[string]*FakeTransaction),
	}
}

// Put stores the record, evicting the oldest entry when full.
func (c *txCache) Put(hash string, tx *FakeTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[hash]; !exists {
		c.order = append(c.order, hash)
		if len(c.order) > c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.m, oldest)
		}
	}

	c.m[hash] = tx
}

// Get returns the record stored under the given hash, if any.
func (c *txCache) Get(hash string) (*FakeTransaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, ok := c.m[hash]
	return tx, ok
}
