package chain

import (
	"container/list"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/futarchy-engine/internal/adapters/persistence"
)

// mintCache is a bounded LRU of mint metadata. Decimals and owning token
// program never change for a mint, so entries are never invalidated.
type mintCache struct {
	mu      sync.Mutex
	entries map[solana.PublicKey]*list.Element
	lru     *list.List
	maxSize int
}

func newMintCache(maxSize int) *mintCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &mintCache{
		entries: make(map[solana.PublicKey]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

func (c *mintCache) Get(mint solana.PublicKey) (persistence.MintInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[mint]
	if !ok {
		return persistence.MintInfo{}, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(persistence.MintInfo), true
}

func (c *mintCache) Add(info persistence.MintInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[info.Mint]; ok {
		elem.Value = info
		c.lru.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.lru.Remove(back)
		delete(c.entries, back.Value.(persistence.MintInfo).Mint)
	}
	c.entries[info.Mint] = c.lru.PushFront(info)
}

func (c *mintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
