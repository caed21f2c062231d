package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"
)

// LRUStore is a thread-safe in-memory LRU store. The front of order is the
// most recently used entry.
type LRUStore struct {
	maxEntries int

	mu    sync.Mutex
	order *list.List
	byKey map[string]*list.Element
}

type lruItem struct {
	key   string
	codes []int
}

// NewLRUStore creates an LRU store holding at most maxEntries predictions.
func NewLRUStore(maxEntries int) *LRUStore {
	return &LRUStore{
		maxEntries: maxEntries,
		order:      list.New(),
		byKey:      make(map[string]*list.Element),
	}
}

func (c *LRUStore) Backend() string { return "memory" }

func (c *LRUStore) Get(_ context.Context, key string) ([]int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return slices.Clone(el.Value.(*lruItem).codes), true, nil
}

// Put stores a copy of codes under key, evicting the least recently used
// entry when full. An empty prediction is rejected with ErrEmptyPrediction.
func (c *LRUStore) Put(_ context.Context, key string, codes []int) error {
	if len(codes) == 0 {
		return ErrEmptyPrediction
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		el.Value.(*lruItem).codes = slices.Clone(codes)
		c.order.MoveToFront(el)
		return nil
	}

	c.byKey[key] = c.order.PushFront(&lruItem{key: key, codes: slices.Clone(codes)})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*lruItem).key)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *LRUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
