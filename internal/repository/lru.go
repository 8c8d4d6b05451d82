package repository

import (
	"container/list"
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/models"
)

// lru is a bounded least-recently-used map from aggregate ID to value.
// Eviction keeps the cache from growing with the number of accounts/orders
// ever touched; the store underneath stays the source of truth.
type lru struct {
	mu       sync.Mutex
	capacity int
	items    map[uuid.UUID]*list.Element
	recency  *list.List
}

type lruEntry struct {
	key   uuid.UUID
	value any
}

func newLRU(capacity int) *lru {
	if capacity <= 0 {
		capacity = 1
	}
	return &lru{
		capacity: capacity,
		items:    make(map[uuid.UUID]*list.Element, capacity),
		recency:  list.New(),
	}
}

func (c *lru) get(key uuid.UUID) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.recency.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

func (c *lru) set(key uuid.UUID, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).value = value
		c.recency.MoveToFront(elem)
		return
	}
	c.items[key] = c.recency.PushFront(&lruEntry{key: key, value: value})
	if c.recency.Len() > c.capacity {
		oldest := c.recency.Back()
		c.recency.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
}

func (c *lru) delete(key uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.recency.Remove(elem)
		delete(c.items, key)
	}
}

func (c *lru) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}

// MemoryCartCache is a bounded in-process CartCache.
type MemoryCartCache struct {
	lru *lru
}

func NewMemoryCartCache(capacity int) *MemoryCartCache {
	return &MemoryCartCache{lru: newLRU(capacity)}
}

func (c *MemoryCartCache) Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	if v, ok := c.lru.get(accountID); ok {
		return v.(*models.Cart), nil
	}
	return nil, nil
}

func (c *MemoryCartCache) Set(ctx context.Context, cart *models.Cart) error {
	c.lru.set(cart.AccountID, cart)
	return nil
}

func (c *MemoryCartCache) Delete(ctx context.Context, accountID uuid.UUID) error {
	c.lru.delete(accountID)
	return nil
}

// Len reports the number of cached carts.
func (c *MemoryCartCache) Len() int { return c.lru.len() }

// MemoryOrderCache is a bounded in-process OrderCache.
type MemoryOrderCache struct {
	lru *lru
}

func NewMemoryOrderCache(capacity int) *MemoryOrderCache {
	return &MemoryOrderCache{lru: newLRU(capacity)}
}

func (c *MemoryOrderCache) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if v, ok := c.lru.get(id); ok {
		return v.(*models.Order), nil
	}
	return nil, nil
}

func (c *MemoryOrderCache) Set(ctx context.Context, order *models.Order) error {
	c.lru.set(order.ID, order)
	return nil
}

func (c *MemoryOrderCache) Delete(ctx context.Context, id uuid.UUID) error {
	c.lru.delete(id)
	return nil
}

// Len reports the number of cached orders.
func (c *MemoryOrderCache) Len() int { return c.lru.len() }
