package inmemory

import (
	"sync"
	"time"

	accountsdomain "finance-app-go/internal/domain/accounts"
)

type InMemoryAccountCache struct {
	mu    sync.RWMutex
	items map[string]accountItem
	now   func() time.Time
}

type accountItem struct {
	value     accountsdomain.Account
	expiresAt time.Time
}

func NewInMemoryAccountCache() *InMemoryAccountCache {
	return &InMemoryAccountCache{
		items: make(map[string]accountItem),
		now:   time.Now,
	}
}

func (c *InMemoryAccountCache) GetByID(accountID string) (*accountsdomain.Account, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[accountID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[accountID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, accountID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *InMemoryAccountCache) SetByID(accountID string, account *accountsdomain.Account, ttl time.Duration) {
	if account == nil || ttl <= 0 {
		c.DeleteByID(accountID)
		return
	}

	c.mu.Lock()
	c.items[accountID] = accountItem{
		value:     *account,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryAccountCache) DeleteByID(accountID string) {
	c.mu.Lock()
	delete(c.items, accountID)
	c.mu.Unlock()
}

func (c *InMemoryAccountCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]accountItem)
	c.mu.Unlock()
}

func (c *InMemoryAccountCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
