package cache

import (
	"sync"
	"time"
)

// Item represents a cached item with expiration
type Item struct {
	Value      any
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Options configures a Cache.
type Options struct {
	// TTL is the default expiration; zero keeps items until evicted.
	TTL time.Duration
	// CleanupInterval controls how often expired items are purged; zero disables the janitor.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; zero means unbounded.
	MaxItems int
}

// Cache is a thread-safe in-memory cache with expiration
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	maxItems          int
	onEvicted         func(string, any)
	stop              chan struct{}
	stopOnce          sync.Once
}

// NewCache creates a new cache and starts the cleanup janitor when configured
func NewCache(opts Options) *Cache {
	cache := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: opts.TTL,
		cleanupInterval:   opts.CleanupInterval,
		maxItems:          opts.MaxItems,
		stop:              make(chan struct{}),
	}

	if cache.cleanupInterval > 0 {
		go cache.startCleanupTimer()
	}

	return cache
}

// Set adds an item to the cache with the default expiration
func (c *Cache) Set(key string, value any) {
	c.SetWithExpiration(key, value, c.defaultExpiration)
}

// SetWithExpiration adds an item to the cache with a specific expiration time
func (c *Cache) SetWithExpiration(key string, value any, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = time.Now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = Item{
		Value:      value,
		Expiration: exp,
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired() {
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found && c.onEvicted != nil {
		c.onEvicted(key, item.Value)
	}

	delete(c.items, key)
}

// Count returns the number of items in the cache (including expired items)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// SetOnEvicted sets the callback to be called when an item is evicted
func (c *Cache) SetOnEvicted(f func(string, any)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvicted = f
}

// Close stops the cleanup janitor.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.Expiration > 0 && now > v.Expiration {
			if c.onEvicted != nil {
				c.onEvicted(k, v.Value)
			}
			delete(c.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry. Items without expiry go last.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime int64
	found := false

	for k, v := range c.items {
		exp := v.Expiration
		if exp == 0 {
			exp = 1<<63 - 1
		}
		if !found || exp < oldestTime {
			oldestKey = k
			oldestTime = exp
			found = true
		}
	}

	if !found {
		return
	}
	if c.onEvicted != nil {
		c.onEvicted(oldestKey, c.items[oldestKey].Value)
	}
	delete(c.items, oldestKey)
}
