package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/thekade/nopolin-appointments/internal/database"
)

// Cache stores lawyer directory listings keyed by listing kind and filters
type Cache interface {
	Get(key string) ([]database.Lawyer, bool)
	Set(key string, value []database.Lawyer) error
	Delete(key string)
	Clear()
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

type TTLCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
}

func NewCache(maxSize int, ttl time.Duration) Cache {
	return &TTLCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		stats:   CacheStats{},
	}
}

func (c *TTLCache) Get(key string) ([]database.Lawyer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		c.stats.Hits++
		if lawyers, ok := data.([]database.Lawyer); ok {
			return lawyers, true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *TTLCache) Set(key string, value []database.Lawyer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{}
}

func (c *TTLCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.stats.Size = c.cache.ItemCount()
	return c.stats
}

func (c *TTLCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, item := range items {
		if oldestTime.IsZero() || item.Expiration < oldestTime.Unix() {
			oldestKey = key
			oldestTime = time.Unix(item.Expiration, 0)
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// GenerateListingKey builds a cache key for a lawyer listing
func GenerateListingKey(kind string, filters ...string) string {
	if len(filters) == 0 {
		return fmt.Sprintf("lawyers:%s", kind)
	}
	return fmt.Sprintf("lawyers:%s:%s", kind, strings.Join(filters, ":"))
}
