package wameow

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// presenceTTL é a validade das entradas de presença e blocklist
const presenceTTL = 10 * time.Minute

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache guarda estado efêmero por chave (presença, blocklist) com
// expiração fixa e varredura periódica
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep remove as entradas expiradas e devolve quantas foram removidas
func (c *TTLCache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartCacheSweeper agenda a varredura periódica dos caches informados
func StartCacheSweeper(log *logger.Logger, caches ...*TTLCache) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@every 5m", func() {
		total := 0
		for _, cache := range caches {
			total += cache.Sweep()
		}
		if total > 0 {
			log.DebugWithFields("Cache sweep completed", map[string]interface{}{
				"entries_removed": total,
			})
		}
	})
	if err != nil {
		log.ErrorWithFields("Failed to schedule cache sweeper", map[string]interface{}{
			"error": err.Error(),
		})
		return c
	}

	c.Start()
	return c
}
