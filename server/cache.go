package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/solvire/fartemis/resolution/types"
)

// CacheConfig конфигурация кэша результатов
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	MaxSize         int           `json:"max_size"`
}

// CacheEntry запись в кэше
type CacheEntry struct {
	Result      *types.ResolutionResult
	Expiration  time.Time
	AccessCount int64
}

// CacheStats статистика кэша
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// ResultCache кэш результатов резолюции: повторный запрос с теми же
// критериями не тратит квоты провайдеров
type ResultCache struct {
	config *CacheConfig
	data   map[string]*CacheEntry
	mutex  sync.RWMutex
	stats  *CacheStats
}

// NewResultCache создает новый кэш результатов
func NewResultCache(config *CacheConfig) *ResultCache {
	cache := &ResultCache{
		config: config,
		data:   make(map[string]*CacheEntry),
		stats:  &CacheStats{},
	}

	// Запускаем очистку устаревших записей
	if config.Enabled && config.CleanupInterval > 0 {
		go cache.startCleanup()
	}

	return cache
}

// CacheKey строит ключ кэша из критериев поиска
func CacheKey(criteria types.SearchCriteria) string {
	raw := strings.ToLower(fmt.Sprintf("%s|%s|%s|%s",
		criteria.FirstName, criteria.LastName, criteria.Company, criteria.RoleHint))
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}

// Get возвращает результат из кэша
func (c *ResultCache) Get(key string) (*types.ResolutionResult, bool) {
	if !c.config.Enabled {
		return nil, false
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[key]
	if !exists || time.Now().After(entry.Expiration) {
		c.stats.Misses++
		return nil, false
	}

	entry.AccessCount++
	c.stats.Hits++
	return entry.Result, true
}

// Set сохраняет результат в кэш
func (c *ResultCache) Set(key string, result *types.ResolutionResult) {
	if !c.config.Enabled {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.config.MaxSize > 0 && len(c.data) >= c.config.MaxSize {
		c.evictLRU()
	}

	c.data[key] = &CacheEntry{
		Result:     result,
		Expiration: time.Now().Add(c.config.TTL),
	}
}

// Stats возвращает статистику кэша
func (c *ResultCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := *c.stats
	stats.Size = len(c.data)
	return stats
}

// evictLRU вытесняет наименее используемую запись. Вызывается под мьютексом.
func (c *ResultCache) evictLRU() {
	var victim string
	var minAccess int64 = -1

	for key, entry := range c.data {
		if minAccess < 0 || entry.AccessCount < minAccess {
			victim = key
			minAccess = entry.AccessCount
		}
	}

	if victim != "" {
		delete(c.data, victim)
	}
}

// startCleanup периодически удаляет устаревшие записи
func (c *ResultCache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mutex.Lock()
		for key, entry := range c.data {
			if now.After(entry.Expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
