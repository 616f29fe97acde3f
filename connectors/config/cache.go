// Copyright 2025 The azstor Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"sync"
	"time"

	"azstor/connectors/base"
)

// CacheEntry represents a cached configuration entry with expiration
type CacheEntry[T any] struct {
	Value      T
	ExpiresAt  time.Time
	LastUpdate time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry[T]) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// cachedConnectors pairs a config list with the source it was loaded from,
// so cache hits report the same source as the original load
type cachedConnectors struct {
	configs []*base.ConnectorConfig
	source  ConfigSource
}

// ConfigCache provides thread-safe caching for connector configurations
// with a configurable TTL
type ConfigCache struct {
	connectorConfigs *CacheEntry[cachedConnectors]
	ttl              time.Duration
	mu               sync.RWMutex
	stats            CacheStats
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits         int64
	Misses       int64
	Evictions    int64
	LastEviction time.Time
	mu           sync.Mutex
}

// NewConfigCache creates a new configuration cache with the specified TTL
func NewConfigCache(ttl time.Duration) *ConfigCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ConfigCache{
		ttl: ttl,
	}
}

// GetConnectors retrieves the cached connector configs along with the
// source they were originally loaded from.
// Returns a boolean indicating if the cache hit was successful
func (c *ConfigCache) GetConnectors() ([]*base.ConnectorConfig, ConfigSource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry := c.connectorConfigs
	if entry == nil || entry.IsExpired() {
		c.recordMiss()
		return nil, "", false
	}

	c.recordHit()
	return entry.Value.configs, entry.Value.source, true
}

// SetConnectors caches the connector config list and its source
func (c *ConfigCache) SetConnectors(configs []*base.ConnectorConfig, source ConfigSource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.connectorConfigs = &CacheEntry[cachedConnectors]{
		Value:      cachedConnectors{configs: configs, source: source},
		ExpiresAt:  now.Add(c.ttl),
		LastUpdate: now,
	}
}

// InvalidateConnector invalidates the whole cached list or a specific connector
func (c *ConfigCache) InvalidateConnector(connectorName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if connectorName == "" {
		c.connectorConfigs = nil
	} else if entry := c.connectorConfigs; entry != nil && !entry.IsExpired() {
		// Remove the named connector from the cached list
		filtered := make([]*base.ConnectorConfig, 0, len(entry.Value.configs))
		for _, cfg := range entry.Value.configs {
			if cfg.Name != connectorName {
				filtered = append(filtered, cfg)
			}
		}
		entry.Value.configs = filtered
	}

	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.LastEviction = time.Now()
	c.stats.mu.Unlock()
}

// InvalidateAll clears all cached configurations
func (c *ConfigCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectorConfigs = nil

	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.LastEviction = time.Now()
	c.stats.mu.Unlock()
}

// Cleanup removes expired entries from the cache.
// Should be called periodically (e.g., every minute)
func (c *ConfigCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0

	if entry := c.connectorConfigs; entry != nil && entry.IsExpired() {
		c.connectorConfigs = nil
		evicted++
	}

	if evicted > 0 {
		c.stats.mu.Lock()
		c.stats.Evictions += int64(evicted)
		c.stats.LastEviction = time.Now()
		c.stats.mu.Unlock()
	}

	return evicted
}

// GetStats returns cache performance statistics
func (c *ConfigCache) GetStats() CacheStats {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	// Return a copy of stats values to avoid copying the mutex
	return CacheStats{
		Hits:         c.stats.Hits,
		Misses:       c.stats.Misses,
		Evictions:    c.stats.Evictions,
		LastEviction: c.stats.LastEviction,
	}
}

// HitRate returns the cache hit rate as a percentage (0-100)
func (c *ConfigCache) HitRate() float64 {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()

	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total) * 100
}

func (c *ConfigCache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *ConfigCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
