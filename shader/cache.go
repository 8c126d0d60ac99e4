// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"crypto/sha256"
	"fmt"

	"github.com/gogpu/shaderplay/internal/cache"
)

// DefaultCacheSize is the capacity used by NewCache for non-positive sizes.
const DefaultCacheSize = 64

// Cache memoizes compiled modules by source text and options, so saving a
// file with content that was compiled before skips the compiler. A Cache
// is safe for concurrent use and may be shared between compilers.
//
// Cached modules are shared; their Code must not be modified.
type Cache struct {
	lru *cache.LRU[[sha256.Size]byte, *Module]
}

// CacheStats reports cache usage.
type CacheStats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// NewCache creates a cache holding up to size modules.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{lru: cache.New[[sha256.Size]byte, *Module](size)}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	s := c.lru.Stats()
	return CacheStats{Len: s.Len, Hits: s.Hits, Misses: s.Misses}
}

func cacheKey(o Options, source string) [sha256.Size]byte {
	h := sha256.New()
	fmt.Fprintf(h, "%v/%t/%t/%d\x00", o.Version, o.Debug, o.PreserveNames, o.BoundsCheck)
	h.Write([]byte(source))
	var key [sha256.Size]byte
	h.Sum(key[:0])
	return key
}

// WithCache makes the compiler consult and fill c.
func WithCache(c *Cache) Option {
	return func(o *Options) {
		o.cache = c
	}
}
