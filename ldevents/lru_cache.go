package ldevents

import (
	lru "github.com/hashicorp/golang-lru"
)

// lruCache is a bounded set of recently seen context keys, used for deduplicating index
// events. A capacity of zero or less disables deduplication entirely.
type lruCache struct {
	cache *lru.Cache
}

func newLruCache(capacity int) lruCache {
	if capacity <= 0 {
		return lruCache{}
	}
	cache, _ := lru.New(capacity)
	return lruCache{cache: cache}
}

// add returns true if the value was already in the cache. Adding a value that is already
// present also marks it as most recently used.
func (l *lruCache) add(value string) bool {
	if l.cache == nil {
		return false
	}
	found, _ := l.cache.ContainsOrAdd(value, nil)
	if found {
		// refresh the LRU position
		l.cache.Get(value)
	}
	return found
}

func (l *lruCache) clear() {
	if l.cache != nil {
		l.cache.Purge()
	}
}
