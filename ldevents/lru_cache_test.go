package ldevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLruCacheWithZeroCapacityNeverFindsAnything(t *testing.T) {
	cache := newLruCache(0)
	assert.False(t, cache.add("a"))
	assert.False(t, cache.add("a"))
}

func TestLruCacheReturnsTrueForAlreadySeenValue(t *testing.T) {
	cache := newLruCache(10)
	assert.False(t, cache.add("a"))
	assert.True(t, cache.add("a"))
}

func TestLruCacheDiscardsLeastRecentlyUsedValue(t *testing.T) {
	cache := newLruCache(2)
	assert.False(t, cache.add("a"))
	assert.False(t, cache.add("b"))
	assert.False(t, cache.add("c")) // evicts "a"
	assert.False(t, cache.add("a"))
	assert.True(t, cache.add("c"))
}

func TestLruCacheAddRefreshesRecency(t *testing.T) {
	cache := newLruCache(2)
	assert.False(t, cache.add("a"))
	assert.False(t, cache.add("b"))
	assert.True(t, cache.add("a"))  // "b" is now least recently used
	assert.False(t, cache.add("c")) // evicts "b"
	assert.True(t, cache.add("a"))
	assert.False(t, cache.add("b"))
}

func TestLruCacheClear(t *testing.T) {
	cache := newLruCache(10)
	assert.False(t, cache.add("a"))
	cache.clear()
	assert.False(t, cache.add("a"))
}
