package tiles

import (
	"image"
	"sync"
)

// Cache stores decoded tile images by key.
type Cache interface {
	Get(key string) (image.Image, bool)
	Set(key string, img image.Image)
	Clear()
}

// MemoryCache is an unbounded in-memory tile cache safe for concurrent use.
type MemoryCache struct {
	mu    sync.RWMutex
	tiles map[string]image.Image
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{tiles: make(map[string]image.Image)}
}

func (c *MemoryCache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.tiles[key]
	return img, ok
}

func (c *MemoryCache) Set(key string, img image.Image) {
	c.mu.Lock()
	c.tiles[key] = img
	c.mu.Unlock()
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.tiles = make(map[string]image.Image)
	c.mu.Unlock()
}
