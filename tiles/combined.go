package tiles

import (
	"context"
	"image"
	"sync"
)

// CombinedProvider serves tiles from a primary provider, falling back to a
// secondary one when the primary fails. Fallback results are upgraded in
// the background: once the primary tile arrives it replaces the fallback
// and the OnUpgrade callback fires so the display can refresh.
type CombinedProvider struct {
	primary  Provider
	fallback Provider

	mu        sync.RWMutex
	upgraded  map[string]image.Image
	loading   map[string]bool
	onUpgrade func()
}

// NewCombinedProvider creates a provider pair.
func NewCombinedProvider(primary, fallback Provider) *CombinedProvider {
	return &CombinedProvider{
		primary:  primary,
		fallback: fallback,
		upgraded: make(map[string]image.Image),
		loading:  make(map[string]bool),
	}
}

// SetOnUpgrade registers a callback invoked when a primary tile replaces a
// previously served fallback tile.
func (p *CombinedProvider) SetOnUpgrade(fn func()) {
	p.mu.Lock()
	p.onUpgrade = fn
	p.mu.Unlock()
}

func (p *CombinedProvider) GetTile(ctx context.Context, tile Tile) (image.Image, error) {
	key := tile.Key()

	p.mu.RLock()
	if img, ok := p.upgraded[key]; ok {
		p.mu.RUnlock()
		return img, nil
	}
	p.mu.RUnlock()

	img, err := p.primary.GetTile(ctx, tile)
	if err == nil {
		p.mu.Lock()
		p.upgraded[key] = img
		p.mu.Unlock()
		return img, nil
	}

	fallbackImg, fallbackErr := p.fallback.GetTile(ctx, tile)
	if fallbackErr != nil {
		return nil, fallbackErr
	}

	p.mu.Lock()
	alreadyLoading := p.loading[key]
	if !alreadyLoading {
		p.loading[key] = true
	}
	p.mu.Unlock()

	if !alreadyLoading {
		go p.upgradeTile(ctx, tile, key)
	}
	return fallbackImg, nil
}

func (p *CombinedProvider) upgradeTile(ctx context.Context, tile Tile, key string) {
	img, err := p.primary.GetTile(ctx, tile)

	p.mu.Lock()
	delete(p.loading, key)
	if err == nil {
		p.upgraded[key] = img
	}
	onUpgrade := p.onUpgrade
	p.mu.Unlock()

	if err == nil && onUpgrade != nil {
		onUpgrade()
	}
}
