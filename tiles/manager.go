package tiles

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"mapcontrol/worker"
)

// Manager loads tiles asynchronously through a worker pool and keeps them
// in a cache for the renderer. It is the engine's image provider: it
// notifies as images arrive and when all outstanding downloads complete,
// and it can abort everything in flight when the zoom changes.
type Manager struct {
	provider Provider
	cache    Cache
	pool     *worker.Pool

	mu       sync.Mutex
	inflight map[string]struct{}
	pending  int
	ctx      context.Context
	cancel   context.CancelFunc

	callbackMu          sync.Mutex
	onImageUpdated      []func()
	onDownloadsFinished []func()
}

// NewManager creates a manager around the given provider. A nil cache
// defaults to an in-memory cache.
func NewManager(provider Provider, cache Cache, pool *worker.Pool) *Manager {
	if cache == nil {
		cache = NewMemoryCache()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		cache:    cache,
		pool:     pool,
		inflight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnImageUpdated registers a callback fired after each tile image arrives.
func (m *Manager) OnImageUpdated(fn func()) {
	m.callbackMu.Lock()
	m.onImageUpdated = append(m.onImageUpdated, fn)
	m.callbackMu.Unlock()
}

// OnDownloadsFinished registers a callback fired when the last outstanding
// download completes.
func (m *Manager) OnDownloadsFinished(fn func()) {
	m.callbackMu.Lock()
	m.onDownloadsFinished = append(m.onDownloadsFinished, fn)
	m.callbackMu.Unlock()
}

// TileImage returns the cached image for a tile, if present. It never
// blocks; a miss should be followed by RequestTile.
func (m *Manager) TileImage(tile Tile) (image.Image, bool) {
	return m.cache.Get(tile.Key())
}

// LoadingCount returns the number of outstanding tile loads.
func (m *Manager) LoadingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// RequestTile schedules an asynchronous load of the tile. Requests for
// cached or already-loading tiles are no-ops.
func (m *Manager) RequestTile(tile Tile) {
	key := tile.Key()
	if _, ok := m.cache.Get(key); ok {
		return
	}

	m.mu.Lock()
	if _, loading := m.inflight[key]; loading {
		m.mu.Unlock()
		return
	}
	m.inflight[key] = struct{}{}
	m.pending++
	ctx := m.ctx
	m.mu.Unlock()

	// The pool drops tasks whose context is cancelled before a worker picks
	// them up, which would skip finish and leak the inflight entry and the
	// pending count. Submit without a cancellation context; the captured ctx
	// aborts only the fetch itself.
	m.pool.Submit(worker.Task{
		Ctx: context.Background(),
		Work: func() {
			defer m.finish(key)
			if ctx.Err() != nil {
				return
			}
			img, err := m.provider.GetTile(ctx, tile)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("tiles: loading tile %s: %v", key, err)
				}
				return
			}
			m.cache.Set(key, img)
			m.fire(m.imageUpdatedCallbacks())
		},
	})
}

// AbortLoading cancels all outstanding tile loads. Loads already running
// stop at their next context check; new requests use a fresh context.
func (m *Manager) AbortLoading() {
	m.mu.Lock()
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.mu.Unlock()
}

func (m *Manager) finish(key string) {
	m.mu.Lock()
	delete(m.inflight, key)
	m.pending--
	finished := m.pending == 0
	m.mu.Unlock()

	if finished {
		m.fire(m.downloadsFinishedCallbacks())
	}
}

func (m *Manager) imageUpdatedCallbacks() []func() {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	return append([]func(){}, m.onImageUpdated...)
}

func (m *Manager) downloadsFinishedCallbacks() []func() {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	return append([]func(){}, m.onDownloadsFinished...)
}

func (m *Manager) fire(callbacks []func()) {
	for _, fn := range callbacks {
		fn()
	}
}
