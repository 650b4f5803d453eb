package tiles_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mapcontrol/geo"
	"mapcontrol/tiles"
	"mapcontrol/worker"
)

// countingProvider records GetTile calls and fails the first failures
// calls.
type countingProvider struct {
	mu       sync.Mutex
	calls    int
	failures int
	block    chan struct{}
}

func (p *countingProvider) GetTile(ctx context.Context, tile tiles.Tile) (image.Image, error) {
	p.mu.Lock()
	p.calls++
	fail := p.calls <= p.failures
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("provider down")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRange(t *testing.T) {
	t.Parallel()

	// One tile exactly.
	got := tiles.Range(geo.RectPx{
		TopLeft:     geo.PointPx{X: 256, Y: 256},
		BottomRight: geo.PointPx{X: 511, Y: 511},
	}, 256, 4)
	require.Equal(t, []tiles.Tile{{X: 1, Y: 1, Zoom: 4}}, got)

	// Crossing a tile boundary picks up the neighbours.
	got = tiles.Range(geo.RectPx{
		TopLeft:     geo.PointPx{X: 200, Y: 200},
		BottomRight: geo.PointPx{X: 300, Y: 300},
	}, 256, 4)
	require.Len(t, got, 4)

	// Negative pixel space clamps to tile 0.
	got = tiles.Range(geo.RectPx{
		TopLeft:     geo.PointPx{X: -1000, Y: -1000},
		BottomRight: geo.PointPx{X: 100, Y: 100},
	}, 256, 2)
	require.Equal(t, []tiles.Tile{{X: 0, Y: 0, Zoom: 2}}, got)

	// The far edge clamps to the last tile of the zoom level.
	got = tiles.Range(geo.RectPx{
		TopLeft:     geo.PointPx{X: 900, Y: 900},
		BottomRight: geo.PointPx{X: 5000, Y: 5000},
	}, 256, 2)
	require.Equal(t, []tiles.Tile{{X: 3, Y: 3, Zoom: 2}}, got)
}

func TestConstrain(t *testing.T) {
	t.Parallel()

	require.Equal(t, tiles.Tile{X: 0, Y: 0, Zoom: 3}, tiles.Constrain(tiles.Tile{X: -5, Y: -1, Zoom: 3}))
	require.Equal(t, tiles.Tile{X: 7, Y: 7, Zoom: 3}, tiles.Constrain(tiles.Tile{X: 100, Y: 8, Zoom: 3}))
	require.Equal(t, tiles.Tile{X: 3, Y: 4, Zoom: 3}, tiles.Constrain(tiles.Tile{X: 3, Y: 4, Zoom: 3}))
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	cache := tiles.NewMemoryCache()
	_, ok := cache.Get("1/0/0")
	require.False(t, ok)

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	cache.Set("1/0/0", img)
	got, ok := cache.Get("1/0/0")
	require.True(t, ok)
	require.Equal(t, image.Image(img), got)

	cache.Clear()
	_, ok = cache.Get("1/0/0")
	require.False(t, ok)
}

func TestManagerLoadsAndCaches(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(2)
	defer pool.Shutdown()

	provider := &countingProvider{}
	manager := tiles.NewManager(provider, nil, pool)

	updated := make(chan struct{}, 16)
	finished := make(chan struct{}, 16)
	manager.OnImageUpdated(func() { updated <- struct{}{} })
	manager.OnDownloadsFinished(func() { finished <- struct{}{} })

	tile := tiles.Tile{X: 1, Y: 2, Zoom: 3}
	_, ok := manager.TileImage(tile)
	require.False(t, ok)

	manager.RequestTile(tile)
	waitSignal(t, updated, "image updated")
	waitSignal(t, finished, "downloads finished")

	_, ok = manager.TileImage(tile)
	require.True(t, ok)
	require.Equal(t, 1, provider.callCount())

	// A request for a cached tile never reaches the provider.
	manager.RequestTile(tile)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, provider.callCount())
}

func TestManagerDedupsInflightRequests(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(4)
	defer pool.Shutdown()

	block := make(chan struct{})
	provider := &countingProvider{block: block}
	manager := tiles.NewManager(provider, nil, pool)

	finished := make(chan struct{}, 16)
	manager.OnDownloadsFinished(func() { finished <- struct{}{} })

	tile := tiles.Tile{X: 0, Y: 0, Zoom: 1}
	manager.RequestTile(tile)
	manager.RequestTile(tile)
	manager.RequestTile(tile)

	require.Eventually(t, func() bool { return manager.LoadingCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	close(block)
	waitSignal(t, finished, "downloads finished")
	require.Equal(t, 1, provider.callCount())
}

func TestManagerAbortLoading(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(1)
	defer pool.Shutdown()

	block := make(chan struct{})
	provider := &countingProvider{block: block}
	manager := tiles.NewManager(provider, nil, pool)

	finished := make(chan struct{}, 16)
	manager.OnDownloadsFinished(func() { finished <- struct{}{} })

	tile := tiles.Tile{X: 0, Y: 0, Zoom: 1}
	manager.RequestTile(tile)

	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	manager.AbortLoading()
	waitSignal(t, finished, "downloads finished after abort")

	_, ok := manager.TileImage(tile)
	require.False(t, ok, "aborted tile must not be cached")
}

func TestManagerAbortDrainsQueuedLoads(t *testing.T) {
	t.Parallel()

	// One worker: the first tile occupies it, the second sits queued. An
	// abort must still drain both loads' bookkeeping, otherwise the pending
	// count never reaches zero and the queued tile can never be re-requested.
	pool := worker.NewPool(1)
	defer pool.Shutdown()

	block := make(chan struct{})
	provider := &countingProvider{block: block}
	manager := tiles.NewManager(provider, nil, pool)

	finished := make(chan struct{}, 16)
	manager.OnDownloadsFinished(func() { finished <- struct{}{} })

	running := tiles.Tile{X: 0, Y: 0, Zoom: 1}
	queued := tiles.Tile{X: 1, Y: 0, Zoom: 1}

	manager.RequestTile(running)
	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	manager.RequestTile(queued)
	require.Equal(t, 2, manager.LoadingCount())

	manager.AbortLoading()
	close(block)

	waitSignal(t, finished, "downloads finished after abort")
	require.Eventually(t, func() bool { return manager.LoadingCount() == 0 },
		2*time.Second, 10*time.Millisecond)

	_, ok := manager.TileImage(queued)
	require.False(t, ok, "aborted tile must not be cached")

	// The queued tile is loadable again once the abort has drained.
	updated := make(chan struct{}, 16)
	manager.OnImageUpdated(func() { updated <- struct{}{} })
	manager.RequestTile(queued)
	waitSignal(t, updated, "image updated after re-request")
	_, ok = manager.TileImage(queued)
	require.True(t, ok)
}

func TestCombinedProviderFallbackAndUpgrade(t *testing.T) {
	t.Parallel()

	// The primary fails once: the synchronous attempt inside GetTile. The
	// background upgrade then succeeds and fires the callback.
	primary := &countingProvider{failures: 1}
	fallback := &countingProvider{}
	combined := tiles.NewCombinedProvider(primary, fallback)

	var upgraded atomic.Bool
	combined.SetOnUpgrade(func() { upgraded.Store(true) })

	tile := tiles.Tile{X: 1, Y: 1, Zoom: 2}
	img, err := combined.GetTile(context.Background(), tile)
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, 1, fallback.callCount())

	require.Eventually(t, upgraded.Load, 2*time.Second, 10*time.Millisecond)

	// Once upgraded, the tile is served without touching either provider.
	callsBefore := primary.callCount()
	_, err = combined.GetTile(context.Background(), tile)
	require.NoError(t, err)
	require.Equal(t, callsBefore, primary.callCount())
}

func TestCombinedProviderPrimaryFirst(t *testing.T) {
	t.Parallel()

	primary := &countingProvider{}
	fallback := &countingProvider{}
	combined := tiles.NewCombinedProvider(primary, fallback)

	_, err := combined.GetTile(context.Background(), tiles.Tile{X: 0, Y: 0, Zoom: 0})
	require.NoError(t, err)
	require.Equal(t, 1, primary.callCount())
	require.Zero(t, fallback.callCount())

	// Second request is served from the upgraded map.
	_, err = combined.GetTile(context.Background(), tiles.Tile{X: 0, Y: 0, Zoom: 0})
	require.NoError(t, err)
	require.Equal(t, 1, primary.callCount())
}

func TestLocalProviderTileSize(t *testing.T) {
	t.Parallel()

	provider := tiles.NewLocalProvider(256)
	img, err := provider.GetTile(context.Background(), tiles.Tile{X: 3, Y: 5, Zoom: 7})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
}

func TestOSMProviderURL(t *testing.T) {
	t.Parallel()

	provider := tiles.NewOSMProvider("")
	require.Equal(t, "https://tile.openstreetmap.org/5/1/2.png",
		provider.TileURL(tiles.Tile{X: 1, Y: 2, Zoom: 5}))

	custom := tiles.NewOSMProvider("http://localhost:8080/%d/%d/%d.png")
	require.Equal(t, "http://localhost:8080/9/8/7.png",
		custom.TileURL(tiles.Tile{X: 8, Y: 7, Zoom: 9}))
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
