// Package mapcontrol implements an embeddable tiled map engine: a
// double-buffered viewport over tile imagery and vector layers, with
// pan/zoom state, click and drag-selection hit-testing, and an event
// registry for hosting widgets. The engine is toolkit-neutral; the mapview
// package adapts it to Gio.
package mapcontrol

import (
	"image"
	"image/color"
	"sync"
	"time"

	"mapcontrol/geo"
	"mapcontrol/layers"
	"mapcontrol/worker"
)

// ImageProvider is the tile/image subsystem the engine coordinates with.
// It notifies as images arrive and when all downloads finish, and can abort
// everything outstanding (used on zoom changes). tiles.Manager implements
// it.
type ImageProvider interface {
	AbortLoading()
	OnImageUpdated(fn func())
	OnDownloadsFinished(fn func())
}

// MapControl is the map engine. All exported methods are safe for
// concurrent use; rendering reads a published snapshot and never observes a
// partially drawn buffer.
type MapControl struct {
	proj           geo.Projection
	layerContainer *layers.Container
	pool           *worker.Pool
	ownsPool       bool
	imageProvider  ImageProvider

	stateMu             sync.RWMutex
	viewportSizePx      geo.PointPx
	mapFocusCoord       geo.Coordinate
	zoomMinimum         int
	zoomMaximum         int
	currentZoom         int
	limitedViewportRect *geo.RectCoord
	backgroundColour    color.NRGBA
	scaledEnabled       bool

	backbuffer backbufferState

	animatedMu       sync.Mutex
	animatedTarget   geo.Coordinate
	animatedSteps    int
	animatedInterval time.Duration

	inputMu            sync.Mutex
	mouseEventsEnabled bool
	mouseLeftMode      MouseButtonMode
	mouseLeftCenter    bool
	mouseRightMode     MouseButtonMode
	mouseRightCenter   bool
	mouseLeftPressed   bool
	mouseRightPressed  bool
	mousePressedPx     geo.PointPx
	mouseCurrentPx     geo.PointPx

	followMu sync.Mutex
	unfollow func()

	events events
}

// Option configures a MapControl at construction.
type Option func(*MapControl)

// WithProjection sets the projection (default spherical mercator, 256px
// tiles).
func WithProjection(p geo.Projection) Option {
	return func(m *MapControl) { m.proj = p }
}

// WithWorkerPool shares an existing worker pool instead of owning one.
func WithWorkerPool(pool *worker.Pool) Option {
	return func(m *MapControl) {
		m.pool = pool
		m.ownsPool = false
	}
}

// WithImageProvider injects the tile subsystem. The engine subscribes to
// its notifications and aborts its loads on zoom changes.
func WithImageProvider(p ImageProvider) Option {
	return func(m *MapControl) { m.imageProvider = p }
}

// WithBackgroundColour sets the backbuffer clear colour (default
// transparent).
func WithBackgroundColour(c color.NRGBA) Option {
	return func(m *MapControl) { m.backgroundColour = c }
}

// WithScaledPreview enables the cosmetic scaled backbuffer shown during
// zoom transitions.
func WithScaledPreview(enabled bool) Option {
	return func(m *MapControl) { m.scaledEnabled = enabled }
}

// WithZoomRange sets the allowed zoom range (default 0..17). Inverted
// bounds are swapped.
func WithZoomRange(minimum, maximum int) Option {
	return func(m *MapControl) {
		if minimum > maximum {
			minimum, maximum = maximum, minimum
		}
		m.zoomMinimum = minimum
		m.zoomMaximum = maximum
		m.currentZoom = minimum
	}
}

// New creates a map engine rendering into a viewport of the given pixel
// size.
func New(viewportSizePx image.Point, opts ...Option) *MapControl {
	m := &MapControl{
		proj:           geo.NewSphericalMercator(256),
		layerContainer: layers.NewContainer(),
		pool:           worker.NewPool(4),
		ownsPool:       true,
		zoomMinimum:    0,
		zoomMaximum:    17,
		currentZoom:    0,
		backgroundColour: color.NRGBA{},

		mouseEventsEnabled: true,
		mouseLeftMode:      ModePan,
		mouseRightMode:     ModeDrawBox,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.applyViewportSize(viewportSizePx)

	if m.imageProvider != nil {
		m.imageProvider.OnImageUpdated(func() { m.RedrawPrimaryScreen(true) })
		m.imageProvider.OnDownloadsFinished(m.loadingFinished)
	}
	return m
}

// Close releases resources owned by the engine.
func (m *MapControl) Close() {
	if m.ownsPool {
		m.pool.Shutdown()
	}
}

// Projection returns the active projection.
func (m *MapControl) Projection() geo.Projection {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.proj
}

// SetProjection reconfigures the projection. All previously cached
// pixel-space state is invalid afterwards, so a full redraw is forced.
func (m *MapControl) SetProjection(p geo.Projection) {
	m.stateMu.Lock()
	m.proj = p
	m.stateMu.Unlock()
	m.clearScaledScreen()
	m.RedrawPrimaryScreen(true)
}

// SetBackgroundColour sets the backbuffer clear colour for subsequent
// rebuilds.
func (m *MapControl) SetBackgroundColour(c color.NRGBA) {
	m.stateMu.Lock()
	m.backgroundColour = c
	m.stateMu.Unlock()
	m.RedrawPrimaryScreen(true)
}

// EnableScaledBackground toggles the cosmetic zoom-transition preview.
func (m *MapControl) EnableScaledBackground(enabled bool) {
	m.stateMu.Lock()
	m.scaledEnabled = enabled
	m.stateMu.Unlock()
}

// Layer management.

// Layers returns the layer list in draw order.
func (m *MapControl) Layers() []layers.Layer {
	return m.layerContainer.Layers()
}

// Layer returns the layer with the given name, or nil.
func (m *MapControl) Layer(name string) layers.Layer {
	return m.layerContainer.Layer(name)
}

// AddLayer adds (or replaces, by name) a layer at the given index; index -1
// appends. Forces a redraw.
func (m *MapControl) AddLayer(layer layers.Layer, index int) {
	m.layerContainer.Add(layer, index)
	m.RedrawPrimaryScreen(true)
}

// RemoveLayer removes the named layer. Forces a redraw if a layer was
// removed. A rebuild already running keeps drawing its own snapshot of the
// layer list.
func (m *MapControl) RemoveLayer(name string) {
	if m.layerContainer.Remove(name) {
		m.RedrawPrimaryScreen(true)
	}
}

// IsGeometryVisible reports whether the geometry's bounding box is inside
// the viewport; partial accepts intersection, otherwise full containment is
// required.
func (m *MapControl) IsGeometryVisible(g layers.Geometry, partial bool) bool {
	if g == nil {
		return false
	}
	viewport := m.ViewportRectCoord()
	box := g.BoundingBox(m.Projection(), m.CurrentZoom())
	if partial {
		return viewport.Intersects(box)
	}
	return viewport.Contains(box)
}

// FollowGeometry keeps the view centred on the identified point geometry:
// every position change scrolls the view and forces a redraw. Following a
// new geometry stops any previous follow.
func (m *MapControl) FollowGeometry(layer *layers.GeometryLayer, id layers.GeometryID) {
	m.StopFollowingGeometry()

	unsubscribe := layer.SubscribePosition(id, func(coord geo.Coordinate) {
		delta := m.Projection().ToPixelPoint(coord, m.CurrentZoom()).Sub(m.MapFocusPointPx())
		m.ScrollView(delta)
		m.RedrawPrimaryScreen(true)
	})

	m.followMu.Lock()
	m.unfollow = unsubscribe
	m.followMu.Unlock()
}

// StopFollowingGeometry cancels any active follow subscription.
func (m *MapControl) StopFollowingGeometry() {
	m.followMu.Lock()
	unfollow := m.unfollow
	m.unfollow = nil
	m.followMu.Unlock()
	if unfollow != nil {
		unfollow()
	}
}

// Viewport management.

// SetViewportSize resizes the visible viewport. The primary screen is
// recreated (not resized) and a full redraw forced.
func (m *MapControl) SetViewportSize(sizePx image.Point) {
	m.applyViewportSize(sizePx)
	m.RedrawPrimaryScreen(true)
}

func (m *MapControl) applyViewportSize(sizePx image.Point) {
	m.stateMu.Lock()
	m.viewportSizePx = geo.PointPx{X: float64(sizePx.X), Y: float64(sizePx.Y)}
	m.stateMu.Unlock()
	m.resetScreens(sizePx)
}

// ViewportSizePx returns the viewport size in pixels.
func (m *MapControl) ViewportSizePx() geo.PointPx {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.viewportSizePx
}

// viewportCenterPx is always derived from the size, never stored, so the
// two cannot drift apart.
func (m *MapControl) viewportCenterPx() geo.PointPx {
	size := m.ViewportSizePx()
	return geo.PointPx{X: size.X / 2, Y: size.Y / 2}
}

// ViewportRectCoord returns the geographic rect covered by the visible
// viewport.
func (m *MapControl) ViewportRectCoord() geo.RectCoord {
	proj := m.Projection()
	zoom := m.CurrentZoom()
	focusPx := m.MapFocusPointPx()
	center := m.viewportCenterPx()
	return geo.RectCoord{
		TopLeft:     proj.ToCoordinatePoint(focusPx.Sub(center), zoom),
		BottomRight: proj.ToCoordinatePoint(focusPx.Add(center), zoom),
	}
}

// ViewportContainsAll reports whether every coordinate lies inside the
// visible viewport, stopping at the first one outside.
func (m *MapControl) ViewportContainsAll(coords []geo.Coordinate) bool {
	viewport := m.ViewportRectCoord()
	for _, coord := range coords {
		if !viewport.ContainsCoordinate(coord) {
			return false
		}
	}
	return true
}

// ResetLimitedViewportRect removes the focus movement limit.
func (m *MapControl) ResetLimitedViewportRect() {
	m.stateMu.Lock()
	m.limitedViewportRect = nil
	m.stateMu.Unlock()
}

// SetLimitedViewportRect restricts focus movements to the given geographic
// rect; scrolls that would leave it are ignored.
func (m *MapControl) SetLimitedViewportRect(topLeft, bottomRight geo.Coordinate) {
	m.stateMu.Lock()
	m.limitedViewportRect = &geo.RectCoord{TopLeft: topLeft, BottomRight: bottomRight}
	m.stateMu.Unlock()
}

// Coordinate mapping.

// ToPointPx converts a widget-local pixel position into map-pixel space
// using the current focus point.
func (m *MapControl) ToPointPx(widgetPx geo.PointPx) geo.PointPx {
	return m.toPointPxWithFocus(widgetPx, m.MapFocusPointPx())
}

// toPointPxWithFocus converts a widget-local pixel position into map-pixel
// space under a hypothetical focus point (needed mid-drag and during
// rebuild rect computation):
//
//	map px = widget px - viewport center + focus px
func (m *MapControl) toPointPxWithFocus(widgetPx, focusPx geo.PointPx) geo.PointPx {
	return widgetPx.Sub(m.viewportCenterPx()).Add(focusPx)
}

// ToCoordinate converts a widget-local pixel position into a geographic
// coordinate.
func (m *MapControl) ToCoordinate(widgetPx geo.PointPx) geo.Coordinate {
	return m.Projection().ToCoordinatePoint(m.ToPointPx(widgetPx), m.CurrentZoom())
}

// MapFocusPointCoord returns the current focus coordinate.
func (m *MapControl) MapFocusPointCoord() geo.Coordinate {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.mapFocusCoord
}

// MapFocusPointPx returns the current focus point in map-pixel space at the
// current zoom.
func (m *MapControl) MapFocusPointPx() geo.PointPx {
	m.stateMu.RLock()
	coord := m.mapFocusCoord
	zoom := m.currentZoom
	proj := m.proj
	m.stateMu.RUnlock()
	return proj.ToPixelPoint(coord, zoom)
}
