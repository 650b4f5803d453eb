package mapcontrol

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"mapcontrol/geo"
	"mapcontrol/render"
	"mapcontrol/worker"
)

// PrimaryScreen is one published backbuffer generation: the pixel buffer,
// the map-pixel rect it covers, and the focus point it was captured at. The
// rect must be interpreted against MapFocusPx, not the live focus — the two
// drift apart as the user pans until the next rebuild. Snapshots are
// immutable once published.
type PrimaryScreen struct {
	Image      *image.RGBA
	RectPx     geo.RectPx
	MapFocusPx geo.PointPx
}

// backbufferState holds the double-buffering machinery. The primary screen
// is swapped with a single atomic store, so readers see either the old or
// the new complete buffer, never a mix. rebuildMu is held for the duration
// of one rebuild; queuedMu is the non-blocking dedup gate: at most one
// rebuild runs and at most one more waits, further requests are dropped.
type backbufferState struct {
	primary atomic.Pointer[PrimaryScreen]

	rebuildMu sync.Mutex
	queuedMu  sync.Mutex

	scaledMu     sync.Mutex
	scaled       *image.RGBA
	scaledOffset geo.PointPx
}

// PrimarySnapshot returns the current published backbuffer.
func (m *MapControl) PrimarySnapshot() *PrimaryScreen {
	return m.backbuffer.primary.Load()
}

// resetScreens recreates the primary and scaled buffers at 2x the viewport
// size. The fresh primary covers a zero rect, so the next coverage check
// forces a rebuild.
func (m *MapControl) resetScreens(viewportSizePx image.Point) {
	buffer := image.NewRGBA(image.Rect(0, 0, viewportSizePx.X*2, viewportSizePx.Y*2))
	m.stateMu.RLock()
	bg := m.backgroundColour
	m.stateMu.RUnlock()
	draw.Draw(buffer, buffer.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	m.backbuffer.primary.Store(&PrimaryScreen{
		Image:      buffer,
		RectPx:     geo.RectPx{},
		MapFocusPx: m.MapFocusPointPx(),
	})
	m.clearScaledScreen()
}

// CheckBackbuffer reports whether a redraw is required: true when the
// published backbuffer no longer covers the pixel rect needed to render the
// current viewport. Panning within the 2x-oversized buffer needs no
// redraw, only a blit offset.
func (m *MapControl) CheckBackbuffer() bool {
	focusPx := m.MapFocusPointPx()
	size := m.ViewportSizePx()
	required := geo.RectPx{
		TopLeft:     m.toPointPxWithFocus(geo.PointPx{}, focusPx),
		BottomRight: m.toPointPxWithFocus(geo.PointPx{X: size.X, Y: size.Y}, focusPx),
	}

	snapshot := m.PrimarySnapshot()
	if snapshot == nil {
		return true
	}
	return !snapshot.RectPx.Contains(required)
}

// RedrawPrimaryScreen schedules an asynchronous backbuffer rebuild when
// forced or when the coverage check fails. Overlay repositioning and the
// repaint request happen unconditionally on every call, whether or not a
// rebuild was scheduled.
func (m *MapControl) RedrawPrimaryScreen(force bool) {
	if force || m.CheckBackbuffer() {
		m.pool.Submit(worker.Task{
			Ctx:  context.Background(),
			Work: m.redrawBackbuffer,
		})
	}

	m.events.overlayReposition.emit(OverlayReposition{
		TopLeftPx: m.MapFocusPointPx().Sub(m.viewportCenterPx()),
		Zoom:      m.CurrentZoom(),
	})
	m.events.repaintRequested.emit(struct{}{})
}

// redrawBackbuffer runs on a pool worker. The queued gate dedups requests:
// the first waiter parks on rebuildMu while the running rebuild finishes,
// anything beyond that is dropped immediately. The UI goroutine keeps
// reading the previous snapshot throughout; publication is one atomic
// store of the complete new generation.
func (m *MapControl) redrawBackbuffer() {
	if !m.backbuffer.queuedMu.TryLock() {
		return
	}
	m.backbuffer.rebuildMu.Lock()
	m.backbuffer.queuedMu.Unlock()
	defer m.backbuffer.rebuildMu.Unlock()

	m.stateMu.RLock()
	proj := m.proj
	zoom := m.currentZoom
	size := m.viewportSizePx
	bg := m.backgroundColour
	coord := m.mapFocusCoord
	m.stateMu.RUnlock()

	// The focus point this buffer is rendered around, derived from the same
	// state read as the zoom: a zoom change landing mid-rebuild must not
	// split the snapshot across two zoom levels.
	focusPx := proj.ToPixelPoint(coord, zoom)

	// Covered rect: viewport size x2, centred on the captured focus.
	rectPx := geo.RectPx{
		TopLeft:     m.toPointPxWithFocus(geo.PointPx{X: -size.X / 2, Y: -size.Y / 2}, focusPx),
		BottomRight: m.toPointPxWithFocus(geo.PointPx{X: size.X * 1.5, Y: size.Y * 1.5}, focusPx),
	}

	canvas := render.NewCanvas(int(size.X)*2, int(size.Y)*2)
	canvas.Clear(bg)
	canvas.SetTranslation(rectPx.TopLeft)

	// Consistent snapshot of the layer list; concurrent add/remove cannot
	// corrupt this rebuild, it may only render a stale set.
	for _, layer := range m.layerContainer.Layers() {
		layer.Draw(canvas, proj, rectPx, zoom)
	}

	snapshot := &PrimaryScreen{
		Image:      canvas.Image(),
		RectPx:     rectPx,
		MapFocusPx: focusPx,
	}
	m.backbuffer.primary.Store(snapshot)

	m.events.backbufferUpdated.emit(snapshot)
	m.events.repaintRequested.emit(struct{}{})
}

// VisiblePrimaryScreen copies the viewport-sized region currently shown out
// of the published backbuffer.
func (m *MapControl) VisiblePrimaryScreen() *image.RGBA {
	snapshot := m.PrimarySnapshot()
	size := m.ViewportSizePx()
	visible := image.NewRGBA(image.Rect(0, 0, int(size.X), int(size.Y)))
	if snapshot == nil {
		return visible
	}

	offset := m.viewportCenterPx().Add(m.MapFocusPointPx().Sub(snapshot.MapFocusPx))
	src := image.Rect(int(offset.X), int(offset.Y), int(offset.X)+int(size.X), int(offset.Y)+int(size.Y))
	draw.Draw(visible, visible.Bounds(), snapshot.Image, src.Min, draw.Src)
	return visible
}

// PrimaryScreenDrawOffsetPx returns the widget-local position at which the
// published backbuffer's origin must be blitted so the viewport shows the
// right region despite focus drift since capture.
func (m *MapControl) PrimaryScreenDrawOffsetPx() geo.PointPx {
	snapshot := m.PrimarySnapshot()
	if snapshot == nil {
		return geo.PointPx{}
	}
	offset := m.viewportCenterPx().Add(m.MapFocusPointPx().Sub(snapshot.MapFocusPx))
	return geo.PointPx{X: -offset.X, Y: -offset.Y}
}

// buildScaledScreen paints the current primary screen into the scaled
// preview buffer, x2 on zoom in and x0.5 on zoom out. Purely cosmetic: it
// approximates the next zoom level while the authoritative rebuild runs.
func (m *MapControl) buildScaledScreen(factor float64) {
	m.stateMu.RLock()
	enabled := m.scaledEnabled
	size := m.viewportSizePx
	bg := m.backgroundColour
	m.stateMu.RUnlock()
	if !enabled {
		return
	}

	canvas := render.NewCanvas(int(size.X)*2, int(size.Y)*2)
	canvas.Clear(bg)

	if factor >= 1 {
		// The visible viewport blown up to fill the whole 2x buffer.
		canvas.DrawImageScaled(m.VisiblePrimaryScreen(), geo.RectPx{
			BottomRight: geo.PointPx{X: size.X * 2, Y: size.Y * 2},
		})
	} else if snapshot := m.PrimarySnapshot(); snapshot != nil {
		// The whole primary screen shrunk to half, centred.
		canvas.DrawImageScaled(snapshot.Image, geo.RectPx{
			TopLeft:     geo.PointPx{X: size.X / 2, Y: size.Y / 2},
			BottomRight: geo.PointPx{X: size.X * 1.5, Y: size.Y * 1.5},
		})
	}

	m.backbuffer.scaledMu.Lock()
	m.backbuffer.scaled = canvas.Image()
	m.backbuffer.scaledMu.Unlock()
}

// ScaledScreen returns the scaled preview buffer and its wheel offset, if
// one is active.
func (m *MapControl) ScaledScreen() (*image.RGBA, geo.PointPx, bool) {
	m.backbuffer.scaledMu.Lock()
	defer m.backbuffer.scaledMu.Unlock()
	if m.backbuffer.scaled == nil {
		return nil, geo.PointPx{}, false
	}
	return m.backbuffer.scaled, m.backbuffer.scaledOffset, true
}

// ScaledScreenDrawOffsetPx returns the widget-local blit position for the
// scaled preview buffer.
func (m *MapControl) ScaledScreenDrawOffsetPx() geo.PointPx {
	snapshot := m.PrimarySnapshot()
	m.backbuffer.scaledMu.Lock()
	wheelOffset := m.backbuffer.scaledOffset
	m.backbuffer.scaledMu.Unlock()
	if snapshot == nil {
		return geo.PointPx{}
	}
	offset := m.viewportCenterPx().Add(m.MapFocusPointPx().Sub(snapshot.MapFocusPx)).Sub(wheelOffset)
	return geo.PointPx{X: -offset.X, Y: -offset.Y}
}

func (m *MapControl) setScaledScreenOffset(offsetPx geo.PointPx) {
	m.backbuffer.scaledMu.Lock()
	m.backbuffer.scaledOffset = offsetPx
	m.backbuffer.scaledMu.Unlock()
}

func (m *MapControl) clearScaledScreen() {
	m.backbuffer.scaledMu.Lock()
	m.backbuffer.scaled = nil
	m.backbuffer.scaledOffset = geo.PointPx{}
	m.backbuffer.scaledMu.Unlock()
}

// loadingFinished clears the cosmetic preview once the tile provider
// reports all downloads done, then requests a (coverage-checked) redraw.
func (m *MapControl) loadingFinished() {
	m.clearScaledScreen()
	m.events.loadingFinished.emit(struct{}{})
	m.RedrawPrimaryScreen(false)
}
