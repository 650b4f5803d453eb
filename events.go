package mapcontrol

import (
	"sync"

	"mapcontrol/geo"
	"mapcontrol/layers"
)

// handlerList is a subscribe-only callback registry. Delivery is
// synchronous, in registration order, on whichever goroutine emits.
type handlerList[T any] struct {
	mu  sync.Mutex
	fns []func(T)
}

func (h *handlerList[T]) subscribe(fn func(T)) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *handlerList[T]) emit(value T) {
	h.mu.Lock()
	fns := append([]func(T){}, h.fns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(value)
	}
}

// GeometryClick describes a geometry hit by a mouse press.
type GeometryClick struct {
	LayerName string
	Geometry  layers.Geometry
}

// MousePhase distinguishes the press/move/release coordinate events.
type MousePhase int

const (
	MousePressed MousePhase = iota
	MouseMoved
	MouseReleased
)

// MouseCoordinate reports the geographic coordinate under the cursor for a
// mouse event.
type MouseCoordinate struct {
	Phase      MousePhase
	Button     MouseButton
	WidgetPx   geo.PointPx
	Coordinate geo.Coordinate
}

// OverlayReposition tells geometry-backed overlay widgets where the map
// viewport now sits, so hosts can move embedded widgets along with the map.
type OverlayReposition struct {
	TopLeftPx geo.PointPx
	Zoom      int
}

type events struct {
	zoomChanged        handlerList[int]
	focusChanged       handlerList[geo.Coordinate]
	backbufferUpdated  handlerList[*PrimaryScreen]
	repaintRequested   handlerList[struct{}]
	loadingFinished    handlerList[struct{}]
	geometryClicked    handlerList[GeometryClick]
	geometriesSelected handlerList[map[string][]layers.Geometry]
	mouseCoordinate    handlerList[MouseCoordinate]
	mouseDragged       handlerList[geo.RectCoord]
	overlayReposition  handlerList[OverlayReposition]
}

// OnZoomChanged subscribes to zoom level changes (one event per discrete
// zoom step).
func (m *MapControl) OnZoomChanged(fn func(zoom int)) { m.events.zoomChanged.subscribe(fn) }

// OnMapFocusChanged subscribes to map focus point changes.
func (m *MapControl) OnMapFocusChanged(fn func(geo.Coordinate)) {
	m.events.focusChanged.subscribe(fn)
}

// OnBackbufferUpdated subscribes to completed backbuffer rebuilds. The
// snapshot passed is fully formed and immutable.
func (m *MapControl) OnBackbufferUpdated(fn func(*PrimaryScreen)) {
	m.events.backbufferUpdated.subscribe(fn)
}

// OnRepaintRequested subscribes to repaint requests; the hosting widget
// should invalidate its window.
func (m *MapControl) OnRepaintRequested(fn func()) {
	m.events.repaintRequested.subscribe(func(struct{}) { fn() })
}

// OnLoadingFinished subscribes to completion of all outstanding tile loads.
func (m *MapControl) OnLoadingFinished(fn func()) {
	m.events.loadingFinished.subscribe(func(struct{}) { fn() })
}

// OnGeometryClicked subscribes to geometry hits under mouse presses.
func (m *MapControl) OnGeometryClicked(fn func(GeometryClick)) {
	m.events.geometryClicked.subscribe(fn)
}

// OnGeometriesSelected subscribes to drag-selection results, keyed by layer
// name.
func (m *MapControl) OnGeometriesSelected(fn func(map[string][]layers.Geometry)) {
	m.events.geometriesSelected.subscribe(fn)
}

// OnMouseCoordinate subscribes to the coordinate-under-cursor stream.
func (m *MapControl) OnMouseCoordinate(fn func(MouseCoordinate)) {
	m.events.mouseCoordinate.subscribe(fn)
}

// OnMouseDragged subscribes to the geographic rect swept by a completed
// mouse drag.
func (m *MapControl) OnMouseDragged(fn func(geo.RectCoord)) {
	m.events.mouseDragged.subscribe(fn)
}

// OnOverlayReposition subscribes to viewport placement updates for hosts
// embedding widgets at geometry positions.
func (m *MapControl) OnOverlayReposition(fn func(OverlayReposition)) {
	m.events.overlayReposition.subscribe(fn)
}
