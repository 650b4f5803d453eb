package layers

import (
	"sync"

	"mapcontrol/geo"
	"mapcontrol/render"
)

// Layer is one ordered slice of drawable map content. The redraw engine
// walks layers bottom to top during a backbuffer rebuild.
type Layer interface {
	Name() string
	IsVisible(zoom int) bool
	// Draw paints the layer into the canvas, limited to the map-pixel rect
	// being rebuilt.
	Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int)
	// Geometries returns the geometries whose bounds intersect rectCoord.
	// Raster layers return nil.
	Geometries(proj geo.Projection, rectCoord geo.RectCoord, zoom int) []Geometry
}

// GeometryLayer owns a set of vector geometries indexed by stable IDs.
// Geometries are added and removed by ID; draw order is insertion order.
type GeometryLayer struct {
	name        string
	zoomMinimum int
	zoomMaximum int

	mu         sync.RWMutex
	geometries map[GeometryID]Geometry
	order      []GeometryID
	nextID     GeometryID

	positionMu  sync.Mutex
	positionSub map[GeometryID][]func(geo.Coordinate)
}

// NewGeometryLayer creates an empty geometry layer visible in the given
// zoom range.
func NewGeometryLayer(name string, zoomMinimum, zoomMaximum int) *GeometryLayer {
	return &GeometryLayer{
		name:        name,
		zoomMinimum: zoomMinimum,
		zoomMaximum: zoomMaximum,
		geometries:  make(map[GeometryID]Geometry),
		positionSub: make(map[GeometryID][]func(geo.Coordinate)),
	}
}

func (l *GeometryLayer) Name() string {
	return l.name
}

func (l *GeometryLayer) IsVisible(zoom int) bool {
	return zoom >= l.zoomMinimum && zoom <= l.zoomMaximum
}

// AddGeometry adds a geometry and returns its stable ID. Point geometries
// are wired so their position changes reach this layer's subscribers.
func (l *GeometryLayer) AddGeometry(g Geometry) GeometryID {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.geometries[id] = g
	l.order = append(l.order, id)
	l.mu.Unlock()

	if point, ok := g.(*Point); ok {
		point.subscribePosition(func(coord geo.Coordinate) {
			l.notifyPosition(id, coord)
		})
	}
	return id
}

// RemoveGeometry removes the geometry with the given ID. Removing an
// unknown ID is a no-op.
func (l *GeometryLayer) RemoveGeometry(id GeometryID) {
	l.mu.Lock()
	if _, ok := l.geometries[id]; ok {
		delete(l.geometries, id)
		for i, other := range l.order {
			if other == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()

	l.positionMu.Lock()
	delete(l.positionSub, id)
	l.positionMu.Unlock()
}

// Geometry returns the geometry with the given ID, or nil.
func (l *GeometryLayer) Geometry(id GeometryID) Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geometries[id]
}

// GeometryCount returns the number of geometries in the layer.
func (l *GeometryLayer) GeometryCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.geometries)
}

// SubscribePosition registers fn for position changes of the identified
// point geometry and returns an unsubscribe function. The follow-geometry
// feature of the engine is built on this instead of geometry-to-engine
// back-pointers.
func (l *GeometryLayer) SubscribePosition(id GeometryID, fn func(geo.Coordinate)) func() {
	l.positionMu.Lock()
	l.positionSub[id] = append(l.positionSub[id], fn)
	index := len(l.positionSub[id]) - 1
	l.positionMu.Unlock()

	return func() {
		l.positionMu.Lock()
		if subscribers, ok := l.positionSub[id]; ok && index < len(subscribers) {
			subscribers[index] = nil
		}
		l.positionMu.Unlock()
	}
}

func (l *GeometryLayer) notifyPosition(id GeometryID, coord geo.Coordinate) {
	l.positionMu.Lock()
	subscribers := append([]func(geo.Coordinate){}, l.positionSub[id]...)
	l.positionMu.Unlock()
	for _, fn := range subscribers {
		if fn != nil {
			fn(coord)
		}
	}
}

// snapshot returns the geometries in draw order.
func (l *GeometryLayer) snapshot() []Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ordered := make([]Geometry, 0, len(l.order))
	for _, id := range l.order {
		if g, ok := l.geometries[id]; ok {
			ordered = append(ordered, g)
		}
	}
	return ordered
}

func (l *GeometryLayer) Geometries(proj geo.Projection, rectCoord geo.RectCoord, zoom int) []Geometry {
	var matched []Geometry
	for _, g := range l.snapshot() {
		if rectCoord.Intersects(g.BoundingBox(proj, zoom)) {
			matched = append(matched, g)
		}
	}
	return matched
}

func (l *GeometryLayer) Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int) {
	if !l.IsVisible(zoom) {
		return
	}
	for _, g := range l.snapshot() {
		g.Draw(canvas, proj, rectPx, zoom)
	}
}
