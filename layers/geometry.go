// Package layers holds the drawable content of the map: vector geometries
// grouped into named layers, an ordered layer container, and a tile layer
// that paints raster imagery from a tile manager.
package layers

import (
	"math"

	"mapcontrol/geo"
	"mapcontrol/render"
)

// GeometryID identifies a geometry within its owning layer. IDs are stable
// for the lifetime of the layer and are the handle used for follow/position
// subscriptions instead of raw references.
type GeometryID uint64

// Kind enumerates the geometry variants.
type Kind int

const (
	KindPoint Kind = iota
	KindCirclePoint
	KindLineString
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindCirclePoint:
		return "CirclePoint"
	case KindLineString:
		return "LineString"
	default:
		return "Unknown"
	}
}

// Geometry is a drawable vector shape. Implementations draw themselves in
// map-pixel space and answer bounding-box and hit-test queries. Queries
// never fail; a miss is simply false or an empty result.
type Geometry interface {
	Kind() Kind
	// BoundingBox returns the geographic bounds of the geometry at the
	// given zoom level.
	BoundingBox(proj geo.Projection, zoom int) geo.RectCoord
	// IsVisible reports whether the geometry should be shown at the zoom.
	IsVisible(zoom int) bool
	// Touches reports whether the geometry intersects the hit area.
	Touches(area HitArea, proj geo.Projection, zoom int) bool
	// Draw paints the geometry into the canvas, clipped to rectPx.
	Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int)
}

// HitArea is a pixel-space probe shape used for click and drag selection.
type HitArea interface {
	ContainsPoint(p geo.PointPx) bool
}

// RectArea selects everything inside a pixel rectangle.
type RectArea struct {
	Rect geo.RectPx
}

func (a RectArea) ContainsPoint(p geo.PointPx) bool {
	return a.Rect.ContainsPoint(p)
}

// EllipseArea selects everything inside the ellipse inscribed in Rect.
type EllipseArea struct {
	Rect geo.RectPx
}

func (a EllipseArea) ContainsPoint(p geo.PointPx) bool {
	rn := a.Rect.Normalized()
	rx := rn.Width() / 2
	ry := rn.Height() / 2
	if rx == 0 || ry == 0 {
		return false
	}
	cx := rn.TopLeft.X + rx
	cy := rn.TopLeft.Y + ry
	dx := (p.X - cx) / rx
	dy := (p.Y - cy) / ry
	return dx*dx+dy*dy <= 1.0
}

// LineArea selects everything within FuzzPx/2 of the segment From-To,
// matching a stroke of width FuzzPx around the drag line.
type LineArea struct {
	From, To geo.PointPx
	FuzzPx   float64
}

func (a LineArea) ContainsPoint(p geo.PointPx) bool {
	return distanceToSegment(p, a.From, a.To) <= a.FuzzPx/2
}

func distanceToSegment(p, a, b geo.PointPx) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lengthSq := abx*abx + aby*aby
	if lengthSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lengthSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*abx), p.Y-(a.Y+t*aby))
}

// zoomRange is the shared visible-zoom-range behaviour of all geometries.
type zoomRange struct {
	zoomMinimum int
	zoomMaximum int
}

func (z zoomRange) IsVisible(zoom int) bool {
	return zoom >= z.zoomMinimum && zoom <= z.zoomMaximum
}
