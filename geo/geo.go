// Package geo provides the coordinate types and projection math used by the
// map engine: geographic coordinates, map-pixel points at a zoom level, and
// rectangles over both spaces.
package geo

import "math"

// Coordinate is a geographical point in the projection's units
// (longitude/latitude degrees for spherical mercator).
type Coordinate struct {
	Lon, Lat float64
}

// PointPx is a point in map-pixel space at a specific zoom level. Values are
// not comparable across zoom levels without reprojection.
type PointPx struct {
	X, Y float64
}

func (p PointPx) Add(o PointPx) PointPx { return PointPx{p.X + o.X, p.Y + o.Y} }

func (p PointPx) Sub(o PointPx) PointPx { return PointPx{p.X - o.X, p.Y - o.Y} }

func (p PointPx) Div(d float64) PointPx { return PointPx{p.X / d, p.Y / d} }

// RectPx is a rectangle in map-pixel space, defined by two corner points.
type RectPx struct {
	TopLeft     PointPx
	BottomRight PointPx
}

func (r RectPx) Width() float64 { return r.BottomRight.X - r.TopLeft.X }

func (r RectPx) Height() float64 { return r.BottomRight.Y - r.TopLeft.Y }

// Contains reports whether r fully contains o. Both rectangles are
// normalised before comparison, so corner order does not matter.
func (r RectPx) Contains(o RectPx) bool {
	rn, on := r.Normalized(), o.Normalized()
	return on.TopLeft.X >= rn.TopLeft.X && on.TopLeft.Y >= rn.TopLeft.Y &&
		on.BottomRight.X <= rn.BottomRight.X && on.BottomRight.Y <= rn.BottomRight.Y
}

// ContainsPoint reports whether p lies within the normalised rectangle.
func (r RectPx) ContainsPoint(p PointPx) bool {
	rn := r.Normalized()
	return p.X >= rn.TopLeft.X && p.X <= rn.BottomRight.X &&
		p.Y >= rn.TopLeft.Y && p.Y <= rn.BottomRight.Y
}

// Intersects reports whether the two normalised rectangles overlap.
func (r RectPx) Intersects(o RectPx) bool {
	rn, on := r.Normalized(), o.Normalized()
	return rn.TopLeft.X <= on.BottomRight.X && on.TopLeft.X <= rn.BottomRight.X &&
		rn.TopLeft.Y <= on.BottomRight.Y && on.TopLeft.Y <= rn.BottomRight.Y
}

// Normalized returns the rectangle with TopLeft holding the minimum and
// BottomRight the maximum of each axis.
func (r RectPx) Normalized() RectPx {
	return RectPx{
		TopLeft:     PointPx{math.Min(r.TopLeft.X, r.BottomRight.X), math.Min(r.TopLeft.Y, r.BottomRight.Y)},
		BottomRight: PointPx{math.Max(r.TopLeft.X, r.BottomRight.X), math.Max(r.TopLeft.Y, r.BottomRight.Y)},
	}
}

// RectCoord is a rectangle in geographic space. The corners may arrive in
// any order (screen top-left has the larger latitude in mercator), so all
// queries normalise first.
type RectCoord struct {
	TopLeft     Coordinate
	BottomRight Coordinate
}

// ContainsCoordinate reports whether c lies within the rectangle.
func (r RectCoord) ContainsCoordinate(c Coordinate) bool {
	minLon := math.Min(r.TopLeft.Lon, r.BottomRight.Lon)
	maxLon := math.Max(r.TopLeft.Lon, r.BottomRight.Lon)
	minLat := math.Min(r.TopLeft.Lat, r.BottomRight.Lat)
	maxLat := math.Max(r.TopLeft.Lat, r.BottomRight.Lat)
	return c.Lon >= minLon && c.Lon <= maxLon && c.Lat >= minLat && c.Lat <= maxLat
}

// Intersects reports whether the two geographic rectangles overlap.
func (r RectCoord) Intersects(o RectCoord) bool {
	rMinLon := math.Min(r.TopLeft.Lon, r.BottomRight.Lon)
	rMaxLon := math.Max(r.TopLeft.Lon, r.BottomRight.Lon)
	rMinLat := math.Min(r.TopLeft.Lat, r.BottomRight.Lat)
	rMaxLat := math.Max(r.TopLeft.Lat, r.BottomRight.Lat)
	oMinLon := math.Min(o.TopLeft.Lon, o.BottomRight.Lon)
	oMaxLon := math.Max(o.TopLeft.Lon, o.BottomRight.Lon)
	oMinLat := math.Min(o.TopLeft.Lat, o.BottomRight.Lat)
	oMaxLat := math.Max(o.TopLeft.Lat, o.BottomRight.Lat)
	return rMinLon <= oMaxLon && oMinLon <= rMaxLon &&
		rMinLat <= oMaxLat && oMinLat <= rMaxLat
}

// Contains reports whether r fully contains o.
func (r RectCoord) Contains(o RectCoord) bool {
	return r.ContainsCoordinate(o.TopLeft) && r.ContainsCoordinate(o.BottomRight)
}

// BoundingRectCoord returns the smallest rectangle containing all the given
// coordinates. The slice must not be empty.
func BoundingRectCoord(coords []Coordinate) RectCoord {
	minLon, maxLon := coords[0].Lon, coords[0].Lon
	minLat, maxLat := coords[0].Lat, coords[0].Lat
	for _, c := range coords[1:] {
		minLon = math.Min(minLon, c.Lon)
		maxLon = math.Max(maxLon, c.Lon)
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
	}
	return RectCoord{
		TopLeft:     Coordinate{Lon: minLon, Lat: maxLat},
		BottomRight: Coordinate{Lon: maxLon, Lat: minLat},
	}
}
