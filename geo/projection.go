package geo

import "math"

// Web mercator is only defined up to arctan(sinh(pi)) latitude.
const (
	MaxLatitude = 85.0511
	MinLatitude = -85.0511
)

// Projection converts between geographic coordinates and map-pixel
// coordinates at a given zoom level. Implementations are pure math and safe
// for concurrent use.
type Projection interface {
	// ToPixelPoint converts a geographic coordinate into map-pixel space.
	ToPixelPoint(coord Coordinate, zoom int) PointPx
	// ToCoordinatePoint converts a map-pixel point back into a geographic
	// coordinate. Inverse of ToPixelPoint up to floating-point rounding.
	ToCoordinatePoint(point PointPx, zoom int) Coordinate
	// TileSizePx returns the configured tile edge length in pixels.
	TileSizePx() int
}

// SphericalMercator is the EPSG:3857 web-mercator projection used by OSM
// style tile servers.
type SphericalMercator struct {
	tileSizePx int
}

// NewSphericalMercator returns a spherical-mercator projection with the
// given tile size (256 for standard OSM tiles).
func NewSphericalMercator(tileSizePx int) *SphericalMercator {
	return &SphericalMercator{tileSizePx: tileSizePx}
}

func (p *SphericalMercator) TileSizePx() int {
	return p.tileSizePx
}

func (p *SphericalMercator) ToPixelPoint(coord Coordinate, zoom int) PointPx {
	lat := math.Max(MinLatitude, math.Min(MaxLatitude, coord.Lat))
	latRad := lat * math.Pi / 180.0
	n := math.Exp2(float64(zoom))
	worldPx := float64(p.tileSizePx) * n
	x := worldPx * (coord.Lon + 180.0) / 360.0
	y := worldPx * (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0
	return PointPx{X: x, Y: y}
}

func (p *SphericalMercator) ToCoordinatePoint(point PointPx, zoom int) Coordinate {
	n := math.Exp2(float64(zoom))
	worldPx := float64(p.tileSizePx) * n
	lon := point.X/worldPx*360.0 - 180.0
	latRad := math.Pi * (1.0 - 2.0*point.Y/worldPx)
	lat := 180.0 / math.Pi * math.Atan(math.Sinh(latRad))
	return Coordinate{Lon: lon, Lat: lat}
}
