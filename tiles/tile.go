// Package tiles implements the raster tile subsystem: tile math, providers
// that fetch or synthesise tile images, and a manager that loads tiles
// asynchronously and notifies the map engine as images arrive.
package tiles

import (
	"fmt"
	"math"

	"mapcontrol/geo"
)

// Tile identifies a map tile by column, row and zoom level.
type Tile struct {
	X, Y, Zoom int
}

// Key returns a unique string key for the tile.
func (t Tile) Key() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Constrain clamps the tile coordinates into the valid range for its zoom.
func Constrain(t Tile) Tile {
	maxTile := int(math.Exp2(float64(t.Zoom))) - 1
	t.X = max(0, min(t.X, maxTile))
	t.Y = max(0, min(t.Y, maxTile))
	return t
}

// Range enumerates the tiles covering a map-pixel rectangle at a zoom
// level, constrained to the valid tile space.
func Range(rectPx geo.RectPx, tileSizePx, zoom int) []Tile {
	rn := rectPx.Normalized()
	size := float64(tileSizePx)
	x0 := int(math.Floor(rn.TopLeft.X / size))
	y0 := int(math.Floor(rn.TopLeft.Y / size))
	x1 := int(math.Ceil(rn.BottomRight.X / size))
	y1 := int(math.Ceil(rn.BottomRight.Y / size))

	maxTile := int(math.Exp2(float64(zoom))) - 1
	x0 = max(0, x0)
	y0 = max(0, y0)
	x1 = min(x1, maxTile)
	y1 = min(y1, maxTile)

	var visible []Tile
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			visible = append(visible, Tile{X: x, Y: y, Zoom: zoom})
		}
	}
	return visible
}

// TopLeftPx returns the map-pixel position of the tile's top-left corner.
func (t Tile) TopLeftPx(tileSizePx int) geo.PointPx {
	return geo.PointPx{
		X: float64(t.X * tileSizePx),
		Y: float64(t.Y * tileSizePx),
	}
}
