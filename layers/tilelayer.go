package layers

import (
	"mapcontrol/geo"
	"mapcontrol/render"
	"mapcontrol/tiles"
)

// TileLayer paints raster tile imagery from a tile manager. Missing tiles
// are requested asynchronously; the engine redraws as they arrive, so a
// rebuild never waits on the network.
type TileLayer struct {
	name        string
	manager     *tiles.Manager
	zoomMinimum int
	zoomMaximum int
}

// NewTileLayer creates a tile layer drawing from the given manager.
func NewTileLayer(name string, manager *tiles.Manager, zoomMinimum, zoomMaximum int) *TileLayer {
	return &TileLayer{
		name:        name,
		manager:     manager,
		zoomMinimum: zoomMinimum,
		zoomMaximum: zoomMaximum,
	}
}

func (l *TileLayer) Name() string {
	return l.name
}

func (l *TileLayer) IsVisible(zoom int) bool {
	return zoom >= l.zoomMinimum && zoom <= l.zoomMaximum
}

// Geometries returns nil: raster layers have nothing to hit-test.
func (l *TileLayer) Geometries(geo.Projection, geo.RectCoord, int) []Geometry {
	return nil
}

func (l *TileLayer) Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int) {
	if !l.IsVisible(zoom) {
		return
	}
	tileSize := proj.TileSizePx()
	for _, tile := range tiles.Range(rectPx, tileSize, zoom) {
		img, ok := l.manager.TileImage(tile)
		if !ok {
			l.manager.RequestTile(tile)
			continue
		}
		canvas.DrawImage(img, tile.TopLeftPx(tileSize))
	}
}
