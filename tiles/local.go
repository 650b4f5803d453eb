package tiles

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LocalProvider synthesises placeholder tiles showing the tile address.
// Useful offline and as the fallback half of a CombinedProvider.
type LocalProvider struct {
	tileSizePx int
}

// NewLocalProvider creates a placeholder provider producing tiles of the
// given edge length.
func NewLocalProvider(tileSizePx int) *LocalProvider {
	return &LocalProvider{tileSizePx: tileSizePx}
}

func (p *LocalProvider) GetTile(_ context.Context, tile Tile) (image.Image, error) {
	size := p.tileSizePx
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	bg := color.RGBA{200, 220, 255, 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	border := color.RGBA{100, 100, 100, 255}
	edges := []image.Rectangle{
		image.Rect(0, 0, size, 1),
		image.Rect(0, size-1, size, size),
		image.Rect(0, 0, 1, size),
		image.Rect(size-1, 0, size, size),
	}
	for _, rect := range edges {
		draw.Draw(img, rect, &image.Uniform{border}, image.Point{}, draw.Src)
	}

	drawTileLabel(img, tile, size)
	return img, nil
}

func drawTileLabel(img *image.RGBA, tile Tile, size int) {
	text := fmt.Sprintf("%d/%d/%d", tile.Zoom, tile.X, tile.Y)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	textWidth := d.MeasureString(text).Round()
	textHeight := face.Metrics().Height.Round()

	d.Dot = fixed.Point26_6{
		X: fixed.I((size - textWidth) / 2),
		Y: fixed.I(size/2 + textHeight/2),
	}
	d.DrawString(text)
}
