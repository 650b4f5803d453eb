// Package render provides a pixel-space drawing surface for the map engine.
// Layers paint themselves into a Canvas in map-pixel coordinates; the canvas
// applies the backbuffer translation and clipping and rasterises strokes
// with an anti-aliased scanline rasteriser.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"mapcontrol/geo"
)

// Canvas is a drawing surface backed by an RGBA image. A translation maps
// map-pixel coordinates into buffer-local coordinates, so geometry draws in
// world space without knowing where the backbuffer sits.
type Canvas struct {
	img    *image.RGBA
	origin geo.PointPx
	clip   image.Rectangle
}

// NewCanvas creates a canvas of the given pixel size.
func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Canvas{img: img, clip: img.Bounds()}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() image.Point {
	return c.img.Bounds().Size()
}

// SetTranslation sets the map-pixel coordinate that maps to the canvas
// top-left corner.
func (c *Canvas) SetTranslation(topLeft geo.PointPx) {
	c.origin = topLeft
}

// SetClip restricts subsequent drawing to the given map-pixel rectangle.
func (c *Canvas) SetClip(rectPx geo.RectPx) {
	rn := rectPx.Normalized()
	local := image.Rect(
		int(math.Floor(rn.TopLeft.X-c.origin.X)),
		int(math.Floor(rn.TopLeft.Y-c.origin.Y)),
		int(math.Ceil(rn.BottomRight.X-c.origin.X)),
		int(math.Ceil(rn.BottomRight.Y-c.origin.Y)),
	)
	c.clip = local.Intersect(c.img.Bounds())
}

// ClearClip removes any clip rectangle.
func (c *Canvas) ClearClip() {
	c.clip = c.img.Bounds()
}

// Clear fills the whole canvas with the given colour, ignoring the clip.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{col}, image.Point{}, draw.Src)
}

func (c *Canvas) local(p geo.PointPx) (float64, float64) {
	return p.X - c.origin.X, p.Y - c.origin.Y
}

// dst returns the clipped drawing target. SubImage keeps the coordinate
// space, so rasterised output outside the clip is discarded.
func (c *Canvas) dst() *image.RGBA {
	return c.img.SubImage(c.clip).(*image.RGBA)
}

// DrawPolyline strokes the open polyline through the given map-pixel points.
func (c *Canvas) DrawPolyline(points []geo.PointPx, pen Pen) {
	if len(points) < 2 || pen.WidthPx <= 0 {
		return
	}
	z := c.newRasterizer()
	for i := 0; i < len(points)-1; i++ {
		x0, y0 := c.local(points[i])
		x1, y1 := c.local(points[i+1])
		strokeSegment(z, x0, y0, x1, y1, pen.WidthPx)
	}
	c.rasterize(z, pen.Color)
}

// DrawLine strokes a single segment between two map-pixel points.
func (c *Canvas) DrawLine(from, to geo.PointPx, pen Pen) {
	c.DrawPolyline([]geo.PointPx{from, to}, pen)
}

// DrawEllipse strokes (and optionally fills) an axis-aligned ellipse centred
// on the given map-pixel point.
func (c *Canvas) DrawEllipse(center geo.PointPx, radiusX, radiusY float64, pen Pen, fill *Brush) {
	if radiusX <= 0 || radiusY <= 0 {
		return
	}
	cx, cy := c.local(center)
	if fill != nil {
		z := c.newRasterizer()
		ellipsePath(z, cx, cy, radiusX, radiusY, false)
		c.rasterize(z, fill.Color)
	}
	if pen.WidthPx > 0 {
		half := pen.WidthPx / 2
		z := c.newRasterizer()
		ellipsePath(z, cx, cy, radiusX+half, radiusY+half, false)
		inX, inY := radiusX-half, radiusY-half
		if inX > 0 && inY > 0 {
			// Reverse winding subtracts the inner disc, leaving a ring.
			ellipsePath(z, cx, cy, inX, inY, true)
		}
		c.rasterize(z, pen.Color)
	}
}

// DrawRect strokes an axis-aligned rectangle given in map-pixel space.
func (c *Canvas) DrawRect(rectPx geo.RectPx, pen Pen) {
	rn := rectPx.Normalized()
	tl := rn.TopLeft
	br := rn.BottomRight
	c.DrawPolyline([]geo.PointPx{
		tl,
		{X: br.X, Y: tl.Y},
		br,
		{X: tl.X, Y: br.Y},
		tl,
	}, pen)
}

// DrawImage blits an image with its top-left corner at the given map-pixel
// point.
func (c *Canvas) DrawImage(src image.Image, topLeft geo.PointPx) {
	x, y := c.local(topLeft)
	b := src.Bounds()
	target := image.Rect(int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x))+b.Dx(), int(math.Round(y))+b.Dy())
	draw.Draw(c.dst(), target, src, b.Min, draw.Over)
}

// DrawImageScaled scales src to cover the destination map-pixel rectangle.
// Used for the cosmetic zoom-transition preview.
func (c *Canvas) DrawImageScaled(src image.Image, dstRect geo.RectPx) {
	rn := dstRect.Normalized()
	x0, y0 := c.local(rn.TopLeft)
	x1, y1 := c.local(rn.BottomRight)
	target := image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
	xdraw.ApproxBiLinear.Scale(c.dst(), target, src, src.Bounds(), xdraw.Over, nil)
}

// DrawLabel draws a small text label with its baseline-left at the given
// map-pixel point.
func (c *Canvas) DrawLabel(at geo.PointPx, text string, col color.Color) {
	x, y := c.local(at)
	d := &font.Drawer{
		Dst:  c.dst(),
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(text)
}

func (c *Canvas) newRasterizer() *vector.Rasterizer {
	b := c.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return z
}

func (c *Canvas) rasterize(z *vector.Rasterizer, col color.NRGBA) {
	z.Draw(c.dst(), c.img.Bounds(), image.NewUniform(col), image.Point{})
}

// strokeSegment adds a filled quad for one stroked line segment, with square
// caps extending half a width beyond each end so joints do not show gaps.
func strokeSegment(z *vector.Rasterizer, x0, y0, x1, y1, width float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	half := width / 2
	ux, uy := dx/length*half, dy/length*half
	nx, ny := -uy, ux
	x0, y0 = x0-ux, y0-uy
	x1, y1 = x1+ux, y1+uy
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

const ellipseSegments = 64

func ellipsePath(z *vector.Rasterizer, cx, cy, rx, ry float64, reverse bool) {
	for i := 0; i <= ellipseSegments; i++ {
		t := 2 * math.Pi * float64(i) / ellipseSegments
		if reverse {
			t = -t
		}
		x := cx + rx*math.Cos(t)
		y := cy + ry*math.Sin(t)
		if i == 0 {
			z.MoveTo(float32(x), float32(y))
		} else {
			z.LineTo(float32(x), float32(y))
		}
	}
	z.ClosePath()
}
