package render_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"mapcontrol/geo"
	"mapcontrol/render"
)

func TestCanvasClear(t *testing.T) {
	t.Parallel()

	c := render.NewCanvas(8, 8)
	c.Clear(color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	got := c.Image().RGBAAt(4, 4)
	require.Equal(t, uint8(10), got.R)
	require.Equal(t, uint8(20), got.G)
	require.Equal(t, uint8(30), got.B)
}

func TestCanvasTranslation(t *testing.T) {
	t.Parallel()

	// With the origin at map pixel (1000, 2000), a line drawn at map
	// coordinates lands at buffer-local coordinates.
	c := render.NewCanvas(20, 20)
	c.SetTranslation(geo.PointPx{X: 1000, Y: 2000})

	pen := render.Pen{Color: color.NRGBA{R: 255, A: 255}, WidthPx: 3}
	c.DrawLine(geo.PointPx{X: 1005, Y: 2010}, geo.PointPx{X: 1015, Y: 2010}, pen)

	require.NotZero(t, c.Image().RGBAAt(10, 10).R)
	require.Zero(t, c.Image().RGBAAt(10, 2).R)
}

func TestCanvasClipDiscardsOutside(t *testing.T) {
	t.Parallel()

	c := render.NewCanvas(30, 30)
	c.SetClip(geo.RectPx{TopLeft: geo.PointPx{X: 0, Y: 0}, BottomRight: geo.PointPx{X: 10, Y: 30}})

	pen := render.Pen{Color: color.NRGBA{G: 255, A: 255}, WidthPx: 4}
	c.DrawLine(geo.PointPx{X: 0, Y: 15}, geo.PointPx{X: 30, Y: 15}, pen)

	require.NotZero(t, c.Image().RGBAAt(5, 15).G, "inside clip")
	require.Zero(t, c.Image().RGBAAt(20, 15).G, "outside clip")

	c.ClearClip()
	c.DrawLine(geo.PointPx{X: 0, Y: 25}, geo.PointPx{X: 30, Y: 25}, pen)
	require.NotZero(t, c.Image().RGBAAt(20, 25).G, "after clip reset")
}

func TestCanvasDrawEllipse(t *testing.T) {
	t.Parallel()

	c := render.NewCanvas(40, 40)
	pen := render.Pen{Color: color.NRGBA{B: 255, A: 255}, WidthPx: 2}
	fill := &render.Brush{Color: color.NRGBA{R: 255, A: 255}}
	c.DrawEllipse(geo.PointPx{X: 20, Y: 20}, 10, 10, pen, fill)

	require.NotZero(t, c.Image().RGBAAt(20, 20).R, "fill at centre")
	require.NotZero(t, c.Image().RGBAAt(30, 20).B, "outline on the rim")
	require.Zero(t, c.Image().RGBAAt(38, 20).B, "outside the ellipse")
}

func TestCanvasDrawRect(t *testing.T) {
	t.Parallel()

	c := render.NewCanvas(20, 20)
	pen := render.Pen{Color: color.NRGBA{R: 255, A: 255}, WidthPx: 2}
	c.DrawRect(geo.RectPx{TopLeft: geo.PointPx{X: 5, Y: 5}, BottomRight: geo.PointPx{X: 15, Y: 15}}, pen)

	require.NotZero(t, c.Image().RGBAAt(10, 5).R, "top edge")
	require.NotZero(t, c.Image().RGBAAt(5, 10).R, "left edge")
	require.Zero(t, c.Image().RGBAAt(10, 10).R, "interior stays empty")
}

func TestCanvasDrawImage(t *testing.T) {
	t.Parallel()

	tile := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			tile.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	c := render.NewCanvas(10, 10)
	c.SetTranslation(geo.PointPx{X: 100, Y: 100})
	c.DrawImage(tile, geo.PointPx{X: 103, Y: 103})

	require.NotZero(t, c.Image().RGBAAt(4, 4).R)
	require.Zero(t, c.Image().RGBAAt(1, 1).R)
}

func TestRampEndpoints(t *testing.T) {
	t.Parallel()

	ramp := render.Ramp{
		Start: color.NRGBA{R: 0, G: 200, B: 0, A: 255},
		End:   color.NRGBA{R: 200, G: 0, B: 0, A: 55},
	}

	// Lab blending round-trips through Lab space, allow one count of
	// rounding per channel.
	start := ramp.At(0)
	require.InDelta(t, ramp.Start.R, start.R, 1)
	require.InDelta(t, ramp.Start.G, start.G, 1)
	require.InDelta(t, ramp.Start.A, start.A, 0)

	end := ramp.At(1)
	require.InDelta(t, ramp.End.R, end.R, 1)
	require.InDelta(t, ramp.End.G, end.G, 1)
	require.InDelta(t, ramp.End.A, end.A, 0)

	mid := ramp.At(0.5)
	require.NotZero(t, mid.R)
	require.NotZero(t, mid.G)
	require.Equal(t, uint8(155), mid.A)

	// Out-of-range t clamps.
	require.Equal(t, ramp.At(0), ramp.At(-3))
	require.Equal(t, ramp.At(1), ramp.At(7))
}
