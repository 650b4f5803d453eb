package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Pen describes the stroke used for lines and outlines.
type Pen struct {
	Color   color.NRGBA
	WidthPx float64
}

// Brush describes a solid fill.
type Brush struct {
	Color color.NRGBA
}

// DefaultPen is a 1px opaque black stroke.
func DefaultPen() Pen {
	return Pen{Color: color.NRGBA{A: 0xff}, WidthPx: 1}
}

// Ramp is a two-colour gradient evaluated along a polyline, used for track
// style line strings (start fades into end). Blending happens in Lab space
// so mid-tones stay perceptually even.
type Ramp struct {
	Start color.NRGBA
	End   color.NRGBA
}

// At returns the ramp colour at t in [0,1].
func (r Ramp) At(t float64) color.NRGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	start := colorful.Color{R: float64(r.Start.R) / 255, G: float64(r.Start.G) / 255, B: float64(r.Start.B) / 255}
	end := colorful.Color{R: float64(r.End.R) / 255, G: float64(r.End.G) / 255, B: float64(r.End.B) / 255}
	blended := start.BlendLab(end, t).Clamped()
	cr, cg, cb := blended.RGB255()
	alpha := float64(r.Start.A) + (float64(r.End.A)-float64(r.Start.A))*t
	return color.NRGBA{R: cr, G: cg, B: cb, A: uint8(alpha)}
}
