package layers

import (
	"image"
	"sync"

	"mapcontrol/geo"
	"mapcontrol/render"
)

// Alignment positions a point's pixmap relative to its coordinate.
type Alignment int

const (
	AlignMiddle Alignment = iota
	AlignTopLeft
	AlignTopRight
	AlignBottomLeft
	AlignBottomRight
)

// Point is a point geometry drawn either as a pixmap or as a circle of a
// fixed pixel radius. Position changes are pushed to subscribers so the
// engine can follow a moving point without holding a back-reference.
type Point struct {
	zoomRange

	mu         sync.RWMutex
	coord      geo.Coordinate
	pixmap     image.Image
	radiusPx   float64
	alignment  Alignment
	pen        render.Pen
	brush      *render.Brush
	label      string
	onPosition []func(geo.Coordinate)
}

// NewPoint creates a pixmap-backed point geometry.
func NewPoint(coord geo.Coordinate, pixmap image.Image, alignment Alignment, zoomMinimum, zoomMaximum int) *Point {
	return &Point{
		zoomRange: zoomRange{zoomMinimum: zoomMinimum, zoomMaximum: zoomMaximum},
		coord:     coord,
		pixmap:    pixmap,
		alignment: alignment,
	}
}

// NewCirclePoint creates a point geometry drawn as a circle of radiusPx.
func NewCirclePoint(coord geo.Coordinate, radiusPx float64, pen render.Pen, brush *render.Brush, zoomMinimum, zoomMaximum int) *Point {
	return &Point{
		zoomRange: zoomRange{zoomMinimum: zoomMinimum, zoomMaximum: zoomMaximum},
		coord:     coord,
		radiusPx:  radiusPx,
		alignment: AlignMiddle,
		pen:       pen,
		brush:     brush,
	}
}

func (p *Point) Kind() Kind {
	if p.pixmap == nil {
		return KindCirclePoint
	}
	return KindPoint
}

// Coordinate returns the current position.
func (p *Point) Coordinate() geo.Coordinate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.coord
}

// SetCoordinate moves the point and notifies position subscribers.
func (p *Point) SetCoordinate(coord geo.Coordinate) {
	p.mu.Lock()
	p.coord = coord
	subscribers := make([]func(geo.Coordinate), len(p.onPosition))
	copy(subscribers, p.onPosition)
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(coord)
	}
}

// SetLabel attaches a small text label drawn beside the point.
func (p *Point) SetLabel(label string) {
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()
}

func (p *Point) subscribePosition(fn func(geo.Coordinate)) {
	p.mu.Lock()
	p.onPosition = append(p.onPosition, fn)
	p.mu.Unlock()
}

func (p *Point) BoundingBox(proj geo.Projection, zoom int) geo.RectCoord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	px := proj.ToPixelPoint(p.coord, zoom)
	halfW, halfH := p.halfSizePx()
	topLeft := proj.ToCoordinatePoint(geo.PointPx{X: px.X - halfW, Y: px.Y - halfH}, zoom)
	bottomRight := proj.ToCoordinatePoint(geo.PointPx{X: px.X + halfW, Y: px.Y + halfH}, zoom)
	return geo.RectCoord{TopLeft: topLeft, BottomRight: bottomRight}
}

func (p *Point) halfSizePx() (float64, float64) {
	if p.pixmap != nil {
		b := p.pixmap.Bounds()
		return float64(b.Dx()) / 2, float64(b.Dy()) / 2
	}
	return p.radiusPx, p.radiusPx
}

func (p *Point) Touches(area HitArea, proj geo.Projection, zoom int) bool {
	if !p.IsVisible(zoom) {
		return false
	}
	return area.ContainsPoint(proj.ToPixelPoint(p.Coordinate(), zoom))
}

func (p *Point) Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int) {
	if !p.IsVisible(zoom) {
		return
	}
	p.mu.RLock()
	coord := p.coord
	pixmap := p.pixmap
	radius := p.radiusPx
	alignment := p.alignment
	pen := p.pen
	brush := p.brush
	label := p.label
	p.mu.RUnlock()

	point := proj.ToPixelPoint(coord, zoom)
	halfW, halfH := p.halfSizePx()
	bounds := geo.RectPx{
		TopLeft:     geo.PointPx{X: point.X - halfW, Y: point.Y - halfH},
		BottomRight: geo.PointPx{X: point.X + halfW, Y: point.Y + halfH},
	}
	if !rectPx.Intersects(bounds) {
		return
	}

	if pixmap != nil {
		canvas.DrawImage(pixmap, alignedTopLeft(point, alignment, halfW, halfH))
	} else {
		canvas.DrawEllipse(point, radius, radius, pen, brush)
	}
	if label != "" {
		canvas.DrawLabel(geo.PointPx{X: point.X + halfW + 2, Y: point.Y + 4}, label, pen.Color)
	}
}

func alignedTopLeft(point geo.PointPx, alignment Alignment, halfW, halfH float64) geo.PointPx {
	switch alignment {
	case AlignTopLeft:
		return point
	case AlignTopRight:
		return geo.PointPx{X: point.X - 2*halfW, Y: point.Y}
	case AlignBottomLeft:
		return geo.PointPx{X: point.X, Y: point.Y - 2*halfH}
	case AlignBottomRight:
		return geo.PointPx{X: point.X - 2*halfW, Y: point.Y - 2*halfH}
	default:
		return geo.PointPx{X: point.X - halfW, Y: point.Y - halfH}
	}
}
