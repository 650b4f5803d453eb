package layers

import (
	"sync"

	"mapcontrol/geo"
	"mapcontrol/render"
)

// LineString is an open polyline geometry through a sequence of point
// geometries. Hit-testing reports the constituent points inside the probe
// area, so a drag-select over a track yields the touched vertices.
type LineString struct {
	zoomRange

	mu            sync.RWMutex
	points        []*Point
	pen           render.Pen
	ramp          *render.Ramp
	touchedPoints []*Point
}

// NewLineString creates a polyline through the given points.
func NewLineString(points []*Point, pen render.Pen, zoomMinimum, zoomMaximum int) *LineString {
	return &LineString{
		zoomRange: zoomRange{zoomMinimum: zoomMinimum, zoomMaximum: zoomMaximum},
		points:    points,
		pen:       pen,
	}
}

func (l *LineString) Kind() Kind {
	return KindLineString
}

// Points returns a copy of the point sequence.
func (l *LineString) Points() []*Point {
	l.mu.RLock()
	defer l.mu.RUnlock()
	points := make([]*Point, len(l.points))
	copy(points, l.points)
	return points
}

// SetPoints replaces the point sequence.
func (l *LineString) SetPoints(points []*Point) {
	l.mu.Lock()
	l.points = points
	l.mu.Unlock()
}

// AddPoint appends a point to the line.
func (l *LineString) AddPoint(point *Point) {
	l.mu.Lock()
	l.points = append(l.points, point)
	l.mu.Unlock()
}

// SetRamp enables per-segment colour blending from start to end of the line.
func (l *LineString) SetRamp(ramp render.Ramp) {
	l.mu.Lock()
	l.ramp = &ramp
	l.mu.Unlock()
}

// TouchedPoints returns the points matched by the most recent Touches call.
func (l *LineString) TouchedPoints() []*Point {
	l.mu.RLock()
	defer l.mu.RUnlock()
	touched := make([]*Point, len(l.touchedPoints))
	copy(touched, l.touchedPoints)
	return touched
}

func (l *LineString) BoundingBox(proj geo.Projection, zoom int) geo.RectCoord {
	coords := make([]geo.Coordinate, 0, len(l.Points()))
	for _, point := range l.Points() {
		coords = append(coords, point.Coordinate())
	}
	if len(coords) == 0 {
		return geo.RectCoord{}
	}
	return geo.BoundingRectCoord(coords)
}

func (l *LineString) Touches(area HitArea, proj geo.Projection, zoom int) bool {
	if !l.IsVisible(zoom) {
		return false
	}

	var touched []*Point
	for _, point := range l.Points() {
		if point.Touches(area, proj, zoom) {
			touched = append(touched, point)
		}
	}

	l.mu.Lock()
	l.touchedPoints = touched
	l.mu.Unlock()
	return len(touched) > 0
}

func (l *LineString) Draw(canvas *render.Canvas, proj geo.Projection, rectPx geo.RectPx, zoom int) {
	if !l.IsVisible(zoom) {
		return
	}
	l.mu.RLock()
	points := make([]*Point, len(l.points))
	copy(points, l.points)
	pen := l.pen
	ramp := l.ramp
	l.mu.RUnlock()

	if len(points) < 2 {
		return
	}

	polyline := make([]geo.PointPx, len(points))
	for i, point := range points {
		polyline[i] = proj.ToPixelPoint(point.Coordinate(), zoom)
	}
	if !rectPx.Intersects(boundsOf(polyline)) {
		return
	}

	if ramp != nil {
		for i := 0; i < len(polyline)-1; i++ {
			t := float64(i) / float64(len(polyline)-1)
			segmentPen := pen
			segmentPen.Color = ramp.At(t)
			canvas.DrawLine(polyline[i], polyline[i+1], segmentPen)
		}
	} else {
		canvas.DrawPolyline(polyline, pen)
	}

	for _, point := range points {
		point.Draw(canvas, proj, rectPx, zoom)
	}
}

func boundsOf(points []geo.PointPx) geo.RectPx {
	bounds := geo.RectPx{TopLeft: points[0], BottomRight: points[0]}
	for _, p := range points[1:] {
		if p.X < bounds.TopLeft.X {
			bounds.TopLeft.X = p.X
		}
		if p.Y < bounds.TopLeft.Y {
			bounds.TopLeft.Y = p.Y
		}
		if p.X > bounds.BottomRight.X {
			bounds.BottomRight.X = p.X
		}
		if p.Y > bounds.BottomRight.Y {
			bounds.BottomRight.Y = p.Y
		}
	}
	return bounds
}
