package mapcontrol

import (
	"log"
	"time"

	"mapcontrol/geo"
)

// Focus and pan management.

// SetMapFocusPoint moves the focus to the given coordinate and requests a
// redraw (the coverage test decides whether the backbuffer is actually
// rebuilt).
func (m *MapControl) SetMapFocusPoint(coord geo.Coordinate) {
	m.stateMu.Lock()
	m.mapFocusCoord = coord
	m.stateMu.Unlock()

	m.events.focusChanged.emit(coord)
	m.RedrawPrimaryScreen(false)
}

// SetMapFocusPoints focuses on the centroid of the given coordinates. The
// slice must not be empty; that is a caller precondition, not a handled
// case. With autoZoom the zoom is adjusted to the highest level at which
// all points stay visible: zoom out until everything fits, zoom in while it
// still fits, then one corrective zoom out if the last step overshot. The
// step order is load-bearing; do not replace it with a search.
func (m *MapControl) SetMapFocusPoints(coords []geo.Coordinate, autoZoom bool) {
	m.SetMapFocusPoint(centroid(coords))

	if !autoZoom {
		return
	}

	for !m.ViewportContainsAll(coords) && m.CurrentZoom() > m.ZoomMinimum() {
		m.ZoomOut()
	}
	for m.ViewportContainsAll(coords) && m.CurrentZoom() < m.ZoomMaximum() {
		m.ZoomIn()
	}
	if !m.ViewportContainsAll(coords) && m.CurrentZoom() > m.ZoomMinimum() {
		m.ZoomOut()
	}
}

func centroid(coords []geo.Coordinate) geo.Coordinate {
	var sumLon, sumLat float64
	for _, coord := range coords {
		sumLon += coord.Lon
		sumLat += coord.Lat
	}
	n := float64(len(coords))
	return geo.Coordinate{Lon: sumLon / n, Lat: sumLat / n}
}

// SetMapFocusPointAnimated pans to the target coordinate over the given
// number of steps, one scroll per interval. A second animation request
// while one is running is rejected (logged, no error); there is no external
// cancel.
func (m *MapControl) SetMapFocusPointAnimated(coord geo.Coordinate, steps int, interval time.Duration) {
	if !m.animatedMu.TryLock() {
		log.Println("mapcontrol: unable to animate to new map focus, already animating")
		return
	}

	m.animatedTarget = coord
	m.animatedSteps = steps
	m.animatedInterval = interval

	time.AfterFunc(interval, m.animatedTick)
}

// animatedTick applies one fractional pan step towards the animation
// target, splitting the remaining pixel delta evenly over the remaining
// steps, and reschedules itself until done.
func (m *MapControl) animatedTick() {
	if m.animatedSteps <= 0 {
		m.animatedMu.Unlock()
		return
	}

	startPx := m.MapFocusPointPx()
	destPx := m.Projection().ToPixelPoint(m.animatedTarget, m.CurrentZoom())
	delta := destPx.Sub(startPx).Div(float64(m.animatedSteps))

	m.ScrollView(delta)
	m.animatedSteps--
	time.AfterFunc(m.animatedInterval, m.animatedTick)
}

// ScrollView pans the focus by a map-pixel delta. The move is dropped when
// a limited viewport rect is configured and the new focus would leave it.
func (m *MapControl) ScrollView(deltaPx geo.PointPx) {
	newFocus := m.Projection().ToCoordinatePoint(m.MapFocusPointPx().Add(deltaPx), m.CurrentZoom())

	m.stateMu.RLock()
	limit := m.limitedViewportRect
	m.stateMu.RUnlock()

	if limit == nil || limit.ContainsCoordinate(newFocus) {
		m.SetMapFocusPoint(newFocus)
	}
}

const defaultScrollDeltaPx = 50.0

// ScrollViewLeft pans the view left by deltaPx pixels.
func (m *MapControl) ScrollViewLeft(deltaPx float64) {
	m.ScrollView(geo.PointPx{X: -deltaPx})
}

// ScrollViewRight pans the view right by deltaPx pixels.
func (m *MapControl) ScrollViewRight(deltaPx float64) {
	m.ScrollView(geo.PointPx{X: deltaPx})
}

// ScrollViewUp pans the view up by deltaPx pixels.
func (m *MapControl) ScrollViewUp(deltaPx float64) {
	m.ScrollView(geo.PointPx{Y: -deltaPx})
}

// ScrollViewDown pans the view down by deltaPx pixels.
func (m *MapControl) ScrollViewDown(deltaPx float64) {
	m.ScrollView(geo.PointPx{Y: deltaPx})
}
