package mapcontrol

import (
	"mapcontrol/geo"
	"mapcontrol/layers"
)

// MouseButton identifies which mouse button an event belongs to.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonRight
)

// MouseButtonMode selects what a mouse button does: pan the map, draw a
// transient shape, pan-and-zoom to the dragged shape, or select geometries
// inside it.
type MouseButtonMode int

const (
	ModeNone MouseButtonMode = iota
	ModePan
	ModeDrawBox
	ModePanBox
	ModeSelectBox
	ModeDrawLine
	ModePanLine
	ModeSelectLine
	ModeDrawEllipse
	ModePanEllipse
	ModeSelectEllipse
)

// selection line probes get a few pixels of slack around the drag line.
const lineFuzzPx = 5.0

// clickFuzzPx is the half-size of the probe rect used for plain click
// hit-testing.
const clickFuzzPx = 3.0

// DragState describes an in-progress mouse drag so the hosting widget can
// draw the rubber band.
type DragState struct {
	Active       bool
	Mode         MouseButtonMode
	OriginCenter bool
	PressedPx    geo.PointPx
	CurrentPx    geo.PointPx
}

// EnableMouseEvents toggles interactive mouse handling.
func (m *MapControl) EnableMouseEvents(enabled bool) {
	m.inputMu.Lock()
	m.mouseEventsEnabled = enabled
	m.inputMu.Unlock()
}

// SetMouseButtonLeft configures the left button mode; originCenter makes
// dragged shapes grow symmetrically around the press point.
func (m *MapControl) SetMouseButtonLeft(mode MouseButtonMode, originCenter bool) {
	m.inputMu.Lock()
	m.mouseLeftMode = mode
	m.mouseLeftCenter = originCenter
	m.inputMu.Unlock()
}

// SetMouseButtonRight configures the right button mode.
func (m *MapControl) SetMouseButtonRight(mode MouseButtonMode, originCenter bool) {
	m.inputMu.Lock()
	m.mouseRightMode = mode
	m.mouseRightCenter = originCenter
	m.inputMu.Unlock()
}

// MouseButtonLeftMode returns the configured left button mode.
func (m *MapControl) MouseButtonLeftMode() MouseButtonMode {
	m.inputMu.Lock()
	defer m.inputMu.Unlock()
	return m.mouseLeftMode
}

// MouseButtonRightMode returns the configured right button mode.
func (m *MapControl) MouseButtonRightMode() MouseButtonMode {
	m.inputMu.Lock()
	defer m.inputMu.Unlock()
	return m.mouseRightMode
}

// Drag returns the current drag state for rubber-band drawing.
func (m *MapControl) Drag() DragState {
	m.inputMu.Lock()
	defer m.inputMu.Unlock()
	state := DragState{
		PressedPx: m.mousePressedPx,
		CurrentPx: m.mouseCurrentPx,
	}
	switch {
	case m.mouseLeftPressed:
		state.Active = true
		state.Mode = m.mouseLeftMode
		state.OriginCenter = m.mouseLeftCenter
	case m.mouseRightPressed:
		state.Active = true
		state.Mode = m.mouseRightMode
		state.OriginCenter = m.mouseRightCenter
	}
	return state
}

// MousePress handles a button press at a widget-local position. Geometry
// hits under the click are reported through the geometry-clicked event
// before any interactive handling.
func (m *MapControl) MousePress(button MouseButton, widgetPx geo.PointPx) {
	m.inputMu.Lock()
	enabled := m.mouseEventsEnabled
	if enabled {
		m.mousePressedPx = widgetPx
		m.mouseCurrentPx = widgetPx
		switch button {
		case ButtonLeft:
			m.mouseLeftPressed = true
		case ButtonRight:
			m.mouseRightPressed = true
		}
	}
	m.inputMu.Unlock()
	if !enabled {
		return
	}

	m.clickGeometries(widgetPx)
	m.events.mouseCoordinate.emit(MouseCoordinate{
		Phase:      MousePressed,
		Button:     button,
		WidgetPx:   widgetPx,
		Coordinate: m.ToCoordinate(widgetPx),
	})
}

// clickGeometries hit-tests all visible layers with a small rect probe
// around the press position.
func (m *MapControl) clickGeometries(widgetPx geo.PointPx) {
	proj := m.Projection()
	zoom := m.CurrentZoom()
	clickPx := m.ToPointPx(widgetPx)
	probe := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: clickPx.X - clickFuzzPx, Y: clickPx.Y - clickFuzzPx},
		BottomRight: geo.PointPx{X: clickPx.X + clickFuzzPx, Y: clickPx.Y + clickFuzzPx},
	}}
	probeCoord := geo.RectCoord{
		TopLeft:     proj.ToCoordinatePoint(probe.Rect.TopLeft, zoom),
		BottomRight: proj.ToCoordinatePoint(probe.Rect.BottomRight, zoom),
	}

	for _, layer := range m.layerContainer.Layers() {
		if !layer.IsVisible(zoom) {
			continue
		}
		for _, g := range layer.Geometries(proj, probeCoord, zoom) {
			if g.Touches(probe, proj, zoom) {
				m.events.geometryClicked.emit(GeometryClick{LayerName: layer.Name(), Geometry: g})
			}
		}
	}
}

// MouseMove handles cursor movement with heldButton still down (ButtonNone
// when hovering).
func (m *MapControl) MouseMove(heldButton MouseButton, widgetPx geo.PointPx) {
	m.inputMu.Lock()
	if !m.mouseEventsEnabled {
		m.inputMu.Unlock()
		return
	}
	m.mouseCurrentPx = widgetPx

	mode := ModeNone
	switch heldButton {
	case ButtonLeft:
		mode = m.mouseLeftMode
	case ButtonRight:
		mode = m.mouseRightMode
	}
	var panDelta geo.PointPx
	pan := mode == ModePan
	if pan {
		panDelta = m.mousePressedPx.Sub(widgetPx)
		m.mousePressedPx = widgetPx
	}
	m.inputMu.Unlock()

	if pan {
		m.ScrollView(panDelta)
	}
	m.events.repaintRequested.emit(struct{}{})
	m.events.mouseCoordinate.emit(MouseCoordinate{
		Phase:      MouseMoved,
		Button:     heldButton,
		WidgetPx:   widgetPx,
		Coordinate: m.ToCoordinate(widgetPx),
	})
}

// MouseRelease completes a drag: pan-shape modes zoom the view to the
// dragged area, select modes hit-test and report the geometries inside it.
func (m *MapControl) MouseRelease(button MouseButton, widgetPx geo.PointPx) {
	m.inputMu.Lock()
	if !m.mouseEventsEnabled {
		m.inputMu.Unlock()
		return
	}
	m.mouseCurrentPx = widgetPx

	mode := ModeNone
	originCenter := false
	switch button {
	case ButtonLeft:
		m.mouseLeftPressed = false
		mode = m.mouseLeftMode
		originCenter = m.mouseLeftCenter
	case ButtonRight:
		m.mouseRightPressed = false
		mode = m.mouseRightMode
		originCenter = m.mouseRightCenter
	}
	pressedPx := m.mousePressedPx
	currentPx := m.mouseCurrentPx
	m.inputMu.Unlock()

	fromPx, toPx := dragSpan(pressedPx, currentPx, originCenter)

	switch mode {
	case ModePanBox, ModePanLine, ModePanEllipse:
		m.SetMapFocusPoints([]geo.Coordinate{
			m.ToCoordinate(fromPx),
			m.ToCoordinate(toPx),
		}, true)
		m.emitDragged(pressedPx, currentPx)

	case ModeSelectBox, ModeSelectLine, ModeSelectEllipse:
		m.selectGeometries(mode, fromPx, toPx)
		m.emitDragged(pressedPx, currentPx)
	}

	m.events.repaintRequested.emit(struct{}{})
	m.events.mouseCoordinate.emit(MouseCoordinate{
		Phase:      MouseReleased,
		Button:     button,
		WidgetPx:   widgetPx,
		Coordinate: m.ToCoordinate(widgetPx),
	})
}

// dragSpan returns the widget-local endpoints of the dragged shape,
// mirrored around the press point when originCenter is set.
func dragSpan(pressedPx, currentPx geo.PointPx, originCenter bool) (geo.PointPx, geo.PointPx) {
	if originCenter {
		diff := pressedPx.Sub(currentPx)
		return pressedPx.Sub(diff), pressedPx.Add(diff)
	}
	return pressedPx, currentPx
}

func (m *MapControl) emitDragged(pressedPx, currentPx geo.PointPx) {
	m.events.mouseDragged.emit(geo.RectCoord{
		TopLeft:     m.ToCoordinate(pressedPx),
		BottomRight: m.ToCoordinate(currentPx),
	})
}

func (m *MapControl) selectGeometries(mode MouseButtonMode, fromWidgetPx, toWidgetPx geo.PointPx) {
	proj := m.Projection()
	zoom := m.CurrentZoom()
	fromPx := m.ToPointPx(fromWidgetPx)
	toPx := m.ToPointPx(toWidgetPx)

	var probe layers.HitArea
	switch mode {
	case ModeSelectLine:
		probe = layers.LineArea{From: fromPx, To: toPx, FuzzPx: lineFuzzPx}
	case ModeSelectEllipse:
		probe = layers.EllipseArea{Rect: geo.RectPx{TopLeft: fromPx, BottomRight: toPx}}
	default:
		probe = layers.RectArea{Rect: geo.RectPx{TopLeft: fromPx, BottomRight: toPx}}
	}

	probeCoord := geo.RectCoord{
		TopLeft:     proj.ToCoordinatePoint(fromPx, zoom),
		BottomRight: proj.ToCoordinatePoint(toPx, zoom),
	}

	selected := make(map[string][]layers.Geometry)
	for _, layer := range m.layerContainer.Layers() {
		if !layer.IsVisible(zoom) {
			continue
		}
		for _, g := range layer.Geometries(proj, probeCoord, zoom) {
			if g.Touches(probe, proj, zoom) {
				selected[layer.Name()] = append(selected[layer.Name()], g)
			}
		}
	}
	m.events.geometriesSelected.emit(selected)
}

// Wheel performs a zoom step keeping the coordinate under the cursor
// fixed. Positive deltaY zooms in. At a zoom bound the event is ignored.
func (m *MapControl) Wheel(widgetPx geo.PointPx, deltaY float64) {
	m.inputMu.Lock()
	enabled := m.mouseEventsEnabled
	m.inputMu.Unlock()
	if !enabled || deltaY == 0 {
		return
	}

	if deltaY > 0 && m.CurrentZoom() >= m.ZoomMaximum() {
		return
	}
	if deltaY < 0 && m.CurrentZoom() <= m.ZoomMinimum() {
		return
	}

	wheelCoord := m.ToCoordinate(widgetPx)
	wheelDelta := m.MapFocusPointPx().Sub(m.ToPointPx(widgetPx))
	m.setScaledScreenOffset(wheelDelta)

	if deltaY > 0 {
		m.ZoomIn()
	} else {
		m.ZoomOut()
	}

	proj := m.Projection()
	zoom := m.CurrentZoom()
	m.SetMapFocusPoint(proj.ToCoordinatePoint(proj.ToPixelPoint(wheelCoord, zoom).Add(wheelDelta), zoom))
}

// Key identifies the keyboard commands the engine handles.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyZoomIn
	KeyZoomOut
)

// KeyPress handles keyboard navigation: arrows scroll, plus/minus zoom.
func (m *MapControl) KeyPress(key Key) {
	switch key {
	case KeyUp:
		m.ScrollViewUp(defaultScrollDeltaPx)
	case KeyDown:
		m.ScrollViewDown(defaultScrollDeltaPx)
	case KeyLeft:
		m.ScrollViewLeft(defaultScrollDeltaPx)
	case KeyRight:
		m.ScrollViewRight(defaultScrollDeltaPx)
	case KeyZoomIn:
		m.ZoomIn()
	case KeyZoomOut:
		m.ZoomOut()
	}
}
