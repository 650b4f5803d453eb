// Package mapview adapts the mapcontrol engine to Gio: it feeds pointer and
// keyboard events into the engine and blits the published backbuffer (plus
// the zoom preview and rubber-band overlays) into the frame.
package mapview

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"mapcontrol"
	"mapcontrol/geo"
)

type MapView struct {
	Map *mapcontrol.MapControl

	// Crosshairs draws a small cross at the viewport centre.
	Crosshairs bool

	size         image.Point
	activeButton mapcontrol.MouseButton
	focused      bool
}

// New wires a view to the engine. Repaint requests are forwarded to the
// refresh channel (dropped when one is already pending) so the window can
// invalidate outside of frame events.
func New(m *mapcontrol.MapControl, refresh chan<- struct{}) *MapView {
	mv := &MapView{Map: m, Crosshairs: true}
	m.OnRepaintRequested(func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	})
	return mv
}

var rubberBandColour = color.NRGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff}

func (mv *MapView) Layout(gtx layout.Context) layout.Dimensions {
	tag := mv

	if mv.size != gtx.Constraints.Max {
		mv.size = gtx.Constraints.Max
		mv.Map.SetViewportSize(mv.size)
	}

	mv.processPointer(gtx, tag)
	mv.processKeys(gtx, tag)

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, tag)
	if !mv.focused {
		gtx.Execute(key.FocusCmd{Tag: tag})
		mv.focused = true
	}

	// Zoom preview first, the authoritative buffer on top once rebuilt.
	if scaled, _, ok := mv.Map.ScaledScreen(); ok {
		drawImageAt(gtx, scaled, mv.Map.ScaledScreenDrawOffsetPx())
	}
	if snapshot := mv.Map.PrimarySnapshot(); snapshot != nil {
		drawImageAt(gtx, snapshot.Image, mv.Map.PrimaryScreenDrawOffsetPx())
	}

	if drag := mv.Map.Drag(); drag.Active {
		mv.drawRubberBand(gtx, drag)
	}
	if mv.Crosshairs {
		mv.drawCrosshairs(gtx)
	}

	return layout.Dimensions{Size: mv.size}
}

func (mv *MapView) processPointer(gtx layout.Context, tag event.Tag) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  tag,
			Kinds:   pointer.Scroll | pointer.Drag | pointer.Move | pointer.Press | pointer.Release | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: -10, Max: 10},
		})
		if !ok {
			break
		}
		x, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		pos := pointFromF32(x.Position)

		switch x.Kind {
		case pointer.Press:
			mv.activeButton = buttonFromGio(x.Buttons)
			mv.Map.MousePress(mv.activeButton, pos)
		case pointer.Drag:
			mv.Map.MouseMove(mv.activeButton, pos)
		case pointer.Move:
			mv.Map.MouseMove(mapcontrol.ButtonNone, pos)
		case pointer.Release, pointer.Cancel:
			mv.Map.MouseRelease(mv.activeButton, pos)
			mv.activeButton = mapcontrol.ButtonNone
		case pointer.Scroll:
			// Scrolling up (negative Y in Gio) zooms in.
			mv.Map.Wheel(pos, -float64(x.Scroll.Y))
		}
	}
}

func (mv *MapView) processKeys(gtx layout.Context, tag event.Tag) {
	filters := []event.Filter{
		key.FocusFilter{Target: tag},
		key.Filter{Focus: tag, Name: key.NameUpArrow},
		key.Filter{Focus: tag, Name: key.NameDownArrow},
		key.Filter{Focus: tag, Name: key.NameLeftArrow},
		key.Filter{Focus: tag, Name: key.NameRightArrow},
		key.Filter{Focus: tag, Name: "+"},
		key.Filter{Focus: tag, Name: "-"},
	}
	for {
		ev, ok := gtx.Event(filters...)
		if !ok {
			break
		}
		x, ok := ev.(key.Event)
		if !ok || x.State != key.Press {
			continue
		}
		switch x.Name {
		case key.NameUpArrow:
			mv.Map.KeyPress(mapcontrol.KeyUp)
		case key.NameDownArrow:
			mv.Map.KeyPress(mapcontrol.KeyDown)
		case key.NameLeftArrow:
			mv.Map.KeyPress(mapcontrol.KeyLeft)
		case key.NameRightArrow:
			mv.Map.KeyPress(mapcontrol.KeyRight)
		case "+":
			mv.Map.KeyPress(mapcontrol.KeyZoomIn)
		case "-":
			mv.Map.KeyPress(mapcontrol.KeyZoomOut)
		}
	}
}

func drawImageAt(gtx layout.Context, img image.Image, offsetPx geo.PointPx) {
	transform := op.Offset(image.Point{X: int(offsetPx.X), Y: int(offsetPx.Y)}).Push(gtx.Ops)
	paint.NewImageOp(img).Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	transform.Pop()
}

// drawRubberBand renders the in-progress drag shape on top of the map.
func (mv *MapView) drawRubberBand(gtx layout.Context, drag mapcontrol.DragState) {
	from := drag.PressedPx
	to := drag.CurrentPx
	if drag.OriginCenter {
		diff := from.Sub(to)
		from, to = from.Sub(diff), from.Add(diff)
	}

	switch drag.Mode {
	case mapcontrol.ModeDrawBox, mapcontrol.ModePanBox, mapcontrol.ModeSelectBox:
		strokeRect(gtx, from, to)
	case mapcontrol.ModeDrawLine, mapcontrol.ModePanLine, mapcontrol.ModeSelectLine:
		strokeLine(gtx, drag.PressedPx, drag.CurrentPx)
	case mapcontrol.ModeDrawEllipse, mapcontrol.ModePanEllipse, mapcontrol.ModeSelectEllipse:
		strokeEllipse(gtx, from, to)
	}
}

func (mv *MapView) drawCrosshairs(gtx layout.Context) {
	cx := float64(mv.size.X) / 2
	cy := float64(mv.size.Y) / 2
	strokeLine(gtx, geo.PointPx{X: cx - 8, Y: cy}, geo.PointPx{X: cx + 8, Y: cy})
	strokeLine(gtx, geo.PointPx{X: cx, Y: cy - 8}, geo.PointPx{X: cx, Y: cy + 8})
}

func strokeRect(gtx layout.Context, from, to geo.PointPx) {
	r := image.Rect(int(from.X), int(from.Y), int(to.X), int(to.Y)).Canon()
	paint.FillShape(gtx.Ops, rubberBandColour,
		clip.Stroke{Path: clip.Rect(r).Path(), Width: 1}.Op())
}

func strokeLine(gtx layout.Context, from, to geo.PointPx) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(float32(from.X), float32(from.Y)))
	path.LineTo(f32.Pt(float32(to.X), float32(to.Y)))
	paint.FillShape(gtx.Ops, rubberBandColour,
		clip.Stroke{Path: path.End(), Width: 1}.Op())
}

func strokeEllipse(gtx layout.Context, from, to geo.PointPx) {
	r := image.Rect(int(from.X), int(from.Y), int(to.X), int(to.Y)).Canon()
	paint.FillShape(gtx.Ops, rubberBandColour,
		clip.Stroke{Path: clip.Ellipse(r).Path(gtx.Ops), Width: 1}.Op())
}

func pointFromF32(p f32.Point) geo.PointPx {
	return geo.PointPx{X: float64(p.X), Y: float64(p.Y)}
}

func buttonFromGio(b pointer.Buttons) mapcontrol.MouseButton {
	switch {
	case b.Contain(pointer.ButtonSecondary):
		return mapcontrol.ButtonRight
	case b.Contain(pointer.ButtonPrimary):
		return mapcontrol.ButtonLeft
	default:
		return mapcontrol.ButtonNone
	}
}
