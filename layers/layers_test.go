package layers_test

import (
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"mapcontrol/geo"
	"mapcontrol/layers"
	"mapcontrol/render"
)

func testPen() render.Pen {
	return render.Pen{Color: color.NRGBA{A: 0xff}, WidthPx: 1}
}

func TestContainerReplaceOnAdd(t *testing.T) {
	t.Parallel()

	c := layers.NewContainer()
	first := layers.NewGeometryLayer("overlay", 0, 17)
	second := layers.NewGeometryLayer("overlay", 0, 17)

	c.Add(first, -1)
	require.Equal(t, 1, c.Count())

	c.Add(second, -1)
	require.Equal(t, 1, c.Count())
	require.Same(t, second, c.Layer("overlay").(*layers.GeometryLayer))
}

func TestContainerInsertAtIndex(t *testing.T) {
	t.Parallel()

	c := layers.NewContainer()
	c.Add(layers.NewGeometryLayer("base", 0, 17), -1)
	c.Add(layers.NewGeometryLayer("top", 0, 17), -1)
	c.Add(layers.NewGeometryLayer("middle", 0, 17), 1)

	got := c.Layers()
	require.Len(t, got, 3)
	require.Equal(t, "base", got[0].Name())
	require.Equal(t, "middle", got[1].Name())
	require.Equal(t, "top", got[2].Name())

	// An out-of-range index appends.
	c.Add(layers.NewGeometryLayer("last", 0, 17), 99)
	require.Equal(t, "last", c.Layers()[3].Name())
}

func TestContainerRemove(t *testing.T) {
	t.Parallel()

	c := layers.NewContainer()
	c.Add(layers.NewGeometryLayer("gone", 0, 17), -1)

	require.True(t, c.Remove("gone"))
	require.False(t, c.Remove("gone"))
	require.Nil(t, c.Layer("gone"))
	require.Zero(t, c.Count())
}

func TestHitAreas(t *testing.T) {
	t.Parallel()

	rect := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: 0, Y: 0},
		BottomRight: geo.PointPx{X: 10, Y: 10},
	}}
	require.True(t, rect.ContainsPoint(geo.PointPx{X: 5, Y: 5}))
	require.True(t, rect.ContainsPoint(geo.PointPx{X: 10, Y: 10}))
	require.False(t, rect.ContainsPoint(geo.PointPx{X: 11, Y: 5}))

	ellipse := layers.EllipseArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: 0, Y: 0},
		BottomRight: geo.PointPx{X: 10, Y: 10},
	}}
	require.True(t, ellipse.ContainsPoint(geo.PointPx{X: 5, Y: 5}))
	// Rect corner is outside the inscribed ellipse.
	require.False(t, ellipse.ContainsPoint(geo.PointPx{X: 0.5, Y: 0.5}))
	require.True(t, ellipse.ContainsPoint(geo.PointPx{X: 10, Y: 5}))

	line := layers.LineArea{From: geo.PointPx{X: 0, Y: 0}, To: geo.PointPx{X: 10, Y: 0}, FuzzPx: 4}
	require.True(t, line.ContainsPoint(geo.PointPx{X: 5, Y: 1.5}))
	require.False(t, line.ContainsPoint(geo.PointPx{X: 5, Y: 3}))
	// Beyond the segment end the distance is measured to the endpoint.
	require.True(t, line.ContainsPoint(geo.PointPx{X: 11, Y: 0}))
	require.False(t, line.ContainsPoint(geo.PointPx{X: 14, Y: 0}))
}

func TestPointTouchesAndVisibility(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	coord := geo.Coordinate{Lon: -0.1275, Lat: 51.507222}
	point := layers.NewCirclePoint(coord, 5, testPen(), nil, 5, 12)

	px := proj.ToPixelPoint(coord, 8)
	probe := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: px.X - 1, Y: px.Y - 1},
		BottomRight: geo.PointPx{X: px.X + 1, Y: px.Y + 1},
	}}

	require.True(t, point.Touches(probe, proj, 8))
	// Outside the visible zoom range nothing is hit.
	require.False(t, point.Touches(probe, proj, 3))

	miss := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: px.X + 100, Y: px.Y + 100},
		BottomRight: geo.PointPx{X: px.X + 110, Y: px.Y + 110},
	}}
	require.False(t, point.Touches(miss, proj, 8))
}

func TestPointBoundingBoxContainsCoordinate(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	coord := geo.Coordinate{Lon: 13.4, Lat: 52.52}
	point := layers.NewCirclePoint(coord, 6, testPen(), nil, 0, 17)

	box := point.BoundingBox(proj, 10)
	require.True(t, box.ContainsCoordinate(coord))
}

func TestPointPositionSubscription(t *testing.T) {
	t.Parallel()

	layer := layers.NewGeometryLayer("tracked", 0, 17)
	point := layers.NewCirclePoint(geo.Coordinate{Lon: 0, Lat: 0}, 3, testPen(), nil, 0, 17)
	id := layer.AddGeometry(point)

	var mu sync.Mutex
	var got []geo.Coordinate
	unsubscribe := layer.SubscribePosition(id, func(c geo.Coordinate) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	point.SetCoordinate(geo.Coordinate{Lon: 1, Lat: 1})
	point.SetCoordinate(geo.Coordinate{Lon: 2, Lat: 2})

	mu.Lock()
	require.Equal(t, []geo.Coordinate{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}, got)
	mu.Unlock()

	unsubscribe()
	point.SetCoordinate(geo.Coordinate{Lon: 3, Lat: 3})

	mu.Lock()
	require.Len(t, got, 2, "no delivery after unsubscribe")
	mu.Unlock()
}

func TestGeometryLayerAddRemove(t *testing.T) {
	t.Parallel()

	layer := layers.NewGeometryLayer("shapes", 0, 17)
	a := layers.NewCirclePoint(geo.Coordinate{Lon: 0, Lat: 0}, 3, testPen(), nil, 0, 17)
	b := layers.NewCirclePoint(geo.Coordinate{Lon: 1, Lat: 1}, 3, testPen(), nil, 0, 17)

	idA := layer.AddGeometry(a)
	idB := layer.AddGeometry(b)
	require.NotEqual(t, idA, idB)
	require.Equal(t, 2, layer.GeometryCount())
	require.Same(t, a, layer.Geometry(idA).(*layers.Point))

	layer.RemoveGeometry(idA)
	require.Equal(t, 1, layer.GeometryCount())
	require.Nil(t, layer.Geometry(idA))

	// Removing twice is a no-op.
	layer.RemoveGeometry(idA)
	require.Equal(t, 1, layer.GeometryCount())
}

func TestGeometryLayerCulling(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	layer := layers.NewGeometryLayer("shapes", 0, 17)
	inside := layers.NewCirclePoint(geo.Coordinate{Lon: 0.5, Lat: 0.5}, 3, testPen(), nil, 0, 17)
	outside := layers.NewCirclePoint(geo.Coordinate{Lon: 100, Lat: 50}, 3, testPen(), nil, 0, 17)
	layer.AddGeometry(inside)
	layer.AddGeometry(outside)

	area := geo.RectCoord{
		TopLeft:     geo.Coordinate{Lon: -1, Lat: 1},
		BottomRight: geo.Coordinate{Lon: 1, Lat: -1},
	}
	got := layer.Geometries(proj, area, 10)
	require.Len(t, got, 1)
	require.Same(t, inside, got[0].(*layers.Point))
}

func TestLineStringTouchesReportsPoints(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	coords := []geo.Coordinate{
		{Lon: 0, Lat: 0},
		{Lon: 0.001, Lat: 0},
		{Lon: 10, Lat: 10},
	}
	points := make([]*layers.Point, len(coords))
	for i, c := range coords {
		points[i] = layers.NewCirclePoint(c, 2, testPen(), nil, 0, 17)
	}
	line := layers.NewLineString(points, testPen(), 0, 17)
	require.Equal(t, layers.KindLineString, line.Kind())

	// Probe around the first two vertices only.
	zoom := 10
	p0 := proj.ToPixelPoint(coords[0], zoom)
	p1 := proj.ToPixelPoint(coords[1], zoom)
	probe := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: p0.X - 5, Y: p0.Y - 5},
		BottomRight: geo.PointPx{X: p1.X + 5, Y: p1.Y + 5},
	}}

	require.True(t, line.Touches(probe, proj, zoom))
	require.Len(t, line.TouchedPoints(), 2)

	far := layers.RectArea{Rect: geo.RectPx{
		TopLeft:     geo.PointPx{X: -100, Y: -100},
		BottomRight: geo.PointPx{X: -90, Y: -90},
	}}
	require.False(t, line.Touches(far, proj, zoom))
	require.Empty(t, line.TouchedPoints())
}

func TestLineStringBoundingBox(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	points := []*layers.Point{
		layers.NewCirclePoint(geo.Coordinate{Lon: -1, Lat: 2}, 2, testPen(), nil, 0, 17),
		layers.NewCirclePoint(geo.Coordinate{Lon: 3, Lat: -4}, 2, testPen(), nil, 0, 17),
	}
	line := layers.NewLineString(points, testPen(), 0, 17)

	box := line.BoundingBox(proj, 5)
	require.Equal(t, geo.Coordinate{Lon: -1, Lat: 2}, box.TopLeft)
	require.Equal(t, geo.Coordinate{Lon: 3, Lat: -4}, box.BottomRight)
}

func TestGeometryLayerDrawPaintsPoints(t *testing.T) {
	t.Parallel()

	proj := geo.NewSphericalMercator(256)
	coord := geo.Coordinate{Lon: 0, Lat: 0}
	pen := render.Pen{Color: color.NRGBA{R: 0xff, A: 0xff}, WidthPx: 2}
	brush := &render.Brush{Color: color.NRGBA{R: 0xff, A: 0xff}}

	layer := layers.NewGeometryLayer("shapes", 0, 17)
	layer.AddGeometry(layers.NewCirclePoint(coord, 5, pen, brush, 0, 17))

	zoom := 4
	center := proj.ToPixelPoint(coord, zoom)
	rectPx := geo.RectPx{
		TopLeft:     geo.PointPx{X: center.X - 20, Y: center.Y - 20},
		BottomRight: geo.PointPx{X: center.X + 20, Y: center.Y + 20},
	}

	canvas := render.NewCanvas(40, 40)
	canvas.SetTranslation(rectPx.TopLeft)
	layer.Draw(canvas, proj, rectPx, zoom)

	require.NotZero(t, canvas.Image().RGBAAt(20, 20).R, "circle centre painted")

	// Outside the visible zoom range nothing is painted.
	blank := render.NewCanvas(40, 40)
	blank.SetTranslation(rectPx.TopLeft)
	layer.Draw(blank, proj, rectPx, 99)
	require.Zero(t, blank.Image().RGBAAt(20, 20).R)
}
