// Package shapefile loads ESRI shapefiles into geometry layers. Polylines
// and polygon outlines become line strings, point records become circle
// points with an optional label read from the attribute table.
package shapefile

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"

	"mapcontrol/geo"
	"mapcontrol/layers"
	"mapcontrol/render"
)

// Options controls how shapefile records are turned into geometries.
type Options struct {
	// Pen used for lines and point outlines.
	Pen render.Pen
	// PointRadiusPx is the circle radius for point records.
	PointRadiusPx float64
	// NameFields are attribute fields probed, in order, for a point label.
	NameFields []string
	// Visibility zoom range of the produced geometries.
	ZoomMinimum int
	ZoomMaximum int
}

// DefaultOptions matches the common natural-earth datasets.
func DefaultOptions() Options {
	return Options{
		Pen:           render.DefaultPen(),
		PointRadiusPx: 3,
		NameFields:    []string{"NAME", "NAMEASCII", "NAME_EN"},
		ZoomMinimum:   0,
		ZoomMaximum:   17,
	}
}

// LoadLayer reads the shapefile at path into a new geometry layer.
func LoadLayer(path, layerName string, opts Options) (*layers.GeometryLayer, error) {
	layer := layers.NewGeometryLayer(layerName, opts.ZoomMinimum, opts.ZoomMaximum)
	if err := AppendTo(layer, path, opts); err != nil {
		return nil, err
	}
	return layer, nil
}

// AppendTo reads the shapefile at path and adds its records to an existing
// layer. Unsupported shape types are skipped.
func AppendTo(layer *layers.GeometryLayer, path string, opts Options) error {
	reader, err := shp.Open(path)
	if err != nil {
		return fmt.Errorf("shapefile: open %s: %w", path, err)
	}
	defer reader.Close()

	nameIdx := nameFieldIndex(reader.Fields(), opts.NameFields)

	for reader.Next() {
		n, shape := reader.Shape()

		switch geom := shape.(type) {
		case *shp.PolyLine:
			addLine(layer, geom.Points, opts)
		case *shp.Polygon:
			// Only the outline; fills are out of scope for a line layer.
			addLine(layer, geom.Points, opts)
		case *shp.Point:
			point := layers.NewCirclePoint(
				geo.Coordinate{Lon: geom.X, Lat: geom.Y},
				opts.PointRadiusPx, opts.Pen, nil,
				opts.ZoomMinimum, opts.ZoomMaximum,
			)
			if nameIdx >= 0 {
				if name := strings.TrimSpace(reader.ReadAttribute(n, nameIdx)); name != "" {
					point.SetLabel(name)
				}
			}
			layer.AddGeometry(point)
		}
	}
	return nil
}

func addLine(layer *layers.GeometryLayer, shapePoints []shp.Point, opts Options) {
	if len(shapePoints) < 2 {
		return
	}
	points := make([]*layers.Point, len(shapePoints))
	for i, p := range shapePoints {
		points[i] = layers.NewCirclePoint(
			geo.Coordinate{Lon: p.X, Lat: p.Y},
			0, opts.Pen, nil,
			opts.ZoomMinimum, opts.ZoomMaximum,
		)
	}
	layer.AddGeometry(layers.NewLineString(points, opts.Pen, opts.ZoomMinimum, opts.ZoomMaximum))
}

// nameFieldIndex finds the first matching attribute field. Shapefile field
// names are fixed-size byte arrays padded with nulls.
func nameFieldIndex(fields []shp.Field, candidates []string) int {
	for _, want := range candidates {
		for i, field := range fields {
			name := strings.TrimRight(string(field.Name[:]), "\x00 ")
			if name == want {
				return i
			}
		}
	}
	return -1
}
