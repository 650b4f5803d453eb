// Demo map viewer: OSM tiles with placeholder fallback, a coloured GPS-style
// track, and optional shapefile overlays. Configuration is read from
// demo.yaml next to the binary, every key has a default.
package main

import (
	"image"
	"image/color"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/spf13/viper"

	"mapcontrol"
	"mapcontrol/geo"
	"mapcontrol/layers"
	"mapcontrol/mapview"
	"mapcontrol/render"
	"mapcontrol/shapefile"
	"mapcontrol/tiles"
	"mapcontrol/worker"
)

func loadConfig() {
	viper.SetDefault("window.width", 800)
	viper.SetDefault("window.height", 600)
	viper.SetDefault("map.lat", 51.507222)
	viper.SetDefault("map.lon", -0.1275)
	viper.SetDefault("map.zoom", 12)
	viper.SetDefault("map.zoom_min", 0)
	viper.SetDefault("map.zoom_max", 17)
	viper.SetDefault("map.scaled_preview", true)
	viper.SetDefault("tiles.url", "")
	viper.SetDefault("tiles.workers", 4)
	viper.SetDefault("layers.shapefiles", []string{})

	viper.SetConfigName("demo")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./apps/demo")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("demo: reading config: %v", err)
		}
	}
}

func buildMap() *mapcontrol.MapControl {
	size := image.Point{
		X: viper.GetInt("window.width"),
		Y: viper.GetInt("window.height"),
	}

	pool := worker.NewPool(viper.GetInt("tiles.workers"))

	osm := tiles.NewOSMProvider(viper.GetString("tiles.url"))
	local := tiles.NewLocalProvider(256)
	provider := tiles.NewCombinedProvider(osm, local)
	manager := tiles.NewManager(provider, tiles.NewMemoryCache(), pool)

	m := mapcontrol.New(size,
		mapcontrol.WithWorkerPool(pool),
		mapcontrol.WithImageProvider(manager),
		mapcontrol.WithZoomRange(viper.GetInt("map.zoom_min"), viper.GetInt("map.zoom_max")),
		mapcontrol.WithScaledPreview(viper.GetBool("map.scaled_preview")),
		mapcontrol.WithBackgroundColour(color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}),
	)
	provider.SetOnUpgrade(func() { m.RedrawPrimaryScreen(true) })

	m.AddLayer(layers.NewTileLayer("tiles", manager, 0, 17), -1)
	addShapefileLayers(m)
	m.AddLayer(demoTrackLayer(), -1)

	m.SetZoom(viper.GetInt("map.zoom"))
	m.SetMapFocusPoint(geo.Coordinate{
		Lon: viper.GetFloat64("map.lon"),
		Lat: viper.GetFloat64("map.lat"),
	})
	return m
}

func addShapefileLayers(m *mapcontrol.MapControl) {
	opts := shapefile.DefaultOptions()
	opts.Pen = render.Pen{Color: color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}, WidthPx: 1}
	for _, path := range viper.GetStringSlice("layers.shapefiles") {
		layer, err := shapefile.LoadLayer(path, path, opts)
		if err != nil {
			log.Printf("demo: skipping shapefile %s: %v", path, err)
			continue
		}
		m.AddLayer(layer, -1)
	}
}

// demoTrackLayer builds a small track through central London with a
// green-to-red colour ramp.
func demoTrackLayer() *layers.GeometryLayer {
	track := []geo.Coordinate{
		{Lon: -0.1275, Lat: 51.507222},
		{Lon: -0.1195, Lat: 51.5033},
		{Lon: -0.1040, Lat: 51.5055},
		{Lon: -0.0865, Lat: 51.5081},
		{Lon: -0.0760, Lat: 51.5079},
	}

	pen := render.Pen{Color: color.NRGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}, WidthPx: 3}
	points := make([]*layers.Point, len(track))
	for i, coord := range track {
		points[i] = layers.NewCirclePoint(coord, 4, render.DefaultPen(), nil, 0, 17)
	}
	line := layers.NewLineString(points, pen, 0, 17)
	line.SetRamp(render.Ramp{
		Start: color.NRGBA{R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
		End:   color.NRGBA{R: 0xe0, G: 0x00, B: 0x00, A: 0xff},
	})

	layer := layers.NewGeometryLayer("track", 0, 17)
	layer.AddGeometry(line)
	return layer
}

func main() {
	loadConfig()

	m := buildMap()
	defer m.Close()

	refresh := make(chan struct{}, 1)
	mv := mapview.New(m, refresh)

	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("mapcontrol demo"),
			app.Size(
				unit.Dp(viper.GetInt("window.width")),
				unit.Dp(viper.GetInt("window.height")),
			),
		)

		go func() {
			for range refresh {
				w.Invalidate()
			}
		}()

		var ops op.Ops
		for {
			switch e := w.Event().(type) {
			case app.DestroyEvent:
				os.Exit(0)
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				mv.Layout(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}()
	app.Main()
}
