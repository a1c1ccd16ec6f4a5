package app

import (
	"log"
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/sitewalk/internal/config"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/memory"
	"github.com/irfansharif/sitewalk/internal/pagespace"
	"github.com/irfansharif/sitewalk/internal/render"
)

// App encapsulates the main application state and logic.
type App struct {
	Window           *glfw.Window
	Renderer         *render.Renderer
	MemoryController *memory.Controller
	Config           *config.ViewerConfig
	View             *View
	Markers          *Markers

	// Mapping relates the page image back to the PDF it was rendered from.
	// It's nil when the page size was given directly.
	Mapping *pagespace.Mapping
}

// NewApp creates a new application instance. It must be called with a
// current GL context.
func NewApp(window *glfw.Window, cfg *config.ViewerConfig, view *View, markers *Markers) *App {
	memController := memory.NewController()
	renderer := render.NewRenderer(memController)
	return &App{
		Window:           window,
		Renderer:         renderer,
		MemoryController: memController,
		Config:           cfg,
		View:             view,
		Markers:          markers,
	}
}

// SyncView pushes the current view to the renderer. Panning needs nothing
// more; zooming and edits need PrepareRenderer.
func (app *App) SyncView() {
	app.Renderer.SetView(app.View.Sys)
}

// PrepareRenderer syncs the renderer with the view and uploads the layers
// that changed.
func (app *App) PrepareRenderer() {
	// Sync the view BEFORE generating geometry: glyph sizes depend on the
	// current scale.
	app.SyncView()

	opts := render.GeometryOptions{
		MarkerRadius: app.Config.GetMarkerRadius(),
		ConeSegments: app.Config.GetConeSegments(),
	}
	if err := app.Renderer.Prepare(app.View.Page, app.Markers.LayerData(), opts); err != nil {
		log.Fatalf("Failed to prepare renderer: %v", err)
	}
}

// PageBounds returns the box enclosing every marker (cones included),
// padded on each side. It stands in for the page when none was given.
func PageBounds(set *marker.Set, pad float64) geom.Box {
	all := set.All()
	if len(all) == 0 {
		return geom.Box{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(p geom.Point, r float64) {
		minX, minY = math.Min(minX, p.X-r), math.Min(minY, p.Y-r)
		maxX, maxY = math.Max(maxX, p.X+r), math.Max(maxY, p.Y+r)
	}
	for _, m := range all {
		r := 0.0
		if m.HasCone() {
			r = m.Cone().Range
		}
		extend(m.Position(), r)
	}
	return geom.MakeBox(minX-pad, minY-pad, maxX-minX+2*pad, maxY-minY+2*pad)
}
