package app

import (
	"github.com/irfansharif/sitewalk/internal/config"
	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/viewport"
)

// View manages the current coordinate system: zoom, pan, and the viewport
// it's drawn into. Pointer positions are framebuffer pixels relative to the
// window, which is also the container.
type View struct {
	Sys  coords.System
	Page geom.Box // document-space extent of the floorplan

	zoom      *viewport.Controller
	fitMargin float64
	panStep   float64
}

// NewView creates a view of page fitted into a width x height viewport.
func NewView(width, height int, page geom.Box, cfg *config.ViewerConfig) *View {
	zoom := viewport.NewController(viewport.Bounds{Min: cfg.GetMinZoom(), Max: cfg.GetMaxZoom()})
	zoom.Step = cfg.GetZoomStep()
	zoom.WheelSensitivity = cfg.GetWheelSensitivity()

	v := &View{
		Sys:       coords.New(coords.WithMaxPrecision(cfg.GetMaxPrecision())),
		Page:      page,
		zoom:      zoom,
		fitMargin: cfg.GetFitMargin(),
		panStep:   cfg.GetPanStep(),
	}
	v.SetViewport(width, height)
	v.Fit()
	return v
}

// SetViewport updates the viewport dimensions.
func (v *View) SetViewport(width, height int) {
	w, h := float64(width), float64(height)
	v.Sys = v.Sys.Update(coords.Patch{
		Container: coords.Static(geom.MakeBox(0, 0, w, h)),
		Viewport:  &coords.Viewport{Width: w, Height: h},
	})
}

// Scale returns the current zoom level.
func (v *View) Scale() float64 { return v.Sys.Scale() }

// ZoomAt applies a scroll delta, keeping the document point under pointer
// fixed.
func (v *View) ZoomAt(delta float64, pointer geom.Point) {
	if sys, ok := v.zoom.ZoomBy(v.Sys, delta, pointer); ok {
		v.Sys = sys
	}
}

// ZoomStep zooms in or out by one step around pointer.
func (v *View) ZoomStep(in bool, pointer geom.Point) {
	zoom := v.zoom.ZoomOut
	if in {
		zoom = v.zoom.ZoomIn
	}
	if sys, ok := zoom(v.Sys, pointer); ok {
		v.Sys = sys
	}
}

// Pan shifts the view by (dx, dy) framebuffer pixels.
func (v *View) Pan(dx, dy float64) {
	v.Sys = v.zoom.Pan(v.Sys, dx, dy)
}

// PanSteps pans by whole pan steps, as the keyboard does.
func (v *View) PanSteps(dx, dy float64) {
	v.Pan(dx*v.panStep, dy*v.panStep)
}

// Fit scales and centers the page in the viewport. It reports false (and
// leaves the view alone) when there's no page or no viewport to fit into.
func (v *View) Fit() bool {
	sys, ok := v.zoom.Fit(v.Sys, v.Page, v.fitMargin)
	if ok {
		v.Sys = sys
	}
	return ok
}

// CenterOn pans the document point pos to the middle of the viewport.
func (v *View) CenterOn(pos geom.Point) {
	v.Sys = v.zoom.CenterOn(v.Sys, pos)
}

// ToDocument converts a pointer position to document space.
func (v *View) ToDocument(pointer geom.Point) (geom.Point, bool) {
	return v.Sys.ContainerToDocument(pointer.X, pointer.Y)
}

// DocumentRadius converts a radius in framebuffer pixels into document
// units at the current zoom.
func (v *View) DocumentRadius(px float64) float64 {
	return px / v.Scale()
}
