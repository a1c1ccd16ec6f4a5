package app

import (
	"fmt"
	"io"
	"math"

	"github.com/irfansharif/sitewalk/internal/config"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/overlay"
)

// Export describes a headless overlay export.
type Export struct {
	Markers *Markers
	Page    geom.Box
	Image   string // page image linked beneath the overlay; optional

	// Width and Height size the SVG canvas. When unset, the canvas is the
	// page plus the fit margin, i.e. the page at 1:1.
	Width, Height int
}

// ExportOverlay writes the SVG overlay for ex to w, with the page fitted
// into the canvas the same way the viewer fits it into the window.
func ExportOverlay(w io.Writer, ex Export, cfg *config.ViewerConfig) error {
	if ex.Page.Empty() {
		return fmt.Errorf("export: page has no area")
	}
	width, height := ex.Width, ex.Height
	if width <= 0 || height <= 0 {
		margin := cfg.GetFitMargin()
		width = int(math.Ceil(ex.Page.W + 2*margin))
		height = int(math.Ceil(ex.Page.H + 2*margin))
	}
	view := NewView(width, height, ex.Page, cfg)

	opts := overlay.Options{
		MarkerRadius: cfg.GetMarkerRadius(),
	}
	if ex.Image != "" {
		opts.PageImage = ex.Image
		opts.PageSize = geom.MakePoint(ex.Page.W, ex.Page.H)
	}
	if sel, ok := ex.Markers.Selected(); ok {
		opts.Selected = sel.ID
	}
	if meta := ex.Markers.Meta; meta != nil {
		opts.Calibration = meta.Calibration
		opts.Measurements = meta.Measurements
	}
	return overlay.Write(w, view.Sys, ex.Markers.Set, opts)
}
