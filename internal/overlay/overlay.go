// Package overlay writes the floorplan's marker layer as SVG.
//
// Everything below the root group is in document space; the root group
// carries the coordinate system's transform, so the overlay lines up with
// the page image at any zoom. Glyph sizes and stroke widths are divided by
// the scale so they stay a constant size on screen.
package overlay

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"
	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/fov"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/measure"
	"github.com/irfansharif/sitewalk/internal/palette"
	"github.com/irfansharif/sitewalk/internal/precision"
)

// Options controls what the overlay contains.
type Options struct {
	// PageImage, if set, is linked beneath the markers at PageSize.
	PageImage string
	PageSize  geom.Point

	// MarkerRadius is the on-screen glyph radius in pixels.
	MarkerRadius float64
	// Selected is highlighted and, if it's a camera, gets FOV handles.
	Selected uuid.UUID

	Calibration  *measure.Calibration
	Measurements []measure.Measurement
}

const (
	defaultMarkerRadius = 6.0
	strokeWidth         = 1.5 // screen pixels
	handleRadius        = 4.0 // screen pixels
	tickLength          = 8.0 // screen pixels
	labelSize           = 12.0
)

// Write renders the visible markers of set, as seen through sys, to w. The
// SVG canvas is the size of sys's viewport.
func Write(w io.Writer, sys coords.System, set *marker.Set, opts Options) error {
	vp := sys.ViewportDimensions()
	if !(vp.Width > 0) || !(vp.Height > 0) {
		return fmt.Errorf("overlay: viewport has no area (%vx%v)", vp.Width, vp.Height)
	}
	if opts.MarkerRadius <= 0 {
		opts.MarkerRadius = defaultMarkerRadius
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	// Document coordinates are written at the precision the current zoom
	// level can distinguish.
	canvas.Decimals = precision.DecimalPlaces(sys.Scale(), sys.MaxPrecision())
	px := 1 / sys.Scale() // one screen pixel, in document units

	canvas.Start(vp.Width, vp.Height)
	canvas.Gtransform(sys.SVGTransform())

	if opts.PageImage != "" && opts.PageSize.X > 0 && opts.PageSize.Y > 0 {
		canvas.Image(0, 0, int(math.Round(opts.PageSize.X)), int(math.Round(opts.PageSize.Y)), opts.PageImage)
	}

	markers := set.Visible()
	for _, layer := range set.Layers() {
		var members []*marker.Marker
		for _, m := range markers {
			if m.LayerName() == layer {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			continue
		}

		canvas.Gid("layer-" + layer)
		// Cones first so glyphs are never hidden beneath a neighbour's
		// coverage.
		for _, m := range members {
			if m.HasCone() {
				writeCone(canvas, m, styleFor(m, opts.Selected), px)
			}
		}
		for _, m := range members {
			writeGlyph(canvas, m, styleFor(m, opts.Selected), opts.MarkerRadius*px, px)
		}
		canvas.Gend()
	}

	if sel, ok := set.Get(opts.Selected); ok && sel.IsVisible() && sel.HasCone() {
		writeHandles(canvas, sel.Cone(), styleFor(sel, opts.Selected), px)
	}

	if len(opts.Measurements) > 0 {
		canvas.Gid("measurements")
		for _, m := range opts.Measurements {
			writeMeasurement(canvas, m, opts.Calibration, px)
		}
		canvas.Gend()
	}

	canvas.Gend()
	canvas.End()
	return ew.err
}

func styleFor(m *marker.Marker, selected uuid.UUID) palette.Style {
	s := palette.ForLayer(m.LayerName())
	if m.ID == selected {
		s = palette.Highlighted(s)
	}
	return s
}

func writeCone(canvas *svg.SVG, m *marker.Marker, s palette.Style, px float64) {
	cone := m.Cone()
	if cone.Empty() {
		return
	}
	canvas.Path(cone.Path(), fill(s.Cone)+";"+stroke(s.Stroke, px), attr("data-marker-id", m.ID.String()))
	canvas.Path(cone.RangeIndicator(), "fill:none;"+strokeDashed(s.Stroke, px))
}

func writeGlyph(canvas *svg.SVG, m *marker.Marker, s palette.Style, r, px float64) {
	p := m.Position()
	style := []string{fill(s.Fill) + ";" + stroke(s.Stroke, px), attr("data-marker-id", m.ID.String())}
	switch m.Kind {
	case marker.KindCamera:
		canvas.Circle(p.X, p.Y, r, style...)
	case marker.KindAccessPoint:
		canvas.Polygon(
			[]float64{p.X, p.X + r, p.X, p.X - r},
			[]float64{p.Y - r, p.Y, p.Y + r, p.Y},
			style...)
	case marker.KindElevator:
		canvas.CenterRect(p.X, p.Y, 2*r, 2*r, style...)
	case marker.KindIntercom:
		canvas.Polygon(
			[]float64{p.X, p.X + r, p.X - r},
			[]float64{p.Y - r, p.Y + r, p.Y + r},
			style...)
	}
	if m.Label != "" {
		canvas.Text(p.X, p.Y-r-2*px, m.Label, textStyle(s.Stroke, px))
	}
}

func writeHandles(canvas *svg.SVG, cone fov.Cone, s palette.Style, px float64) {
	if cone.Empty() {
		return
	}
	start, end, tip := cone.Handles()
	canvas.Gid("handles")
	for _, h := range []geom.Point{start, end, tip} {
		canvas.Circle(h.X, h.Y, handleRadius*px, "fill:#ffffff;"+stroke(s.Stroke, px))
	}
	canvas.Gend()
}

func writeMeasurement(canvas *svg.SVG, m measure.Measurement, cal *measure.Calibration, px float64) {
	d := m.Path(tickLength * px)
	if d == "" {
		return
	}
	canvas.Path(d, "fill:none;"+stroke(measureColor, px))
	if cal == nil {
		return
	}
	label, err := m.Label(*cal)
	if err != nil {
		return
	}
	at := m.LabelPosition()
	canvas.Text(at.X, at.Y-4*px, label, textStyle(measureColor, px)+";text-anchor:middle")
}
