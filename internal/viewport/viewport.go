// Package viewport turns discrete zoom and pan actions into new coordinate
// systems. Zooming always happens around a focal point (usually the
// pointer), which stays visually fixed; without that, zooming would drift
// toward the document origin.
package viewport

import (
	"math"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
)

// Bounds limits the zoom scale. The core hardcodes no limits: each view
// supplies its own.
type Bounds struct {
	Min float64
	Max float64
}

// Clamp limits scale to the bounds. Zero bounds disable the respective
// limit.
func (b Bounds) Clamp(scale float64) float64 {
	if b.Min > 0 && scale < b.Min {
		return b.Min
	}
	if b.Max > 0 && scale > b.Max {
		return b.Max
	}
	return scale
}

// Controller applies zoom and pan gestures to a coords.System.
type Controller struct {
	Bounds Bounds
	// Step is the multiplicative factor of a single zoom-in/zoom-out action,
	// e.g. 1.25. Values <= 1 fall back to DefaultStep.
	Step float64
	// WheelSensitivity converts scroll deltas into zoom factors: a delta of d
	// zooms by 1 + d*WheelSensitivity. Values <= 0 fall back to
	// DefaultWheelSensitivity.
	WheelSensitivity float64
}

const (
	DefaultStep             = 1.25
	DefaultWheelSensitivity = 0.15
	minWheelFactor          = 0.1
)

// NewController returns a controller with the given bounds and default
// step sizes.
func NewController(bounds Bounds) *Controller {
	return &Controller{Bounds: bounds, Step: DefaultStep, WheelSensitivity: DefaultWheelSensitivity}
}

func (c *Controller) step() float64 {
	if c.Step <= 1 {
		return DefaultStep
	}
	return c.Step
}

// ZoomIn zooms in by one step around the focal screen position.
func (c *Controller) ZoomIn(sys coords.System, focal geom.Point) (coords.System, bool) {
	return c.ZoomTo(sys, sys.Scale()*c.step(), focal)
}

// ZoomOut zooms out by one step around the focal screen position.
func (c *Controller) ZoomOut(sys coords.System, focal geom.Point) (coords.System, bool) {
	return c.ZoomTo(sys, sys.Scale()/c.step(), focal)
}

// ZoomBy handles a continuous zoom gesture (scroll wheel, pinch) of the
// given delta around the focal screen position.
func (c *Controller) ZoomBy(sys coords.System, delta float64, focal geom.Point) (coords.System, bool) {
	sensitivity := c.WheelSensitivity
	if sensitivity <= 0 {
		sensitivity = DefaultWheelSensitivity
	}
	factor := math.Max(1+delta*sensitivity, minWheelFactor)
	return c.ZoomTo(sys, sys.Scale()*factor, focal)
}

// ZoomTo sets the scale to level (clamped to the bounds) keeping the
// document point under focal fixed. ok is false when the system has no
// container, in which case sys is returned unchanged.
func (c *Controller) ZoomTo(sys coords.System, level float64, focal geom.Point) (coords.System, bool) {
	tr, ok := sys.ZoomTransform(c.Bounds.Clamp(level), focal.X, focal.Y)
	if !ok {
		return sys, false
	}
	return sys.WithTransform(tr), true
}

// ZoomAtCenter zooms to level around the center of the viewport.
func (c *Controller) ZoomAtCenter(sys coords.System, level float64) (coords.System, bool) {
	origin, ok := sys.ContainerOrigin()
	if !ok {
		return sys, false
	}
	vp := sys.ViewportDimensions()
	return c.ZoomTo(sys, level, origin.Add(geom.MakePoint(vp.Width/2, vp.Height/2)))
}

// Pan shifts the view by (dx, dy) screen pixels.
func (c *Controller) Pan(sys coords.System, dx, dy float64) coords.System {
	tr := sys.Transform()
	tr.TranslateX += dx
	tr.TranslateY += dy
	return sys.WithTransform(tr)
}

// Fit scales and centers page (a document-space box) inside the viewport,
// leaving margin screen pixels on every side. The fitted scale is clamped to
// the bounds.
func (c *Controller) Fit(sys coords.System, page geom.Box, margin float64) (coords.System, bool) {
	vp := sys.ViewportDimensions()
	dst := geom.MakeBox(margin, margin, vp.Width-2*margin, vp.Height-2*margin)
	scale, _, err := geom.FitBox(page, dst)
	if err != nil {
		return sys, false
	}
	scale = c.Bounds.Clamp(scale)

	// Center the page at the (possibly clamped) scale.
	center := page.Center()
	return sys.WithTransform(coords.Transform{
		Scale:      scale,
		TranslateX: dst.X + dst.W/2 - center.X*scale,
		TranslateY: dst.Y + dst.H/2 - center.Y*scale,
	}), true
}

// CenterOn pans so that the document point doc sits at the center of the
// viewport, keeping the current scale.
func (c *Controller) CenterOn(sys coords.System, doc geom.Point) coords.System {
	vp := sys.ViewportDimensions()
	tr := sys.Transform()
	tr.TranslateX = vp.Width/2 - doc.X*tr.Scale
	tr.TranslateY = vp.Height/2 - doc.Y*tr.Scale
	return sys.WithTransform(tr)
}
