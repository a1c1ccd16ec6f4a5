// Package fov computes the overlay geometry for camera markers: the
// field-of-view cone ("pie slice"), the center line showing where the
// camera points, and the handle used to adjust the cone interactively.
//
// Angles are in degrees, measured clockwise from the +x axis of a y-down
// document space. Path strings are SVG path data. Everything here is pure:
// identical input always produces identical output.
package fov

import (
	"math"
	"strconv"
	"strings"

	"github.com/irfansharif/sitewalk/internal/geom"
)

const (
	// FullCircleThreshold is the field of view (in degrees) from which a cone
	// is drawn as a complete circle. A single arc command can't sweep 360°,
	// its start and end points would coincide.
	FullCircleThreshold = 359.9

	maxFOV = 360.0
	minFOV = 0.0
)

// ClampFOV limits a field of view to [0, 360] degrees. NaN clamps to 0.
func ClampFOV(fovDeg float64) float64 {
	if math.IsNaN(fovDeg) || fovDeg < minFOV {
		return minFOV
	}
	if fovDeg > maxFOV {
		return maxFOV
	}
	return fovDeg
}

// ConePath returns the SVG path of a camera's field-of-view sector centered
// at (cx, cy). It returns "" when there's nothing to draw: a zero (clamped)
// field of view, or a non-positive range.
func ConePath(cx, cy, rng, fovDeg, rotationDeg float64) string {
	fovDeg = ClampFOV(fovDeg)
	if fovDeg == 0 || !(rng > 0) {
		return ""
	}

	center := geom.MakePoint(cx, cy)
	if fovDeg >= FullCircleThreshold {
		// Two half-circle arcs through opposite points.
		start := geom.Polar(center, rng, rotationDeg)
		opposite := geom.Polar(center, rng, rotationDeg+180)
		var b pathBuilder
		b.move(start)
		b.arc(rng, true, opposite)
		b.arc(rng, true, start)
		b.close()
		return b.String()
	}

	start := geom.Polar(center, rng, rotationDeg-fovDeg/2)
	end := geom.Polar(center, rng, rotationDeg+fovDeg/2)

	var b pathBuilder
	b.move(center)
	b.line(start)
	b.arc(rng, fovDeg > 180, end)
	b.close()
	return b.String()
}

// RangeIndicatorPath returns the SVG path of the line from the center to the
// edge of the cone along its bisector.
func RangeIndicatorPath(cx, cy, rng, rotationDeg float64) string {
	center := geom.MakePoint(cx, cy)
	var b pathBuilder
	b.move(center)
	b.line(geom.Polar(center, rng, rotationDeg))
	return b.String()
}

// HandlePosition returns the point at angleDeg and distance rng from the
// center, where a drag handle for the cone edge is placed.
func HandlePosition(cx, cy, rng, angleDeg float64) geom.Point {
	return geom.Polar(geom.MakePoint(cx, cy), rng, angleDeg)
}

// pathBuilder accumulates SVG path commands separated by single spaces.
type pathBuilder struct {
	sb strings.Builder
}

func (b *pathBuilder) cmd(c string) {
	if b.sb.Len() > 0 {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(c)
}

func (b *pathBuilder) move(p geom.Point) { b.cmd("M " + coord(p.X, p.Y)) }

func (b *pathBuilder) line(p geom.Point) { b.cmd("L " + coord(p.X, p.Y)) }

// arc appends a clockwise circular arc of radius r ending at p.
func (b *pathBuilder) arc(r float64, large bool, p geom.Point) {
	largeArc := "0"
	if large {
		largeArc = "1"
	}
	b.cmd("A " + coord(r, r) + " 0 " + largeArc + ",1 " + coord(p.X, p.Y))
}

func (b *pathBuilder) close() { b.cmd("Z") }

func (b *pathBuilder) String() string { return b.sb.String() }

func coord(x, y float64) string { return num(x) + "," + num(y) }

// num prints the shortest representation that round-trips.
func num(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
