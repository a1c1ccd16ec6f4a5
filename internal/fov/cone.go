package fov

import (
	"fmt"
	"math"

	"github.com/rclancey/earcut"
	"gonum.org/v1/gonum/floats"

	"github.com/irfansharif/sitewalk/internal/geom"
)

// DefaultSegments is the number of arc segments used when a cone is
// flattened into a polygon.
const DefaultSegments = 48

// Cone describes a camera's coverage: a sector of a circle around Center.
type Cone struct {
	Center   geom.Point
	Range    float64
	FOV      float64 // degrees, clamped to [0, 360] on use
	Rotation float64 // degrees, direction of the bisector
}

// Empty reports whether the cone covers no area.
func (c Cone) Empty() bool { return ClampFOV(c.FOV) == 0 || !(c.Range > 0) }

// FullCircle reports whether the cone is drawn as a complete circle.
func (c Cone) FullCircle() bool { return ClampFOV(c.FOV) >= FullCircleThreshold }

// Path returns the cone's SVG path data.
func (c Cone) Path() string {
	return ConePath(c.Center.X, c.Center.Y, c.Range, c.FOV, c.Rotation)
}

// RangeIndicator returns the SVG path of the cone's bisector.
func (c Cone) RangeIndicator() string {
	return RangeIndicatorPath(c.Center.X, c.Center.Y, c.Range, c.Rotation)
}

// Handles returns the positions of the two edge handles (start and end of
// the arc) and the rotation handle at the tip of the bisector.
func (c Cone) Handles() (start, end, tip geom.Point) {
	half := ClampFOV(c.FOV) / 2
	start = HandlePosition(c.Center.X, c.Center.Y, c.Range, c.Rotation-half)
	end = HandlePosition(c.Center.X, c.Center.Y, c.Range, c.Rotation+half)
	tip = HandlePosition(c.Center.X, c.Center.Y, c.Range, c.Rotation)
	return start, end, tip
}

// Polygon flattens the cone into a simple polygon using the given number of
// arc segments (DefaultSegments if segments < 1). A sector polygon starts at
// the center; a full circle is just its ring. Empty cones have no polygon.
func (c Cone) Polygon(segments int) []geom.Point {
	if c.Empty() {
		return nil
	}
	if segments < 1 {
		segments = DefaultSegments
	}

	fovDeg := ClampFOV(c.FOV)
	if c.FullCircle() {
		// Leave out the closing point, it coincides with the first.
		angles := floats.Span(make([]float64, segments+1), c.Rotation, c.Rotation+360)
		ring := make([]geom.Point, 0, segments)
		for _, a := range angles[:segments] {
			ring = append(ring, geom.Polar(c.Center, c.Range, a))
		}
		return ring
	}

	angles := floats.Span(make([]float64, segments+1), c.Rotation-fovDeg/2, c.Rotation+fovDeg/2)
	poly := make([]geom.Point, 0, segments+2)
	poly = append(poly, c.Center)
	for _, a := range angles {
		poly = append(poly, geom.Polar(c.Center, c.Range, a))
	}
	return poly
}

// Triangles triangulates the cone's polygon.
func (c Cone) Triangles(segments int) ([][3]geom.Point, error) {
	poly := c.Polygon(segments)
	if len(poly) == 0 {
		return nil, nil
	}
	return Triangulate(poly)
}

// Contains reports whether p lies within the cone's coverage. Points exactly
// on the boundary count as covered.
func (c Cone) Contains(p geom.Point) bool {
	if c.Empty() {
		return false
	}
	d := geom.Dist(p, c.Center)
	if d > c.Range {
		return false
	}
	if c.FullCircle() || d == 0 {
		return true
	}
	// Angular distance from the bisector, folded into [0, 180].
	angle := math.Atan2(p.Y-c.Center.Y, p.X-c.Center.X) * 180 / math.Pi
	delta := math.Mod(math.Abs(angle-c.Rotation), 360)
	if delta > 180 {
		delta = 360 - delta
	}
	return delta <= ClampFOV(c.FOV)/2+1e-9
}

// Triangulate splits a simple polygon into triangles using the earcut
// algorithm.
func Triangulate(polygon []geom.Point) ([][3]geom.Point, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("degenerate polygon (%d vertices < 3)", len(polygon))
	}

	// Flat coordinate array required by earcut: [x0, y0, x1, y1, ...].
	vertexCoords := make([]float64, len(polygon)*2)
	for i, point := range polygon {
		vertexCoords[i*2] = point.X
		vertexCoords[i*2+1] = point.Y
	}

	indices, err := earcut.Earcut(vertexCoords, nil /* holeIndices */, 2 /* dim */)
	if err != nil {
		return nil, fmt.Errorf("triangulating %d-vertex polygon: %w", len(polygon), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("invalid triangle count (indices: %d, not divisible by 3)", len(indices))
	}

	triangles := make([][3]geom.Point, len(indices)/3)
	for i := range triangles {
		for v := 0; v < 3; v++ {
			triangles[i][v] = polygon[indices[i*3+v]]
		}
	}
	return triangles, nil
}

// TriangleArea returns the unsigned area of a triangle.
func TriangleArea(tri [3]geom.Point) float64 {
	a, b, c := tri[0], tri[1], tri[2]
	return math.Abs((b.X-a.X)*(c.Y-a.Y)-(c.X-a.X)*(b.Y-a.Y)) / 2
}
