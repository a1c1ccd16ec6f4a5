// Package geom provides the 2D primitives shared by the floorplan packages:
// - Points, used for both screen and document coordinates
// - Axis-aligned boxes (page bounds, viewport bounds)
// - 2D affine transformations, their composition and inversion
// - Polar helpers for angle/range based marker geometry
//
// A Point never records which coordinate space it lives in; callers track
// that themselves.
package geom

import (
	"fmt"
	"math"
)

// Point represents a 2D point or vector in Cartesian coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box represents an axis-aligned rectangle.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Affine represents a 2D affine transform in row-major form:
// [ a b c ]
// [ d e f ]
// where (x', y') = (a*x + b*y + c, d*x + e*y + f)
type Affine struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

// Identity is the affine transform that leaves points unchanged.
var Identity = Affine{A: 1, E: 1}

func MakePoint(x, y float64) Point               { return Point{X: x, Y: y} }
func MakeBox(x, y, w, h float64) Box             { return Box{X: x, Y: y, W: w, H: h} }
func MakeAffine(a, b, c, d, e, f float64) Affine { return Affine{A: a, B: b, C: c, D: d, E: e, F: f} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// IsFinite reports whether neither coordinate is NaN or infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

func Dot(p, q Point) float64 { return p.X*q.X + p.Y*q.Y }

func Dist(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Min returns the top-left corner of the box.
func (b Box) Min() Point { return Point{b.X, b.Y} }

// Center returns the center point of the box.
func (b Box) Center() Point { return Point{b.X + 0.5*b.W, b.Y + 0.5*b.H} }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Contains reports whether p lies inside the box (edges included).
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// Radians converts an angle in degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Polar returns the point at the given distance from center, in the direction
// of angleDeg. Angles are measured clockwise from the +x axis, matching a
// y-down (screen or page image) coordinate space.
func Polar(center Point, radius, angleDeg float64) Point {
	rad := Radians(angleDeg)
	return Point{
		X: center.X + radius*math.Cos(rad),
		Y: center.Y + radius*math.Sin(rad),
	}
}

// MulPoint applies the affine transform to a point.
func (t Affine) MulPoint(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
	}
}

// Mul composes two affine transforms (applies u then t).
func (t Affine) Mul(u Affine) Affine {
	return MakeAffine(
		t.A*u.A+t.B*u.D,
		t.A*u.B+t.B*u.E,
		t.A*u.C+t.B*u.F+t.C,
		t.D*u.A+t.E*u.D,
		t.D*u.B+t.E*u.E,
		t.D*u.C+t.E*u.F+t.F,
	)
}

// Inv returns the inverse of the affine transform.
// Returns an error if the transform is not invertible (determinant is zero).
func (t Affine) Inv() (Affine, error) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < 1e-10 {
		return Affine{}, fmt.Errorf("affine transform is not invertible (determinant ≈ 0)")
	}
	return MakeAffine(
		t.E/det, -t.B/det, (t.B*t.F-t.C*t.E)/det,
		-t.D/det, t.A/det, (t.C*t.D-t.A*t.F)/det,
	), nil
}

// ScaleTranslate returns the transform p -> p*s + (tx, ty).
func ScaleTranslate(s, tx, ty float64) Affine {
	return MakeAffine(s, 0, tx, 0, s, ty)
}

// FitBox returns the uniform scale and translation that place box src,
// centered, inside box dst. The result maps src coordinates to dst
// coordinates as p*scale + translate.
func FitBox(src, dst Box) (scale float64, translate Point, err error) {
	if src.Empty() {
		return 0, Point{}, fmt.Errorf("source box must have positive width and height, got W=%v H=%v", src.W, src.H)
	}
	if dst.Empty() {
		return 0, Point{}, fmt.Errorf("destination box must have positive width and height, got W=%v H=%v", dst.W, dst.H)
	}

	scale = math.Min(dst.W/src.W, dst.H/src.H)
	centerDst := MakeAffine(1, 0, dst.X+0.5*dst.W, 0, 1, dst.Y+0.5*dst.H)
	centerSrc := MakeAffine(1, 0, -(src.X + 0.5*src.W), 0, 1, -(src.Y + 0.5*src.H))
	t := centerDst.Mul(ScaleTranslate(scale, 0, 0)).Mul(centerSrc)
	return scale, Point{t.C, t.F}, nil
}
