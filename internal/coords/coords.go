// Package coords converts between the three coordinate spaces of a
// floorplan view:
//   - screen (client) space: pointer positions relative to the window
//   - container space: screen space relative to the viewing container's origin
//   - document space: positions on the underlying page image, which is what
//     marker records store
//
// The mapping from document to container space is the affine transform
//
//	container = document*scale + translate
//
// A System is an immutable value. Every update returns a new System, so a
// conversion can never observe a half-applied gesture.
package coords

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/precision"
)

// ErrNoContainer is returned (or signalled through a false ok result) when a
// conversion needs the container origin but no container is bound yet.
var ErrNoContainer = errors.New("coords: no container bound")

// Container supplies the current screen-space bounds of the viewing
// container. In the viewer it is backed by the window's framebuffer; tests
// and headless callers use a Static box.
type Container interface {
	Bounds() geom.Box
}

// Static is a Container with fixed bounds.
type Static geom.Box

// Bounds implements Container.
func (s Static) Bounds() geom.Box { return geom.Box(s) }

// Transform is the document-to-container mapping. Scale is always > 0.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// IdentityTransform is the initial transform of every System.
var IdentityTransform = Transform{Scale: 1}

// Viewport is the rendered size of the viewing container in screen pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// System is a snapshot of the view transform plus what is needed to
// interpret raw pointer coordinates.
type System struct {
	container    Container
	transform    Transform
	viewport     Viewport
	maxPrecision int
	updatedAt    time.Time
	clock        func() time.Time
}

// Option configures a new System.
type Option func(*System)

// WithContainer binds the container used for screen-space conversions.
func WithContainer(c Container) Option { return func(s *System) { s.container = c } }

// WithMaxPrecision caps the decimal places kept by document conversions.
func WithMaxPrecision(n int) Option { return func(s *System) { s.maxPrecision = n } }

// WithClock overrides the clock used to stamp updates.
func WithClock(clock func() time.Time) Option { return func(s *System) { s.clock = clock } }

// New returns a System with the identity transform.
func New(opts ...Option) System {
	s := System{
		transform:    IdentityTransform,
		maxPrecision: precision.DefaultMaxPrecision,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.updatedAt = s.clock()
	return s
}

// Patch holds the fields an Update may change. Nil fields are left alone.
type Patch struct {
	Container  Container
	Scale      *float64
	TranslateX *float64
	TranslateY *float64
	Viewport   *Viewport
}

// Update returns a copy of s with the patch merged in, stamped with the
// current time. Scales that aren't finite and positive are ignored, as are
// non-finite translations.
func (s System) Update(p Patch) System {
	if p.Container != nil {
		s.container = p.Container
	}
	if p.Scale != nil && validScale(*p.Scale) {
		s.transform.Scale = *p.Scale
	}
	if p.TranslateX != nil && finite(*p.TranslateX) {
		s.transform.TranslateX = *p.TranslateX
	}
	if p.TranslateY != nil && finite(*p.TranslateY) {
		s.transform.TranslateY = *p.TranslateY
	}
	if p.Viewport != nil {
		s.viewport = *p.Viewport
	}
	s.updatedAt = s.now()
	return s
}

// WithTransform returns a copy of s using t. It's shorthand for an Update
// that sets all three transform fields.
func (s System) WithTransform(t Transform) System {
	return s.Update(Patch{Scale: &t.Scale, TranslateX: &t.TranslateX, TranslateY: &t.TranslateY})
}

// Unbind returns a copy of s with no container.
func (s System) Unbind() System {
	s.container = nil
	s.updatedAt = s.now()
	return s
}

// Bound reports whether a container is bound.
func (s System) Bound() bool { return s.container != nil }

// UpdatedAt returns when s was last updated. Callers use it to coalesce rapid
// successive updates; the System itself never throttles.
func (s System) UpdatedAt() time.Time { return s.updatedAt }

func (s System) Scale() float64 { return s.transform.Scale }

func (s System) Translation() geom.Point {
	return geom.Point{X: s.transform.TranslateX, Y: s.transform.TranslateY}
}

func (s System) Transform() Transform { return s.transform }

func (s System) ViewportDimensions() Viewport { return s.viewport }

func (s System) MaxPrecision() int { return s.maxPrecision }

// Affine returns the document-to-container transform.
func (s System) Affine() geom.Affine {
	t := s.transform
	return geom.ScaleTranslate(t.Scale, t.TranslateX, t.TranslateY)
}

// ContainerOrigin returns the screen position of the container's top-left
// corner.
func (s System) ContainerOrigin() (geom.Point, bool) {
	if s.container == nil {
		return geom.Point{}, false
	}
	return s.container.Bounds().Min(), true
}

// ScreenToDocument converts a screen (client) position to document space,
// rounded per the precision policy. ok is false when no container is bound;
// the zero Point returned then is not a real document coordinate.
func (s System) ScreenToDocument(screenX, screenY float64) (p geom.Point, ok bool) {
	doc, ok := s.screenToDocumentExact(screenX, screenY)
	if !ok {
		return geom.Point{}, false
	}
	return precision.RoundPoint(doc, s.transform.Scale, s.maxPrecision), true
}

// ContainerToDocument converts a container-relative position (for example a
// pointer offset within the view) to document space, rounded per the
// precision policy.
func (s System) ContainerToDocument(containerX, containerY float64) (p geom.Point, ok bool) {
	if s.container == nil {
		return geom.Point{}, false
	}
	doc := s.containerToDocumentExact(containerX, containerY)
	return precision.RoundPoint(doc, s.transform.Scale, s.maxPrecision), true
}

// DocumentToScreen applies the forward transform. The result is only used
// for rendering, so no rounding is applied.
func (s System) DocumentToScreen(docX, docY float64) geom.Point {
	t := s.transform
	return geom.Point{
		X: docX*t.Scale + t.TranslateX,
		Y: docY*t.Scale + t.TranslateY,
	}
}

// DocumentToClient is DocumentToScreen followed by the container offset, for
// comparing against raw pointer positions.
func (s System) DocumentToClient(docX, docY float64) (geom.Point, bool) {
	origin, ok := s.ContainerOrigin()
	if !ok {
		return geom.Point{}, false
	}
	return s.DocumentToScreen(docX, docY).Add(origin), true
}

// TransformString renders the transform for a rendering layer, as in
// "translate(10px, 20px) scale(1.5)".
func (s System) TransformString() string {
	t := s.transform
	return fmt.Sprintf("translate(%spx, %spx) scale(%s)",
		formatFloat(t.TranslateX), formatFloat(t.TranslateY), formatFloat(t.Scale))
}

// SVGTransform renders the transform as an SVG transform attribute value.
func (s System) SVGTransform() string {
	t := s.transform
	return fmt.Sprintf("translate(%s,%s) scale(%s)",
		formatFloat(t.TranslateX), formatFloat(t.TranslateY), formatFloat(t.Scale))
}

// ZoomTransform returns the transform that changes the scale to newScale
// while keeping the document point under the focal screen position fixed.
//
//	newTranslate = containerFocal - docFocal*newScale
func (s System) ZoomTransform(newScale, focalScreenX, focalScreenY float64) (Transform, bool) {
	if !validScale(newScale) {
		return s.transform, false
	}
	origin, ok := s.ContainerOrigin()
	if !ok {
		return s.transform, false
	}
	docFocal, _ := s.screenToDocumentExact(focalScreenX, focalScreenY)
	containerFocalX := focalScreenX - origin.X
	containerFocalY := focalScreenY - origin.Y
	return Transform{
		Scale:      newScale,
		TranslateX: containerFocalX - docFocal.X*newScale,
		TranslateY: containerFocalY - docFocal.Y*newScale,
	}, true
}

func (s System) screenToDocumentExact(screenX, screenY float64) (geom.Point, bool) {
	origin, ok := s.ContainerOrigin()
	if !ok {
		return geom.Point{}, false
	}
	return s.containerToDocumentExact(screenX-origin.X, screenY-origin.Y), true
}

func (s System) containerToDocumentExact(containerX, containerY float64) geom.Point {
	t := s.transform
	return geom.Point{
		X: (containerX - t.TranslateX) / t.Scale,
		Y: (containerY - t.TranslateY) / t.Scale,
	}
}

func (s System) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}

func validScale(v float64) bool { return v > 0 && finite(v) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
