// Package pagespace maps between PDF user space and the document space used
// by floorplan markers.
//
// Document space is the rendered page image: pixels at the page's render
// resolution, origin at the top-left, y pointing down, with the page's
// /Rotate already applied. PDF user space has its origin at the bottom-left
// of the media box with y pointing up, in points (1/72 inch).
package pagespace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/irfansharif/sitewalk/internal/geom"
)

// PointsPerInch is the PDF user space unit.
const PointsPerInch = 72.0

var (
	ErrEmptyMediaBox   = errors.New("pagespace: empty media box")
	ErrInvalidRotation = errors.New("pagespace: rotation must be a multiple of 90")
	ErrInvalidDPI      = errors.New("pagespace: render resolution must be positive")
)

// Page describes how a PDF page was rendered into the floorplan image.
type Page struct {
	MediaBox rect.Rect
	Rotate   int     // the page's /Rotate, clockwise degrees
	DPI      float64 // render resolution
}

// Mapping converts between PDF user space and document space for one page.
type Mapping struct {
	toDoc   matrix.Matrix
	toPDF   matrix.Matrix
	imgSize geom.Point
}

// NewMapping validates the page and precomputes both directions.
func NewMapping(p Page) (*Mapping, error) {
	w := p.MediaBox.URx - p.MediaBox.LLx
	h := p.MediaBox.URy - p.MediaBox.LLy
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmptyMediaBox, p.MediaBox)
	}
	if !(p.DPI > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDPI, p.DPI)
	}
	rot := ((p.Rotate % 360) + 360) % 360
	if rot%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, p.Rotate)
	}

	s := p.DPI / PointsPerInch
	box := p.MediaBox
	var m matrix.Matrix
	var size geom.Point
	switch rot {
	case 0:
		m = matrix.Matrix{s, 0, 0, -s, -box.LLx * s, box.URy * s}
		size = geom.MakePoint(w*s, h*s)
	case 90:
		m = matrix.Matrix{0, s, s, 0, -box.LLy * s, -box.LLx * s}
		size = geom.MakePoint(h*s, w*s)
	case 180:
		m = matrix.Matrix{-s, 0, 0, s, box.URx * s, -box.LLy * s}
		size = geom.MakePoint(w*s, h*s)
	case 270:
		m = matrix.Matrix{0, -s, -s, 0, box.URy * s, box.URx * s}
		size = geom.MakePoint(h*s, w*s)
	}
	return &Mapping{toDoc: m, toPDF: m.Inv(), imgSize: size}, nil
}

// ImageSize returns the rendered page size in document units (pixels).
func (m *Mapping) ImageSize() geom.Point { return m.imgSize }

// Bounds returns the page as a document-space box.
func (m *Mapping) Bounds() geom.Box { return geom.MakeBox(0, 0, m.imgSize.X, m.imgSize.Y) }

// ToDocument converts a PDF user space point to document space.
func (m *Mapping) ToDocument(p vec.Vec2) geom.Point {
	x, y := m.toDoc.Apply(p.X, p.Y)
	return geom.MakePoint(x, y)
}

// ToPDF converts a document space point to PDF user space.
func (m *Mapping) ToPDF(p geom.Point) vec.Vec2 {
	x, y := m.toPDF.Apply(p.X, p.Y)
	return vec.Vec2{X: x, Y: y}
}

// Matrix returns the PDF-to-document matrix.
func (m *Mapping) Matrix() matrix.Matrix { return m.toDoc }

// ParseMediaBox parses a media box written as "llx,lly,urx,ury", the order
// of a PDF /MediaBox array.
func ParseMediaBox(s string) (rect.Rect, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return rect.Rect{}, fmt.Errorf("media box %q: want 4 comma-separated numbers, got %d", s, len(fields))
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return rect.Rect{}, fmt.Errorf("media box %q: %w", s, err)
		}
		v[i] = n
	}
	return rect.Rect{LLx: v[0], LLy: v[1], URx: v[2], URy: v[3]}, nil
}
