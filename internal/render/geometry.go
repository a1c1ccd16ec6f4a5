package render

import (
	"fmt"
	"image/color"

	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/fov"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/palette"
)

// GeometryOptions controls how marker geometry is tessellated.
type GeometryOptions struct {
	// Scale is the current view scale. Glyphs keep a constant on-screen
	// size, so their document-space size depends on it.
	Scale float64
	// MarkerRadius is the on-screen glyph radius in pixels.
	MarkerRadius float64
	// ConeSegments is the number of arc segments per cone.
	ConeSegments int
}

const (
	outlineFactor  = 1.3 // outline glyph radius relative to the fill
	circleSegments = 16
)

var (
	pageFill = color.RGBA{R: 250, G: 250, B: 247, A: 255}
	pageEdge = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// LayerGeometry returns the triangle vertices for one layer's markers:
// every camera cone first, then every glyph, so glyphs draw on top.
func LayerGeometry(layer string, markers []*marker.Marker, selected uuid.UUID, opts GeometryOptions) ([]float32, error) {
	if !(opts.Scale > 0) {
		return nil, fmt.Errorf("invalid scale %v", opts.Scale)
	}
	base := palette.ForLayer(layer)
	styleFor := func(m *marker.Marker) palette.Style {
		if m.ID == selected {
			return palette.Highlighted(base)
		}
		return base
	}

	var vertices []float32
	for _, m := range markers {
		if !m.HasCone() {
			continue
		}
		tris, err := m.Cone().Triangles(opts.ConeSegments)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", m.ID, err)
		}
		vertices = appendTriangles(vertices, tris, styleFor(m).Cone)
	}

	r := opts.MarkerRadius / opts.Scale
	for _, m := range markers {
		s := styleFor(m)
		for _, g := range []struct {
			radius float64
			c      color.RGBA
		}{{r * outlineFactor, s.Stroke}, {r, s.Fill}} {
			tris, err := fov.Triangulate(glyphPolygon(m.Kind, m.Position(), g.radius))
			if err != nil {
				return nil, fmt.Errorf("marker %s: %w", m.ID, err)
			}
			vertices = appendTriangles(vertices, tris, g.c)
		}
	}
	return vertices, nil
}

// PageGeometry returns a filled page rectangle with a one-pixel edge.
func PageGeometry(page geom.Box, scale float64) []float32 {
	if page.Empty() || !(scale > 0) {
		return nil
	}
	px := 1 / scale
	edge := geom.MakeBox(page.X-px, page.Y-px, page.W+2*px, page.H+2*px)
	vertices := appendTriangles(nil, boxTriangles(edge), pageEdge)
	return appendTriangles(vertices, boxTriangles(page), pageFill)
}

// glyphPolygon returns the outline of a marker glyph of the given radius.
func glyphPolygon(kind marker.Kind, c geom.Point, r float64) []geom.Point {
	switch kind {
	case marker.KindAccessPoint:
		return []geom.Point{{X: c.X, Y: c.Y - r}, {X: c.X + r, Y: c.Y}, {X: c.X, Y: c.Y + r}, {X: c.X - r, Y: c.Y}}
	case marker.KindElevator:
		return []geom.Point{{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}, {X: c.X - r, Y: c.Y + r}}
	case marker.KindIntercom:
		return []geom.Point{{X: c.X, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}, {X: c.X - r, Y: c.Y + r}}
	default:
		return fov.Cone{Center: c, Range: r, FOV: 360}.Polygon(circleSegments)
	}
}

func boxTriangles(b geom.Box) [][3]geom.Point {
	p0 := geom.MakePoint(b.X, b.Y)
	p1 := geom.MakePoint(b.X+b.W, b.Y)
	p2 := geom.MakePoint(b.X+b.W, b.Y+b.H)
	p3 := geom.MakePoint(b.X, b.Y+b.H)
	return [][3]geom.Point{{p0, p1, p2}, {p0, p2, p3}}
}

// appendTriangles appends triangles in the x, y, r, g, b, a vertex layout.
func appendTriangles(vertices []float32, tris [][3]geom.Point, c color.RGBA) []float32 {
	rgba := palette.Float32(c)
	for _, tri := range tris {
		for v := 0; v < 3; v++ {
			vertices = append(vertices,
				float32(tri[v].X), float32(tri[v].Y), // position
				rgba[0], rgba[1], rgba[2], rgba[3], // color
			)
		}
	}
	return vertices
}
