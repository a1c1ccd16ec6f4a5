package render

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/memory"
)

func ptr[T any](v T) *T { return &v }

// applyMatrix4 applies a column-major 4x4 matrix to (x, y, 0, 1).
func applyMatrix4(m [16]float32, x, y float64) (float64, float64) {
	return float64(m[0])*x + float64(m[4])*y + float64(m[12]),
		float64(m[1])*x + float64(m[5])*y + float64(m[13])
}

func TestComputeTransformMatrix(t *testing.T) {
	sys := coords.New(coords.WithContainer(coords.Static(geom.MakeBox(0, 0, 800, 600)))).
		Update(coords.Patch{
			Scale:      ptr(2.0),
			TranslateX: ptr(100.0),
			TranslateY: ptr(50.0),
			Viewport:   &coords.Viewport{Width: 800, Height: 600},
		})
	m := computeTransformMatrix(sys)

	// Document origin lands at container (100, 50).
	x, y := applyMatrix4(m, 0, 0)
	assert.InDelta(t, -0.75, x, 1e-6)
	assert.InDelta(t, 1-100.0/600, y, 1e-6)

	// Document (350, 275) lands at container (800, 600): bottom-right.
	x, y = applyMatrix4(m, 350, 275)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, -1, y, 1e-6)
}

func single(t *testing.T, m marker.Marker) []*marker.Marker {
	t.Helper()
	s, err := marker.NewSet(m)
	require.NoError(t, err)
	return s.All()
}

func vertexCount(vertices []float32) int { return len(vertices) / memory.FloatsPerVertex }

func TestLayerGeometryGlyphs(t *testing.T) {
	opts := GeometryOptions{Scale: 2, MarkerRadius: 6, ConeSegments: 8}
	tests := []struct {
		kind      marker.Kind
		triangles int // per glyph (outline and fill each)
	}{
		{marker.KindElevator, 2},
		{marker.KindAccessPoint, 2},
		{marker.KindIntercom, 1},
		{marker.KindCamera, circleSegments - 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := marker.Marker{ID: uuid.New(), Kind: tt.kind, PositionX: 10, PositionY: 10, FOV: ptr(0.0)}
			vertices, err := LayerGeometry(string(tt.kind), single(t, m), uuid.Nil, opts)
			require.NoError(t, err)
			assert.Equal(t, 2*tt.triangles*3, vertexCount(vertices))
		})
	}
}

func TestLayerGeometryScreenConstantSize(t *testing.T) {
	m := marker.Marker{ID: uuid.New(), Kind: marker.KindElevator, PositionX: 10, PositionY: 10}
	vertices, err := LayerGeometry("elevator", single(t, m), uuid.Nil, GeometryOptions{Scale: 2, MarkerRadius: 6})
	require.NoError(t, err)

	maxX := float32(0)
	for i := 0; i < len(vertices); i += memory.FloatsPerVertex {
		if vertices[i] > maxX {
			maxX = vertices[i]
		}
	}
	// 6px at scale 2 is 3 document units; the outline adds 30%.
	assert.InDelta(t, 10+3*outlineFactor, maxX, 1e-4)
}

func TestLayerGeometryCone(t *testing.T) {
	id := uuid.New()
	cam := marker.Marker{ID: id, Kind: marker.KindCamera, PositionX: 100, PositionY: 100,
		FOV: ptr(90.0), Range: ptr(50.0)}
	opts := GeometryOptions{Scale: 1, MarkerRadius: 6, ConeSegments: 8}

	vertices, err := LayerGeometry("camera", single(t, cam), uuid.Nil, opts)
	require.NoError(t, err)
	// 8 cone triangles, then 2 glyphs of 14 triangles.
	assert.Equal(t, (8+2*(circleSegments-2))*3, vertexCount(vertices))
	coneAlpha := vertices[5]
	assert.Less(t, coneAlpha, float32(1))

	// Selecting the camera makes its cone more opaque.
	selected, err := LayerGeometry("camera", single(t, cam), id, opts)
	require.NoError(t, err)
	assert.Len(t, selected, len(vertices))
	assert.Greater(t, selected[5], coneAlpha)

	_, err = LayerGeometry("camera", single(t, cam), uuid.Nil, GeometryOptions{})
	assert.Error(t, err)
}

func TestPageGeometry(t *testing.T) {
	vertices := PageGeometry(geom.MakeBox(0, 0, 100, 50), 1)
	assert.Equal(t, 12, vertexCount(vertices))
	// The edge sits one pixel outside the page.
	assert.Equal(t, float32(-1), vertices[0])
	assert.Equal(t, float32(-1), vertices[1])

	assert.Nil(t, PageGeometry(geom.Box{}, 1))
	assert.Nil(t, PageGeometry(geom.MakeBox(0, 0, 1, 1), 0))
}
