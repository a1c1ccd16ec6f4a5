package marker

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/sitewalk/internal/fov"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/measure"
)

func ptr[T any](v T) *T { return &v }

var (
	idA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	idC = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)

func testSet(t *testing.T) *Set {
	t.Helper()
	s, err := NewSet(
		Marker{ID: idA, Kind: KindCamera, Label: "Lobby", PositionX: 100, PositionY: 100,
			FOV: ptr(90.0), Range: ptr(50.0), Rotation: ptr(0.0)},
		Marker{ID: idB, Kind: KindAccessPoint, Label: "AP-1", PositionX: 200, PositionY: 100},
		Marker{ID: idC, Kind: KindIntercom, Label: "Gate", PositionX: 110, PositionY: 100, Layer: "exterior"},
	)
	require.NoError(t, err)
	return s
}

func ids(markers []*Marker) []uuid.UUID {
	var out []uuid.UUID
	for _, m := range markers {
		out = append(out, m.ID)
	}
	return out
}

func TestValidate(t *testing.T) {
	_, err := NewSet(Marker{Kind: KindCamera})
	assert.Error(t, err)
	_, err = NewSet(Marker{ID: idA, Kind: "drone"})
	assert.Error(t, err)
	_, err = NewSet(Marker{ID: idA, Kind: KindCamera, FOV: ptr(math.Inf(1))})
	assert.Error(t, err)
	_, err = NewSet(Marker{ID: idA, Kind: KindCamera}, Marker{ID: idA, Kind: KindCamera})
	assert.Error(t, err)
}

func TestAllAndLayers(t *testing.T) {
	s := testSet(t)
	assert.Equal(t, 3, s.Len())
	// access_point < camera < exterior
	assert.Equal(t, []uuid.UUID{idB, idA, idC}, ids(s.All()))
	assert.Equal(t, []string{"access_point", "camera", "exterior"}, s.Layers())

	assert.Equal(t, 1, s.SetLayerVisible("exterior", false))
	assert.Equal(t, 0, s.SetLayerVisible("exterior", false))
	assert.Equal(t, []uuid.UUID{idB, idA}, ids(s.Visible()))
}

func TestFindClosestAndHitTest(t *testing.T) {
	s := testSet(t)
	assert.Equal(t, []uuid.UUID{idC, idA, idB}, ids(s.FindClosest(geom.MakePoint(112, 100))))

	m, ok := s.HitTest(geom.MakePoint(103, 104), 6)
	require.True(t, ok)
	assert.Equal(t, idA, m.ID)

	_, ok = s.HitTest(geom.MakePoint(150, 150), 6)
	assert.False(t, ok)

	// Hidden markers can't be hit.
	s.SetLayerVisible("exterior", false)
	m, ok = s.HitTest(geom.MakePoint(110, 100), 12)
	require.True(t, ok)
	assert.Equal(t, idA, m.ID)
}

func TestMove(t *testing.T) {
	s := testSet(t)
	require.NoError(t, s.Move(idA, geom.MakePoint(33.333, 66.667)))
	m, _ := s.Get(idA)
	assert.Equal(t, 33.333, m.PositionX)
	assert.Equal(t, 66.667, m.PositionY)

	assert.Error(t, s.Move(uuid.New(), geom.MakePoint(0, 0)))
	assert.Error(t, s.Move(idA, geom.MakePoint(math.Inf(1), 0)))
}

func TestCone(t *testing.T) {
	s := testSet(t)
	cam, _ := s.Get(idA)
	assert.Equal(t, fov.Cone{Center: geom.MakePoint(100, 100), Range: 50, FOV: 90}, cam.Cone())

	cam.FOV = ptr(400.0)
	assert.Equal(t, 360.0, cam.Cone().FOV)

	// Unset coverage falls back to defaults.
	ap, _ := s.Get(idB)
	assert.False(t, ap.HasCone())
	assert.Equal(t, fov.Cone{Center: geom.MakePoint(200, 100), Range: DefaultRange, FOV: DefaultFOV}, ap.Cone())
}

func TestCoveredBy(t *testing.T) {
	s := testSet(t)
	assert.Equal(t, []uuid.UUID{idA}, ids(s.CoveredBy(geom.MakePoint(140, 100))))
	assert.Empty(t, s.CoveredBy(geom.MakePoint(60, 100))) // behind the camera
	assert.Empty(t, s.CoveredBy(geom.MakePoint(160, 100))) // out of range
}

func TestIter(t *testing.T) {
	s := testSet(t)
	assert.Equal(t, idB, s.Iter(true).ID)
	assert.Equal(t, idA, s.Iter(true).ID)
	assert.Equal(t, idC, s.Iter(true).ID)
	assert.Equal(t, idB, s.Iter(true).ID)
	assert.Equal(t, idC, s.Iter(false).ID)

	m, _ := s.Get(idA)
	s.SetCurrent(m)
	assert.Equal(t, idB, s.Iter(false).ID)

	empty, err := NewSet()
	require.NoError(t, err)
	assert.Nil(t, empty.Iter(true))
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markers.json")

	s := testSet(t)
	require.NoError(t, s.Move(idB, geom.MakePoint(12.5, 7.25)))
	meta := &File{
		Floorplan:    "floor1.png",
		Calibration:  &measure.Calibration{From: geom.MakePoint(0, 0), To: geom.MakePoint(30, 0), Distance: 3, Unit: "ft"},
		Measurements: []measure.Measurement{{From: geom.MakePoint(0, 0), To: geom.MakePoint(0, 125)}},
	}
	require.NoError(t, s.Save(path, meta))

	loaded, f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "floor1.png", f.Floorplan)
	assert.Equal(t, meta.Calibration, f.Calibration)
	assert.Equal(t, meta.Measurements, f.Measurements)
	assert.Len(t, f.Markers, 3)
	assert.Empty(t, meta.Markers)
	assert.Equal(t, ids(s.All()), ids(loaded.All()))
	ap, _ := loaded.Get(idB)
	assert.Equal(t, geom.MakePoint(12.5, 7.25), ap.Position())
	cam, _ := loaded.Get(idA)
	assert.Equal(t, 90.0, *cam.FOV)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "markers.yaml"))
	assert.ErrorContains(t, err, ".json extension")

	_, _, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"markers": [`), 0o644))
	_, _, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"markers": [{"id": "`+idA.String()+`", "marker_type": "drone"}]}`), 0o644))
	_, _, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid marker file")
}
