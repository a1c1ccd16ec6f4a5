package overlay

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/measure"
)

var (
	camID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	apID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	elID  = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func ptr[T any](v T) *T { return &v }

func testSystem(scale, tx, ty float64) coords.System {
	return coords.New(coords.WithContainer(coords.Static(geom.MakeBox(0, 0, 800, 600)))).
		Update(coords.Patch{
			Scale:      &scale,
			TranslateX: &tx,
			TranslateY: &ty,
			Viewport:   &coords.Viewport{Width: 800, Height: 600},
		})
}

func testSet(t *testing.T) *marker.Set {
	t.Helper()
	s, err := marker.NewSet(
		marker.Marker{ID: camID, Kind: marker.KindCamera, Label: "Lobby & Gate", PositionX: 100, PositionY: 100,
			FOV: ptr(90.0), Range: ptr(50.0), Rotation: ptr(45.0)},
		marker.Marker{ID: apID, Kind: marker.KindAccessPoint, PositionX: 300, PositionY: 200},
		marker.Marker{ID: elID, Kind: marker.KindElevator, PositionX: 10, PositionY: 10, Layer: "core"},
	)
	require.NoError(t, err)
	return s
}

func write(t *testing.T, sys coords.System, set *marker.Set, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sys, set, opts))
	return buf.String()
}

// wellFormed decodes the whole document, failing on malformed XML.
func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestWriteStructure(t *testing.T) {
	out := write(t, testSystem(2, 10, 20), testSet(t), Options{PageImage: "floor.png", PageSize: geom.MakePoint(1200, 900)})
	wellFormed(t, out)

	assert.Contains(t, out, `<g transform="translate(10,20) scale(2)">`)
	assert.Contains(t, out, `xlink:href="floor.png"`)
	for _, layer := range []string{"access_point", "camera", "core"} {
		assert.Contains(t, out, `<g id="layer-`+layer+`">`)
	}
	// Layers are written in sorted order.
	assert.Less(t, strings.Index(out, "layer-access_point"), strings.Index(out, "layer-camera"))
	assert.Less(t, strings.Index(out, "layer-camera"), strings.Index(out, "layer-core"))

	// The camera gets a cone and a range indicator, then its glyph.
	assert.Contains(t, out, `<path d="M 100,100 L `)
	assert.Contains(t, out, `data-marker-id="`+camID.String()+`"`)
	assert.Contains(t, out, "stroke-dasharray")
	assert.Contains(t, out, "<circle")
	assert.Contains(t, out, "<polygon")
	assert.Contains(t, out, "<rect")
	assert.Contains(t, out, "Lobby &amp; Gate")
	assert.NotContains(t, out, `id="handles"`)
}

func TestWriteSelectedAndHidden(t *testing.T) {
	set := testSet(t)
	set.SetLayerVisible("core", false)

	out := write(t, testSystem(1, 0, 0), set, Options{Selected: camID})
	wellFormed(t, out)
	assert.NotContains(t, out, "layer-core")
	assert.Contains(t, out, `<g id="handles">`)
	assert.Equal(t, 3, strings.Count(out, `fill:#ffffff`))
}

func TestWriteMeasurements(t *testing.T) {
	cal := &measure.Calibration{From: geom.MakePoint(0, 0), To: geom.MakePoint(10, 0), Distance: 1, Unit: "m"}
	out := write(t, testSystem(1, 0, 0), testSet(t), Options{
		Calibration:  cal,
		Measurements: []measure.Measurement{{From: geom.MakePoint(0, 0), To: geom.MakePoint(125, 0)}},
	})
	wellFormed(t, out)
	assert.Contains(t, out, `<g id="measurements">`)
	assert.Contains(t, out, ">12.5 m</text>")

	// Without a calibration the line is drawn but not labelled.
	out = write(t, testSystem(1, 0, 0), testSet(t), Options{
		Measurements: []measure.Measurement{{From: geom.MakePoint(0, 0), To: geom.MakePoint(125, 0)}},
	})
	assert.Contains(t, out, `<g id="measurements">`)
	assert.NotContains(t, out, " m</text>")
}

func TestWriteConstantScreenSize(t *testing.T) {
	// Glyph radius is in screen pixels, so at scale 4 it's a quarter of the
	// document-space size.
	set, err := marker.NewSet(marker.Marker{ID: camID, Kind: marker.KindCamera, PositionX: 1, PositionY: 1, FOV: ptr(0.0)})
	require.NoError(t, err)
	out := write(t, testSystem(4, 0, 0), set, Options{MarkerRadius: 8})
	assert.Contains(t, out, `r="2`)
	assert.NotContains(t, out, "<path") // zero FOV draws no cone
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteErrors(t *testing.T) {
	err := Write(failingWriter{}, testSystem(1, 0, 0), testSet(t), Options{})
	assert.ErrorContains(t, err, "disk full")

	err = Write(io.Discard, coords.New(), testSet(t), Options{})
	assert.ErrorContains(t, err, "viewport has no area")
}
