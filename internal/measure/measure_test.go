package measure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/sitewalk/internal/geom"
)

func TestCalibration(t *testing.T) {
	cal := Calibration{From: geom.MakePoint(0, 0), To: geom.MakePoint(30, 40), Distance: 10, Unit: "ft"}
	k, err := cal.UnitsPerDocUnit()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, k, 1e-12)

	for _, bad := range []Calibration{
		{From: geom.MakePoint(1, 1), To: geom.MakePoint(1, 1), Distance: 3},
		{To: geom.MakePoint(1, 0), Distance: 0},
		{To: geom.MakePoint(1, 0), Distance: -2},
	} {
		_, err := bad.UnitsPerDocUnit()
		assert.True(t, errors.Is(err, ErrDegenerateCalibration), "%+v: %v", bad, err)
	}
}

func TestMeasurement(t *testing.T) {
	cal := Calibration{From: geom.MakePoint(0, 0), To: geom.MakePoint(100, 0), Distance: 25, Unit: "ft"}
	m := Measurement{From: geom.MakePoint(10, 10), To: geom.MakePoint(10, 60)}

	l, err := m.Length(cal)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, l, 1e-12)

	label, err := m.Label(cal)
	require.NoError(t, err)
	assert.Equal(t, "12.5 ft", label)

	assert.Equal(t, geom.MakePoint(10, 35), m.LabelPosition())
	assert.InDelta(t, 90, m.Angle(), 1e-12)

	_, err = m.Label(Calibration{})
	assert.Error(t, err)
}

func TestMeasurementPath(t *testing.T) {
	m := Measurement{From: geom.MakePoint(0, 0), To: geom.MakePoint(10, 0)}
	assert.Equal(t, "M 0,0 L 10,0", m.Path(0))
	assert.Equal(t, "M 0,0 L 10,0 M 0,2 L 0,-2 M 10,2 L 10,-2", m.Path(4))
	assert.Equal(t, "", Measurement{}.Path(4))
}
