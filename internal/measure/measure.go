// Package measure computes measurement overlays on a floorplan: real-world
// distances derived from a calibration line, and the SVG geometry used to
// draw a dimension line with end ticks and a label.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/irfansharif/sitewalk/internal/geom"
)

// ErrDegenerateCalibration is returned when a calibration can't define a
// scale: its endpoints coincide, or its distance isn't positive.
var ErrDegenerateCalibration = errors.New("measure: degenerate calibration")

// Calibration relates a line drawn on the document to its known real-world
// length, e.g. a door known to be 3 ft wide.
type Calibration struct {
	From     geom.Point `json:"from"`
	To       geom.Point `json:"to"`
	Distance float64    `json:"distance"`
	Unit     string     `json:"unit"`
}

// UnitsPerDocUnit returns how many real-world units one document unit spans.
func (c Calibration) UnitsPerDocUnit() (float64, error) {
	docLen := geom.Dist(c.From, c.To)
	if docLen == 0 || !(c.Distance > 0) || math.IsInf(c.Distance, 0) {
		return 0, fmt.Errorf("%w: %v document units for %v %s", ErrDegenerateCalibration, docLen, c.Distance, c.Unit)
	}
	return c.Distance / docLen, nil
}

// Measurement is a dimension line between two document points.
type Measurement struct {
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// DocLength returns the measurement's length in document units.
func (m Measurement) DocLength() float64 { return geom.Dist(m.From, m.To) }

// Length returns the measurement's real-world length under cal.
func (m Measurement) Length(cal Calibration) (float64, error) {
	k, err := cal.UnitsPerDocUnit()
	if err != nil {
		return 0, err
	}
	return m.DocLength() * k, nil
}

// Label formats the real-world length with one decimal, as in "12.5 ft".
func (m Measurement) Label(cal Calibration) (string, error) {
	l, err := m.Length(cal)
	if err != nil {
		return "", err
	}
	label := strconv.FormatFloat(l, 'f', 1, 64)
	if cal.Unit != "" {
		label += " " + cal.Unit
	}
	return label, nil
}

// LabelPosition returns where the label is anchored: the midpoint.
func (m Measurement) LabelPosition() geom.Point {
	return m.From.Add(m.To).Scale(0.5)
}

// Angle returns the direction of the measurement in degrees.
func (m Measurement) Angle() float64 {
	return math.Atan2(m.To.Y-m.From.Y, m.To.X-m.From.X) * 180 / math.Pi
}

// Path returns the SVG path of the dimension line plus perpendicular ticks
// of length tickLen centered on each endpoint. A zero-length measurement
// draws nothing.
func (m Measurement) Path(tickLen float64) string {
	length := m.DocLength()
	if length == 0 {
		return ""
	}
	path := fmt.Sprintf("M %s L %s", coord(m.From), coord(m.To))
	if tickLen <= 0 {
		return path
	}

	// Unit normal to the line, scaled to half a tick.
	n := geom.MakePoint(-(m.To.Y-m.From.Y)/length, (m.To.X-m.From.X)/length).Scale(tickLen / 2)
	for _, end := range []geom.Point{m.From, m.To} {
		path += fmt.Sprintf(" M %s L %s", coord(end.Add(n)), coord(end.Sub(n)))
	}
	return path
}

func coord(p geom.Point) string {
	return num(p.X) + "," + num(p.Y)
}

func num(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
