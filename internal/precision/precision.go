// Package precision implements the rounding rule applied to every
// screen-to-document conversion whose result may be persisted.
//
// The number of decimal places grows with the zoom scale: when zoomed far
// out, sub-unit digits carry no visual meaning; when zoomed far in, a single
// screen pixel must still move the document position by a non-zero amount.
package precision

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/irfansharif/sitewalk/internal/geom"
)

const (
	// DefaultMaxPrecision caps the decimal places when callers don't supply
	// their own limit.
	DefaultMaxPrecision = 6

	zoomedOutScale    = 0.1 // below this, one decimal place
	zoomedInScale     = 500 // above this, five decimal places
	zoomedOutDecimals = 1
	zoomedInDecimals  = 5
	minDecimals       = 2
)

// DecimalPlaces returns the number of decimal places to keep for a document
// coordinate computed at the given scale (screen pixels per document unit).
// A maxPrecision <= 0 selects DefaultMaxPrecision.
func DecimalPlaces(scale float64, maxPrecision int) int {
	if maxPrecision <= 0 {
		maxPrecision = DefaultMaxPrecision
	}

	var places int
	switch {
	case scale < zoomedOutScale:
		places = zoomedOutDecimals
	case scale > zoomedInScale:
		places = zoomedInDecimals
	default:
		places = int(math.Ceil(math.Log10(scale))) + 2
		if places < minDecimals {
			places = minDecimals
		}
	}
	if places > maxPrecision {
		places = maxPrecision
	}
	return places
}

// Round rounds v (half away from zero) to the decimal places selected for
// the given scale.
func Round(v, scale float64, maxPrecision int) float64 {
	return scalar.Round(v, DecimalPlaces(scale, maxPrecision))
}

// RoundPoint applies Round to both coordinates of p.
func RoundPoint(p geom.Point, scale float64, maxPrecision int) geom.Point {
	places := DecimalPlaces(scale, maxPrecision)
	return geom.Point{
		X: scalar.Round(p.X, places),
		Y: scalar.Round(p.Y, places),
	}
}

// Tolerance returns the largest rounding error RoundPoint may introduce per
// coordinate at the given scale.
func Tolerance(scale float64, maxPrecision int) float64 {
	return 0.5 * math.Pow10(-DecimalPlaces(scale, maxPrecision))
}
