// Package palette assigns colors to marker layers. Colors are derived in HSV
// space and are stable for a given layer name across runs.
package palette

import (
	"hash/fnv"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Style is the set of colors used to draw one layer.
type Style struct {
	Fill   color.RGBA // marker glyph
	Stroke color.RGBA // glyph outline, cone edge, range indicator
	Cone   color.RGBA // translucent cone fill
}

// Hues, in degrees, for the built-in layers. Other layers hash their name.
var baseHues = map[string]float64{
	"access_point": 210,
	"camera":       0,
	"elevator":     275,
	"intercom":     135,
}

const coneAlpha = 64

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hsv(h, s, v float64, alpha uint8) color.RGBA {
	c := colorful.Hsv(h, clamp(s, 0, 1), clamp(v, 0, 1))
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}
}

// Hue returns the hue (degrees) used for the named layer.
func Hue(layer string) float64 {
	if h, ok := baseHues[layer]; ok {
		return h
	}
	f := fnv.New32a()
	_, _ = f.Write([]byte(layer))
	return float64(f.Sum32() % 360)
}

// ForLayer returns the style for the named layer.
func ForLayer(layer string) Style {
	h := Hue(layer)
	return Style{
		Fill:   hsv(h, 0.75, 0.85, 255),
		Stroke: hsv(h, 0.9, 0.45, 255),
		Cone:   hsv(h, 0.6, 0.95, coneAlpha),
	}
}

// Highlighted brightens a style for the selected or dragged marker.
func Highlighted(s Style) Style {
	brighten := func(c color.RGBA, dv, ds float64) color.RGBA {
		h, sat, v := toColorful(c).Hsv()
		return hsv(h, sat+ds, v+dv, c.A)
	}
	return Style{
		Fill:   brighten(s.Fill, 0.15, -0.1),
		Stroke: brighten(s.Stroke, 0.3, 0),
		Cone:   color.RGBA{R: s.Cone.R, G: s.Cone.G, B: s.Cone.B, A: clampAlpha(int(s.Cone.A) * 2)},
	}
}

func clampAlpha(a int) uint8 {
	if a > 255 {
		return 255
	}
	return uint8(a)
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Hex returns the color as "#rrggbb", dropping alpha.
func Hex(c color.RGBA) string { return toColorful(c).Hex() }

// Opacity returns the alpha channel in [0, 1].
func Opacity(c color.RGBA) float64 { return float64(c.A) / 255 }

// Float32 returns the color as normalized RGBA components.
func Float32(c color.RGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
