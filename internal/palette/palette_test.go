package palette

import (
	"image/color"
	"regexp"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForLayerStable(t *testing.T) {
	for _, layer := range []string{"camera", "access_point", "exterior", "floor 2"} {
		assert.Equal(t, ForLayer(layer), ForLayer(layer), layer)
	}
	assert.NotEqual(t, ForLayer("camera"), ForLayer("access_point"))
	assert.Equal(t, 0.0, Hue("camera"))

	h := Hue("exterior")
	assert.True(t, h >= 0 && h < 360)
}

func TestForLayerHue(t *testing.T) {
	s := ForLayer("access_point")
	h, _, _ := toColorful(s.Fill).Hsv()
	assert.InDelta(t, 210, h, 2)
	assert.Equal(t, uint8(255), s.Fill.A)
	assert.Equal(t, uint8(coneAlpha), s.Cone.A)
}

func TestHighlighted(t *testing.T) {
	s := ForLayer("camera")
	hi := Highlighted(s)

	_, _, v := toColorful(s.Stroke).Hsv()
	_, _, hv := toColorful(hi.Stroke).Hsv()
	assert.Greater(t, hv, v)
	assert.Equal(t, uint8(2*coneAlpha), hi.Cone.A)

	// Saturated alpha stays in range.
	opaque := Style{Cone: color.RGBA{A: 200}}
	assert.Equal(t, uint8(255), Highlighted(opaque).Cone.A)
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff0000", Hex(color.RGBA{R: 255, A: 10}))
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	assert.Regexp(t, hex, Hex(ForLayer("intercom").Fill))

	c, err := colorful.Hex(Hex(ForLayer("elevator").Fill))
	require.NoError(t, err)
	r, g, b := c.RGB255()
	fill := ForLayer("elevator").Fill
	assert.Equal(t, [3]uint8{fill.R, fill.G, fill.B}, [3]uint8{r, g, b})
}

func TestFloat32(t *testing.T) {
	assert.Equal(t, [4]float32{1, 0, 0, 1}, Float32(color.RGBA{R: 255, A: 255}))
	assert.InDelta(t, 0.25, Opacity(color.RGBA{A: 64}), 0.01)
}
