package overlay

import (
	"image/color"
	"io"
	"strconv"

	"github.com/irfansharif/sitewalk/internal/palette"
)

var measureColor = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}

// svgo styles are plain strings; these build the few we need.

func fill(c color.RGBA) string {
	s := "fill:" + palette.Hex(c)
	if c.A < 255 {
		s += ";fill-opacity:" + num(palette.Opacity(c))
	}
	return s
}

func stroke(c color.RGBA, px float64) string {
	return "stroke:" + palette.Hex(c) + ";stroke-width:" + num(strokeWidth*px)
}

func strokeDashed(c color.RGBA, px float64) string {
	return stroke(c, px) + ";stroke-dasharray:" + num(4*px) + "," + num(3*px)
}

func textStyle(c color.RGBA, px float64) string {
	return "fill:" + palette.Hex(c) + ";font-family:sans-serif;font-size:" + num(labelSize*px)
}

func attr(name, value string) string { return name + `="` + value + `"` }

func num(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }

// errWriter keeps the first write error; svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
