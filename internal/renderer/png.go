package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// canvas is the raster one render composites onto. It is owned by a single
// render call and never shared.
type canvas struct {
	img *image.RGBA
}

// newCanvas creates a canvas sized like bg with bg painted on it.
func newCanvas(bg image.Image) *canvas {
	b := bg.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), bg, b.Min, draw.Src)
	return &canvas{img: img}
}

func (c *canvas) width() float64  { return float64(c.img.Bounds().Dx()) }
func (c *canvas) height() float64 { return float64(c.img.Bounds().Dy()) }

// drawImage composites src at its natural size with the top-left at (x, y).
func (c *canvas) drawImage(src image.Image, x, y float64) {
	b := src.Bounds()
	dst := image.Rect(0, 0, b.Dx(), b.Dy()).Add(image.Pt(round(x), round(y)))
	draw.Draw(c.img, dst, src, b.Min, draw.Over)
}

// drawScaled composites src into the box (x, y, w, h).
func (c *canvas) drawScaled(src image.Image, x, y, w, h float64) {
	dst := rectFromBox(x, y, w, h)
	if dst.Empty() {
		return
	}
	draw.BiLinear.Scale(c.img, dst, src, src.Bounds(), draw.Over, nil)
}

// drawRotated composites src centered on (cx, cy), scaled by s and rotated
// clockwise by theta radians.
func (c *canvas) drawRotated(src image.Image, cx, cy, theta, s float64) {
	b := src.Bounds()
	hw := float64(b.Dx()) / 2
	hh := float64(b.Dy()) / 2
	ox := float64(b.Min.X) + hw
	oy := float64(b.Min.Y) + hh

	sin, cos := math.Sincos(theta)
	a, bb := s*cos, -s*sin
	d, e := s*sin, s*cos

	m := f64.Aff3{
		a, bb, cx - (a*ox + bb*oy),
		d, e, cy - (d*ox + e*oy),
	}
	draw.BiLinear.Transform(c.img, m, src, b, draw.Over, nil)
}

// drawText draws text horizontally centered on x with its baseline at y.
func (c *canvas) drawText(face font.Face, text string, x, y float64, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{X: toFixed(x) - width/2, Y: toFixed(y)}
	d.DrawString(text)
}

// drawTextMiddle draws text centered on (x, y) both ways.
func (c *canvas) drawTextMiddle(face font.Face, text string, x, y float64, col color.Color) {
	m := face.Metrics()
	baseline := toFixed(y) + (m.Ascent-m.Descent)/2
	c.drawText(face, text, x, fromFixed(baseline), col)
}

// encode renders the canvas as PNG
func (c *canvas) encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, c.img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
