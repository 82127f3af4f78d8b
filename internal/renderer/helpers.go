package renderer

import (
	"image"
	"math"

	"golang.org/x/image/math/fixed"
)

func round(v float64) int {
	return int(math.Round(v))
}

// rectFromBox converts a float box to the pixel rectangle it covers
func rectFromBox(x, y, w, h float64) image.Rectangle {
	return image.Rect(round(x), round(y), round(x+w), round(y+h))
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func size(img image.Image) (float64, float64) {
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}
