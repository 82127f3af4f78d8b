// Package chart holds the natal chart model and the angular layout of the mandala:
// sign and body lookup tables, ecliptic to canvas angle mapping and the
// collision-aware placement of planet glyphs.
package chart

import "math"

// DefaultRotationOffset calibrates the computed angles against the detail ring artwork.
const DefaultRotationOffset = 7.5

// RelativeAngle returns the counter-clockwise distance from the Ascendant to
// a body, normalised into [0, 360).
func RelativeAngle(ascendant, body float64) float64 {
	rel := math.Mod(body-ascendant, 360)
	if rel < 0 {
		rel += 360
	}
	if rel >= 360 {
		rel -= 360
	}
	return rel
}

// CanvasAngle maps a relative angle onto the canvas where the Ascendant sits
// at 270° (nine o'clock) and the zodiac runs counter-clockwise.
func CanvasAngle(relative, rotationOffset float64) float64 {
	a := math.Mod(270-relative+rotationOffset+360, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// DrawAngle converts a canvas angle to the radians used for x/y placement.
func DrawAngle(canvasAngle float64) float64 {
	return (canvasAngle - 90) * math.Pi / 180
}

// Point projects a radius and draw angle from the center.
func Point(cx, cy, radius, theta float64) (float64, float64) {
	return cx + radius*math.Cos(theta), cy + radius*math.Sin(theta)
}
