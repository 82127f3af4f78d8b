package renderer

import (
	"fmt"
	"image/color"
	"strings"
)

// Palette of the printed mandala
var (
	colorInk   = parseColor("#4B454F") // name, headers, sentence, planet labels
	colorMuted = parseColor("#666666") // date, place, sign names
)

// parseColor parses a hex color string
func parseColor(hexColor string) color.RGBA {
	hexColor = strings.TrimPrefix(hexColor, "#")

	var r, g, b uint8
	if len(hexColor) == 6 {
		fmt.Sscanf(hexColor, "%02x%02x%02x", &r, &g, &b)
	}

	return color.RGBA{r, g, b, 255}
}
