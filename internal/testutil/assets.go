// Package testutil builds synthetic mandala artwork and chart fixtures for tests.
package testutil

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cosmikids/mandala/internal/chart"
)

// Canvas and layer sizes of the synthetic asset tree. They are smaller than
// print size but large enough for every glyph radius to stay on canvas.
const (
	BackgroundWidth  = 1600
	BackgroundHeight = 2400
	BaseRingSize     = 1500
	DetailRingSize   = 1400
)

var ringGlyphStems = []string{
	"aries", "tauro", "géminis", "cáncer", "leo", "virgo",
	"libra", "escorpio", "sagitario", "capricornio", "acuario", "piscis",
}

var summaryIconStems = []string{
	"aries", "tauro", "geminis", "cáncer", "leo", "virgo",
	"libra", "escorpio", "sagitario", "capricornio", "acuario", "piscis",
}

var planetFiles = []string{
	"sol.png", "luna.png", "mercurio.png", "venus.png", "marte.png",
	"jupiter.png", "saturno.png", "urano.png", "neptuno.png", "pluto.png",
}

// WriteAssets writes a complete asset tree under dir and returns dir.
func WriteAssets(t testing.TB, dir string) string {
	t.Helper()

	writeJPEG(t, filepath.Join(dir, "fondos", "Fondo sin palabras.jpg"),
		fill(BackgroundWidth, BackgroundHeight, color.NRGBA{247, 237, 228, 255}))
	writePNG(t, filepath.Join(dir, "fondos", "base mandala.png"),
		ring(BaseRingSize, 0.80, 0.98, color.NRGBA{206, 191, 200, 255}))
	writePNG(t, filepath.Join(dir, "fondos", "mandala detalles.png"),
		ring(DetailRingSize, 0.55, 0.75, color.NRGBA{180, 160, 190, 200}))

	for i, stem := range ringGlyphStems {
		shade := uint8(40 + i*10)
		writePNG(t, filepath.Join(dir, "signos", stem+"_.png"), fill(60, 60, color.NRGBA{shade, 60, 120, 255}))
		writePNG(t, filepath.Join(dir, "signos", stem+".png"), fill(120, 40, color.NRGBA{80, shade, 100, 255}))
	}
	for i, stem := range summaryIconStems {
		writePNG(t, filepath.Join(dir, "abajo", stem+"_.png"), fill(120, 120, color.NRGBA{uint8(30 + i*15), 90, 90, 255}))
	}
	for i, file := range planetFiles {
		writePNG(t, filepath.Join(dir, "planetas", file), fill(48, 40, color.NRGBA{200, uint8(20 + i*20), 40, 255}))
	}
	return dir
}

// RemoveAsset deletes one file from an asset tree.
func RemoveAsset(t testing.TB, dir, rel string) {
	t.Helper()
	if err := os.Remove(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
		t.Fatalf("failed to remove asset %s: %v", rel, err)
	}
}

// Horoscope returns a chart with Ascendant 15°, Sun 100°, Moon 250° and
// Mercury 18° plus twelve equal houses.
func Horoscope() *chart.Horoscope {
	h := &chart.Horoscope{
		Planets: []chart.Planet{
			{Name: "Sun", Sign: "Cancer", FullDegree: chart.Float(100), NormDegree: 10},
			{Name: "Moon", Sign: "Sagittarius", FullDegree: chart.Float(250), NormDegree: 10},
			{Name: "Mercury", Sign: "Aries", FullDegree: chart.Float(18), NormDegree: 18},
			{Name: "Node", Sign: "Leo", FullDegree: chart.Float(130), NormDegree: 10},
		},
		Ascendant: chart.Float(15),
	}
	for i := 0; i < 12; i++ {
		h.Houses = append(h.Houses, chart.House{
			House:  i + 1,
			Sign:   chart.Signs[(i)%12].String(),
			Degree: float64(15 + i*30),
		})
	}
	return h
}

// Personal returns the text block matching Horoscope.
func Personal() chart.PersonalData {
	return chart.PersonalData{
		Name:          "Lucía Pérez",
		BirthDate:     "13 de Julio de 2019",
		BirthPlace:    "Sevilla",
		Provincia:     "Andalucía",
		SunSign:       "Cancer",
		MoonSign:      "Sagittarius",
		AscendantSign: "Aries",
	}
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// ring draws an annulus between inner and outer (fractions of the radius)
// on a transparent square.
func ring(size int, inner, outer float64, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			d2 := (dx*dx + dy*dy) / (r * r)
			if d2 >= inner*inner && d2 <= outer*outer {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

func writePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func writeJPEG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func create(t testing.TB, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	return f
}
