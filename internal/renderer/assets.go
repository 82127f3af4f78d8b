package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // background artwork is a JPEG
	_ "image/png"
	"io/fs"
	"os"
	"path"
)

// AssetLayout names the artwork files relative to the asset root.
type AssetLayout struct {
	Background string
	BaseRing   string
	DetailRing string
	SignDir    string // ring glyphs: {stem}_.png symbol, {stem}.png name
	PlanetDir  string
	SummaryDir string // summary column icons: {stem}_.png
	Fonts      map[string]string
}

// DefaultAssetLayout matches the published asset tree.
func DefaultAssetLayout() AssetLayout {
	return AssetLayout{
		Background: "fondos/Fondo sin palabras.jpg",
		BaseRing:   "fondos/base mandala.png",
		DetailRing: "fondos/mandala detalles.png",
		SignDir:    "signos",
		PlanetDir:  "planetas",
		SummaryDir: "abajo",
		Fonts:      DefaultFontFiles(),
	}
}

// Assets resolves and decodes artwork. Nothing is cached: every render
// loads its own images.
type Assets struct {
	fsys   fs.FS
	layout AssetLayout
}

// NewAssets wraps an asset filesystem.
func NewAssets(fsys fs.FS, layout AssetLayout) *Assets {
	return &Assets{fsys: fsys, layout: layout}
}

// OpenAssets opens an asset directory on disk.
func OpenAssets(dir string, layout AssetLayout) (*Assets, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset path is not a directory: %s", dir)
	}
	return NewAssets(os.DirFS(dir), layout), nil
}

// FS returns the underlying filesystem.
func (a *Assets) FS() fs.FS { return a.fsys }

// Layout returns the file layout in use.
func (a *Assets) Layout() AssetLayout { return a.layout }

// SignSymbolPath returns the ring symbol glyph for a file stem.
func (a *Assets) SignSymbolPath(stem string) string {
	return path.Join(a.layout.SignDir, stem+"_.png")
}

// SignNamePath returns the ring name glyph for a file stem.
func (a *Assets) SignNamePath(stem string) string {
	return path.Join(a.layout.SignDir, stem+".png")
}

// PlanetPath returns the glyph file of a body.
func (a *Assets) PlanetPath(file string) string {
	return path.Join(a.layout.PlanetDir, file)
}

// SummaryIconPath returns the summary column icon for a file stem.
func (a *Assets) SummaryIconPath(stem string) string {
	return path.Join(a.layout.SummaryDir, stem+"_.png")
}

// Image reads and decodes an image asset.
func (a *Assets) Image(name string) (image.Image, error) {
	if a == nil || a.fsys == nil {
		return nil, errors.New("no asset filesystem configured")
	}
	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", name, err)
	}
	return img, nil
}

// ReadFile returns the raw bytes of an asset.
func (a *Assets) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}
	return data, nil
}
