package renderer

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font keys are "family/weight".
const (
	FontTitle    = "ibm-plex-sans/bold"
	FontBody     = "nunito/regular"
	FontSentence = "rosmatika/regular"
	FontFallback = "ibm-plex-sans/bold"
)

// DefaultFontFiles maps font keys to files under the asset root.
func DefaultFontFiles() map[string]string {
	return map[string]string{
		"ibm-plex-sans/regular": "fonts/IBM_Plex_Sans/IBMPlexSans-Regular.ttf",
		"ibm-plex-sans/bold":    "fonts/IBM_Plex_Sans/IBMPlexSans-Bold.ttf",
		"nunito/regular":        "fonts/Nunito/Nunito-Regular.ttf",
		"nunito/semibold":       "fonts/Nunito/Nunito-SemiBold.ttf",
		"nunito/bold":           "fonts/Nunito/Nunito-Bold.ttf",
		"rosmatika/regular":     "fonts/Rosmatika.ttf",
	}
}

// the decorative face falls back to the body face before the Go fonts
var fontAliases = map[string]string{
	"rosmatika/regular": "nunito/regular",
}

// FontSet holds parsed fonts. It is loaded once per process and shared by
// every render; faces are created per render since they are not safe for
// concurrent use.
type FontSet struct {
	fonts     map[string]*opentype.Font
	regular   *opentype.Font
	bold      *opentype.Font
	fallbacks []string
}

// LoadFonts parses the font files from fsys. A missing or unreadable file
// is not fatal: the key falls back to an alias or to the embedded Go fonts.
func LoadFonts(fsys fs.FS, files map[string]string, logger *zap.Logger) (*FontSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback bold font: %w", err)
	}

	set := &FontSet{
		fonts:   make(map[string]*opentype.Font, len(files)),
		regular: regular,
		bold:    bold,
	}

	for key, file := range files {
		f, err := parseFontFile(fsys, file)
		if err != nil {
			logger.Warn("font unavailable, using fallback",
				zap.String("font", key),
				zap.String("asset", file),
				zap.Error(err))
			set.fallbacks = append(set.fallbacks, key)
			continue
		}
		set.fonts[key] = f
	}
	sort.Strings(set.fallbacks)

	return set, nil
}

func parseFontFile(fsys fs.FS, file string) (*opentype.Font, error) {
	if fsys == nil {
		return nil, fmt.Errorf("no asset filesystem")
	}
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

// Fallbacks lists the keys that could not be loaded from disk.
func (s *FontSet) Fallbacks() []string {
	return append([]string(nil), s.fallbacks...)
}

func (s *FontSet) resolve(key string) *opentype.Font {
	if f, ok := s.fonts[key]; ok {
		return f
	}
	if alias, ok := fontAliases[key]; ok {
		if f, ok := s.fonts[alias]; ok {
			return f
		}
	}
	if strings.HasSuffix(key, "/bold") || strings.HasSuffix(key, "/semibold") {
		return s.bold
	}
	return s.regular
}

// Face creates a new face at the given pixel size.
func (s *FontSet) Face(key string, size float64) (font.Face, error) {
	face, err := opentype.NewFace(s.resolve(key), &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s face at %.0fpx: %w", key, size, err)
	}
	return face, nil
}

// faceSet is the set of faces one render draws with.
type faceSet struct {
	name     font.Face
	detail   font.Face
	header   font.Face
	label    font.Face
	sentence font.Face
	fallback font.Face
}

func (s *FontSet) newFaceSet() (*faceSet, error) {
	var err error
	face := func(key string, size float64) font.Face {
		if err != nil {
			return nil
		}
		var f font.Face
		f, err = s.Face(key, size)
		return f
	}

	set := &faceSet{
		name:     face(FontTitle, 150),
		detail:   face(FontBody, 90),
		header:   face(FontBody, 60),
		label:    face(FontBody, 50),
		sentence: face(FontSentence, 65),
		fallback: face(FontFallback, 14),
	}
	if err != nil {
		set.Close()
		return nil, err
	}
	return set, nil
}

func (f *faceSet) Close() {
	for _, face := range []font.Face{f.name, f.detail, f.header, f.label, f.sentence, f.fallback} {
		if face != nil {
			face.Close()
		}
	}
}
