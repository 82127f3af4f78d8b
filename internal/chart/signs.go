package chart

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sign is one of the twelve zodiac signs in ecliptic order starting at Aries.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// Signs lists all signs in ecliptic order.
var Signs = []Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

var englishNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var spanishNames = [12]string{
	"Aries", "Tauro", "Géminis", "Cáncer", "Leo", "Virgo",
	"Libra", "Escorpio", "Sagitario", "Capricornio", "Acuario", "Piscis",
}

// String returns the English name used by the astrology provider
func (s Sign) String() string {
	if s < Aries || s > Pisces {
		return "Unknown"
	}
	return englishNames[s]
}

// Spanish returns the canonical Spanish name with accents
func (s Sign) Spanish() string {
	if s < Aries || s > Pisces {
		return ""
	}
	return spanishNames[s]
}

// ParseSign resolves an English or Spanish sign name. Matching is exact:
// case and accents matter, mirroring the asset naming.
func ParseSign(name string) (Sign, bool) {
	for i := range englishNames {
		if englishNames[i] == name || spanishNames[i] == name {
			return Sign(i), true
		}
	}
	return 0, false
}

// SignFromDegrees returns the English sign name for an absolute degree.
func SignFromDegrees(deg float64) string {
	norm := math.Mod(math.Mod(deg, 360)+360, 360)
	idx := int(math.Floor(norm / 30))
	if idx < 0 || idx > 11 {
		return "Aries"
	}
	return englishNames[idx]
}

// Asset folders use different spellings of the same sign: the ring glyphs
// keep accents, the summary icons drop them for Gemini only.
var (
	ringGlyphNames = map[string]string{
		"Aries":       "aries",
		"Taurus":      "tauro",
		"Gemini":      "géminis",
		"Cancer":      "cáncer",
		"Leo":         "leo",
		"Virgo":       "virgo",
		"Libra":       "libra",
		"Scorpio":     "escorpio",
		"Sagittarius": "sagitario",
		"Capricorn":   "capricornio",
		"Aquarius":    "acuario",
		"Pisces":      "piscis",
	}

	summaryIconNames = map[string]string{
		"Aries":       "aries",
		"Taurus":      "tauro",
		"Tauro":       "tauro",
		"Gemini":      "geminis",
		"Géminis":     "geminis",
		"Cancer":      "cáncer",
		"Cáncer":      "cáncer",
		"Leo":         "leo",
		"Virgo":       "virgo",
		"Libra":       "libra",
		"Scorpio":     "escorpio",
		"Escorpio":    "escorpio",
		"Sagittarius": "sagitario",
		"Sagitario":   "sagitario",
		"Capricorn":   "capricornio",
		"Capricornio": "capricornio",
		"Aquarius":    "acuario",
		"Acuario":     "acuario",
		"Pisces":      "piscis",
		"Piscis":      "piscis",
	}

	// keys are canonical Spanish names; "aires" is the real file name on disk
	guideFileNames = map[string]string{
		"Aries":       "aires",
		"Tauro":       "tauro",
		"Géminis":     "geminis",
		"Cáncer":      "cancer",
		"Leo":         "leo",
		"Virgo":       "virgo",
		"Libra":       "libra",
		"Escorpio":    "escorpio",
		"Sagitario":   "sagitario",
		"Capricornio": "capricornio",
		"Acuario":     "acuario",
		"Piscis":      "piscis",
	}
)

// RingGlyphName returns the file stem of a sign glyph on the zodiac ring.
// The second result is false when the name was not in the table and the
// lower-cased input was used instead.
func RingGlyphName(sign string) (string, bool) {
	if n, ok := ringGlyphNames[sign]; ok {
		return n, true
	}
	return strings.ToLower(sign), false
}

// SummaryIconName returns the file stem of a summary column icon.
func SummaryIconName(sign string) (string, bool) {
	if n, ok := summaryIconNames[sign]; ok {
		return n, true
	}
	return strings.ToLower(sign), false
}

// GuideFileName returns the stem of the static per-sign guide PDF.
func GuideFileName(spanishSign string) string {
	if n, ok := guideFileNames[spanishSign]; ok {
		return n
	}
	return strings.ToLower(spanishSign)
}

// TranslateToSpanish maps an English sign name to Spanish. Unknown names
// are returned unchanged.
func TranslateToSpanish(sign string) string {
	if s, ok := ParseSign(sign); ok && englishNames[s] == sign {
		return spanishNames[s]
	}
	return sign
}

// Capitalize title-cases a sign name with Spanish casing rules.
// A Caser is stateful, so one is built per call.
func Capitalize(s string) string {
	return cases.Title(language.Spanish).String(s)
}

var sunSignAliases = map[string]string{
	"Aries":       "Aries",
	"Tauro":       "Tauro",
	"Taurus":      "Tauro",
	"Géminis":     "Géminis",
	"Gemini":      "Géminis",
	"Cáncer":      "Cáncer",
	"Cancer":      "Cáncer",
	"Leo":         "Leo",
	"Virgo":       "Virgo",
	"Libra":       "Libra",
	"Escorpio":    "Escorpio",
	"Scorpio":     "Escorpio",
	"Sagitario":   "Sagitario",
	"Sagittarius": "Sagitario",
	"Capricornio": "Capricornio",
	"Capricorn":   "Capricornio",
	"Acuario":     "Acuario",
	"Aquarius":    "Acuario",
	"Piscis":      "Piscis",
	"Pisces":      "Piscis",
}

// SunSign returns the Spanish name of the Sun's sign as reported by the
// provider. It falls back to the first planet, then to Aries.
func SunSign(h *Horoscope) string {
	if h == nil || len(h.Planets) == 0 {
		return "Aries"
	}
	sun, ok := h.FindPlanet(Sun)
	if !ok {
		sun = h.Planets[0]
	}
	if s, ok := sunSignAliases[sun.Sign]; ok {
		return s
	}
	return "Aries"
}
