package chart

// Body is one of the ten bodies drawn on the mandala.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

// Bodies lists the drawable bodies.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

type bodyInfo struct {
	name        string
	radius      float64 // hand-tuned base radius in px
	glyphHeight float64
	glyphFile   string
}

var bodyTable = [10]bodyInfo{
	Sun:     {"Sun", 456, 32, "sol.png"},
	Moon:    {"Moon", 400, 42, "luna.png"},
	Mercury: {"Mercury", 415, 36, "mercurio.png"},
	Venus:   {"Venus", 402, 36, "venus.png"},
	Mars:    {"Mars", 445, 36, "marte.png"},
	Jupiter: {"Jupiter", 418, 32, "jupiter.png"},
	Saturn:  {"Saturn", 400, 32, "saturno.png"},
	Uranus:  {"Uranus", 440, 32, "urano.png"},
	Neptune: {"Neptune", 430, 32, "neptuno.png"},
	Pluto:   {"Pluto", 450, 32, "pluto.png"},
}

// allow-list of provider names, English and Spanish
var bodyNames = map[string]Body{
	"Sun": Sun, "Sol": Sun,
	"Moon": Moon, "Luna": Moon,
	"Mercury": Mercury, "Mercurio": Mercury,
	"Venus": Venus,
	"Mars": Mars, "Marte": Mars,
	"Jupiter": Jupiter, "Júpiter": Jupiter,
	"Saturn": Saturn, "Saturno": Saturn,
	"Uranus": Uranus, "Urano": Uranus,
	"Neptune": Neptune, "Neptuno": Neptune,
	"Pluto": Pluto, "Plutón": Pluto,
}

// ParseBody resolves a provider planet name. Bodies outside the allow-list
// (nodes, Chiron, Part of Fortune...) are rejected.
func ParseBody(name string) (Body, bool) {
	b, ok := bodyNames[name]
	return b, ok
}

func (b Body) String() string { return bodyTable[b].name }

// BaseRadius is the distance from the mandala center before collision offsets.
func (b Body) BaseRadius() float64 { return bodyTable[b].radius }

// GlyphHeight is the drawn glyph height in px; width keeps the aspect ratio.
func (b Body) GlyphHeight() float64 { return bodyTable[b].glyphHeight }

// GlyphFile is the file name under the planet glyph folder.
func (b Body) GlyphFile() string { return bodyTable[b].glyphFile }
