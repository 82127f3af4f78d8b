package chart

import (
	"encoding/json"
	"fmt"
)

// Horoscope is the natal chart returned by the astrology provider.
// It is treated as read-only by every consumer.
type Horoscope struct {
	Planets   []Planet `json:"planets"`
	Houses    []House  `json:"houses"`
	Ascendant *float64 `json:"ascendant,omitempty"` // absolute degree, optional
	Midheaven *float64 `json:"midheaven,omitempty"`
}

// Planet is a single body position
type Planet struct {
	Name       string   `json:"name"`
	Sign       string   `json:"sign"`
	FullDegree *float64 `json:"full_degree,omitempty"` // absolute ecliptic degree 0-360
	NormDegree float64  `json:"norm_degree"`           // degree within the sign, display only
	Speed      float64  `json:"speed,omitempty"`
	House      int      `json:"house,omitempty"`
}

// House is a house cusp; index 0 is the Ascendant
type House struct {
	House  int     `json:"house,omitempty"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// PersonalData carries the text shown on the mandala. It is never persisted.
type PersonalData struct {
	Name          string `json:"name"`
	BirthDate     string `json:"birthDate"`
	BirthPlace    string `json:"birthPlace"`
	Provincia     string `json:"provincia,omitempty"`
	SunSign       string `json:"sunSign"`
	MoonSign      string `json:"moonSign"`
	AscendantSign string `json:"ascendantSign"`
	Description   string `json:"description,omitempty"`
}

// ParseHoroscope decodes the provider JSON payload.
func ParseHoroscope(data []byte) (*Horoscope, error) {
	var h Horoscope
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse horoscope: %w", err)
	}
	return &h, nil
}

// AscendantDegree returns the absolute Ascendant degree: the explicit
// ascendant when present and non-zero, otherwise the first house cusp.
func (h *Horoscope) AscendantDegree() (float64, bool) {
	if h == nil {
		return 0, false
	}
	if h.Ascendant != nil && *h.Ascendant != 0 {
		return *h.Ascendant, true
	}
	if len(h.Houses) > 0 {
		return h.Houses[0].Degree, true
	}
	return 0, false
}

// FindPlanet returns the first planet whose name resolves to body.
func (h *Horoscope) FindPlanet(body Body) (Planet, bool) {
	if h == nil {
		return Planet{}, false
	}
	for _, p := range h.Planets {
		if b, ok := ParseBody(p.Name); ok && b == body {
			return p, true
		}
	}
	return Planet{}, false
}

// Float returns a pointer to v, handy for building fixtures.
func Float(v float64) *float64 {
	return &v
}
