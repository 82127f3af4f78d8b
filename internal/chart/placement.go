package chart

import (
	"math"
	"sort"
)

// Layout defaults in canvas pixels.
const (
	DefaultSymbolRadius  = 640
	DefaultNameRadius    = 685
	DefaultNearThreshold = 5.0
	DefaultRadiusStep    = 12.0
)

// Geometry holds the ring center and the tunables used to place glyphs.
type Geometry struct {
	CX, CY         float64
	RotationOffset float64
	SymbolRadius   float64
	NameRadius     float64
	NearThreshold  float64 // degrees
	RadiusStep     float64 // px per ordinal in a near-group
}

// NewGeometry returns a Geometry centered on (cx, cy) with default tunables.
func NewGeometry(cx, cy float64) Geometry {
	return Geometry{
		CX:             cx,
		CY:             cy,
		RotationOffset: DefaultRotationOffset,
		SymbolRadius:   DefaultSymbolRadius,
		NameRadius:     DefaultNameRadius,
		NearThreshold:  DefaultNearThreshold,
		RadiusStep:     DefaultRadiusStep,
	}
}

// ZodiacPosition is the derived placement of one sign on the ring.
type ZodiacPosition struct {
	Sign         Sign
	CenterDegree float64
	Theta        float64 // draw angle in radians
	SymbolX      float64
	SymbolY      float64
	NameX        float64
	NameY        float64
}

// ZodiacPositions places the twelve sign glyphs relative to the Ascendant.
func (g Geometry) ZodiacPositions(ascendant float64) []ZodiacPosition {
	out := make([]ZodiacPosition, 0, len(Signs))
	for _, s := range Signs {
		center := float64(s)*30 + 15
		theta := DrawAngle(CanvasAngle(RelativeAngle(ascendant, center), g.RotationOffset))
		sx, sy := Point(g.CX, g.CY, g.SymbolRadius, theta)
		nx, ny := Point(g.CX, g.CY, g.NameRadius, theta)
		out = append(out, ZodiacPosition{
			Sign:         s,
			CenterDegree: center,
			Theta:        theta,
			SymbolX:      sx,
			SymbolY:      sy,
			NameX:        nx,
			NameY:        ny,
		})
	}
	return out
}

// PlanetPlacement is the computed position of one body for a single render.
type PlanetPlacement struct {
	X, Y    float64
	Planet  Planet
	Body    Body
	Radius  float64
	Ordinal int
	Theta   float64
}

type candidate struct {
	planet Planet
	body   Body
	deg    float64
}

// PlacePlanets filters planets to the drawable allow-list, sorts them by
// absolute degree and assigns each a radius. Bodies closer than
// NearThreshold degrees form a near-group; a body's ordinal is the index of
// the first group member sharing its exact degree, so exact ties share an
// ordinal. Differences do not wrap at 0°/360°.
func (g Geometry) PlacePlanets(planets []Planet, ascendant float64) []PlanetPlacement {
	var valid []candidate
	for _, p := range planets {
		b, ok := ParseBody(p.Name)
		if !ok || p.FullDegree == nil {
			continue
		}
		valid = append(valid, candidate{planet: p, body: b, deg: *p.FullDegree})
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].deg < valid[j].deg
	})

	placements := make([]PlanetPlacement, 0, len(valid))
	for _, c := range valid {
		ordinal := g.nearGroupOrdinal(valid, c.deg)
		radius := c.body.BaseRadius() + float64(ordinal)*g.RadiusStep

		theta := DrawAngle(CanvasAngle(RelativeAngle(ascendant, c.deg), g.RotationOffset))
		x, y := Point(g.CX, g.CY, radius, theta)

		placements = append(placements, PlanetPlacement{
			X:       x,
			Y:       y,
			Planet:  c.planet,
			Body:    c.body,
			Radius:  radius,
			Ordinal: ordinal,
			Theta:   theta,
		})
	}
	return placements
}

func (g Geometry) nearGroupOrdinal(sorted []candidate, deg float64) int {
	var group []candidate
	for _, o := range sorted {
		if math.Abs(deg-o.deg) < g.NearThreshold {
			group = append(group, o)
		}
	}
	if len(group) <= 1 {
		return 0
	}
	for i, o := range group {
		if o.deg == deg {
			return i
		}
	}
	return 0
}
