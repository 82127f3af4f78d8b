package renderer

import (
	"strings"

	"github.com/cosmikids/mandala/internal/chart"
)

// Vertical positions of the text blocks, in canvas px.
const (
	nameY  = 240
	dateY  = 350
	placeY = 440

	summaryBottomMargin = 260 + 700
	summaryWidthRatio   = 0.6
	summaryIconSize     = 100
)

func (j *renderJob) drawPersonalInfo(p chart.PersonalData) {
	c := j.canvas
	cx := c.width() / 2

	c.drawText(j.faces.name, strings.ToUpper(chart.FirstName(p.Name)), cx, nameY, colorInk)
	c.drawText(j.faces.detail, p.BirthDate, cx, dateY, colorMuted)
	c.drawText(j.faces.detail, chart.LocationLine(p, j.r.opts.Country), cx, placeY, colorMuted)
}

func (j *renderJob) drawZodiacSigns(geom chart.Geometry, h *chart.Horoscope) {
	if h == nil || len(h.Houses) < 12 {
		j.skipStep("zodiac: fewer than 12 houses")
		return
	}
	asc, ok := h.AscendantDegree()
	if !ok {
		j.skipStep("zodiac: no ascendant")
		return
	}

	assets := j.r.assets
	for _, zp := range geom.ZodiacPositions(asc) {
		stem, _ := chart.RingGlyphName(zp.Sign.String())
		rotation := zp.Theta + quarterTurn

		symbolPath := assets.SignSymbolPath(stem)
		if img, err := assets.Image(symbolPath); err != nil {
			j.skip(LayerSignSymbol, symbolPath, err)
		} else {
			j.canvas.drawRotated(img, zp.SymbolX, zp.SymbolY, rotation, j.r.opts.SymbolScale)
		}

		namePath := assets.SignNamePath(stem)
		if img, err := assets.Image(namePath); err != nil {
			j.skip(LayerSignName, namePath, err)
		} else {
			j.canvas.drawRotated(img, zp.NameX, zp.NameY, rotation, 1)
		}
	}
}

func (j *renderJob) drawPlanets(geom chart.Geometry, h *chart.Horoscope) {
	if h == nil || len(h.Planets) == 0 {
		j.skipStep("planets: no planet data")
		return
	}
	if len(h.Houses) == 0 {
		j.skipStep("planets: no ascendant")
		return
	}
	asc, _ := h.AscendantDegree()

	placements := geom.PlacePlanets(h.Planets, asc)
	j.result.Planets = placements

	assets := j.r.assets
	for _, p := range placements {
		glyphPath := assets.PlanetPath(p.Body.GlyphFile())
		img, err := assets.Image(glyphPath)
		if err != nil {
			j.skip(LayerPlanet, glyphPath, err)
			j.canvas.drawTextMiddle(j.faces.fallback, p.Planet.Name, p.X, p.Y, colorInk)
			continue
		}

		w, hgt := size(img)
		glyphH := p.Body.GlyphHeight()
		glyphW := glyphH * w / hgt
		j.canvas.drawScaled(img, p.X-glyphW/2, p.Y-glyphH/2, glyphW, glyphH)
	}
}

type summaryColumn struct {
	header string
	x      float64
	sign   string
}

func (j *renderJob) drawSummary(p chart.PersonalData) {
	c := j.canvas
	cx := c.width() / 2
	infoY := c.height() - summaryBottomMargin

	totalWidth := c.width() * summaryWidthRatio
	colSep := totalWidth / 3
	startX := cx - totalWidth/2

	headerY := infoY - 200
	iconY := infoY - 50
	textY := infoY + 100

	columns := []summaryColumn{
		{"Mi Sol", startX + colSep/2, p.SunSign},
		{"Mi Luna", cx, p.MoonSign},
		{"Mi Ascendente", startX + totalWidth - colSep/2, p.AscendantSign},
	}

	for _, col := range columns {
		c.drawText(j.faces.header, col.header, col.x, headerY, colorInk)

		stem, _ := chart.SummaryIconName(col.sign)
		iconPath := j.r.assets.SummaryIconPath(stem)
		if img, err := j.r.assets.Image(iconPath); err != nil {
			j.skip(LayerSummaryIcon, iconPath, err)
		} else {
			half := summaryIconSize / 2.0
			c.drawScaled(img, col.x-half, iconY-half, summaryIconSize, summaryIconSize)
		}

		label := chart.Capitalize(chart.TranslateToSpanish(col.sign))
		c.drawText(j.faces.label, label, col.x, textY, colorMuted)
	}

	line1, line2 := chart.Sentence(p)
	sentenceY := textY + 300
	c.drawText(j.faces.sentence, line1, cx, sentenceY, colorInk)
	c.drawText(j.faces.sentence, line2, cx, sentenceY+80, colorInk)
}
