package chart

import (
	"fmt"
	"strings"
)

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name for 1-12, "Mes" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "Mes"
	}
	return monthNames[month-1]
}

// FormatBirthDate renders "13 de Julio de 1997".
func FormatBirthDate(day, month, year int) string {
	return fmt.Sprintf("%d de %s de %d", day, MonthName(month), year)
}

// Birth identifies whose chart is being drawn.
type Birth struct {
	Name          string
	Day           int
	Month         int
	Year          int
	BirthPlace    string
	BirthProvince string
}

// PersonalDataFor derives the mandala text block from the birth details and
// the chart. Sun, Moon and Ascendant signs come from absolute degrees; when a
// degree is missing the provider's sun sign is used instead.
func PersonalDataFor(b Birth, h *Horoscope) PersonalData {
	fallback := SunSign(h)

	sunSign, moonSign, ascSign := fallback, fallback, fallback
	if sun, ok := h.FindPlanet(Sun); ok && sun.FullDegree != nil && *sun.FullDegree != 0 {
		sunSign = SignFromDegrees(*sun.FullDegree)
	}
	if moon, ok := h.FindPlanet(Moon); ok && moon.FullDegree != nil && *moon.FullDegree != 0 {
		moonSign = SignFromDegrees(*moon.FullDegree)
	}
	if h != nil && len(h.Houses) > 0 && h.Houses[0].Degree != 0 {
		ascSign = SignFromDegrees(h.Houses[0].Degree)
	}

	place := strings.TrimSpace(b.BirthPlace)
	if place == "" {
		place = "Madrid"
	}

	return PersonalData{
		Name:          b.Name,
		BirthDate:     FormatBirthDate(b.Day, b.Month, b.Year),
		BirthPlace:    place,
		Provincia:     strings.TrimSpace(b.BirthProvince),
		SunSign:       sunSign,
		MoonSign:      moonSign,
		AscendantSign: ascSign,
	}
}

// FirstName returns the token before the first space.
func FirstName(name string) string {
	first, _, _ := strings.Cut(name, " ")
	return first
}

// LocationLine formats the birth place line shown under the date.
func LocationLine(p PersonalData, country string) string {
	if p.Provincia != "" {
		return fmt.Sprintf("%s, %s, %s", p.BirthPlace, p.Provincia, country)
	}
	return fmt.Sprintf("%s, %s", p.BirthPlace, country)
}
