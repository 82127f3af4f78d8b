package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignFromDegrees(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "Aries"},
		{29.99, "Aries"},
		{30, "Taurus"},
		{100, "Cancer"},
		{250, "Sagittarius"},
		{359.9, "Pisces"},
		{360, "Aries"},
		{-10, "Pisces"},
		{725, "Aries"},
	}

	for _, tt := range tests {
		if got := SignFromDegrees(tt.deg); got != tt.want {
			t.Errorf("SignFromDegrees(%v) = %s, want %s", tt.deg, got, tt.want)
		}
	}
}

func TestRingGlyphName(t *testing.T) {
	tests := []struct {
		sign      string
		want      string
		wantFound bool
	}{
		{"Gemini", "géminis", true},
		{"Cancer", "cáncer", true},
		{"Taurus", "tauro", true},
		{"Pisces", "piscis", true},
		{"Ophiuchus", "ophiuchus", false},
		{"gemini", "gemini", false},
	}

	for _, tt := range tests {
		t.Run(tt.sign, func(t *testing.T) {
			got, found := RingGlyphName(tt.sign)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestSummaryIconName(t *testing.T) {
	tests := []struct {
		sign string
		want string
	}{
		{"Gemini", "geminis"},
		{"Géminis", "geminis"},
		{"Cancer", "cáncer"},
		{"Cáncer", "cáncer"},
		{"Tauro", "tauro"},
		{"Leo", "leo"},
		{"UNKNOWN", "unknown"},
	}

	for _, tt := range tests {
		got, _ := SummaryIconName(tt.sign)
		assert.Equal(t, tt.want, got, tt.sign)
	}
}

func TestTranslateToSpanish(t *testing.T) {
	assert.Equal(t, "Géminis", TranslateToSpanish("Gemini"))
	assert.Equal(t, "Escorpio", TranslateToSpanish("Scorpio"))
	assert.Equal(t, "Tauro", TranslateToSpanish("Tauro"))
	assert.Equal(t, "Foo", TranslateToSpanish("Foo"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Géminis", Capitalize("GÉMINIS"))
	assert.Equal(t, "Écija", Capitalize("écija"))
	assert.Equal(t, "Aries", Capitalize("aRiEs"))
	assert.Equal(t, "", Capitalize(""))
}

func TestSunSign(t *testing.T) {
	tests := []struct {
		name string
		h    *Horoscope
		want string
	}{
		{"nil chart", nil, "Aries"},
		{"english sun", &Horoscope{Planets: []Planet{{Name: "Moon", Sign: "Leo"}, {Name: "Sun", Sign: "Cancer"}}}, "Cáncer"},
		{"spanish sun", &Horoscope{Planets: []Planet{{Name: "Sol", Sign: "Géminis"}}}, "Géminis"},
		{"falls back to first planet", &Horoscope{Planets: []Planet{{Name: "Moon", Sign: "Pisces"}}}, "Piscis"},
		{"unknown sign", &Horoscope{Planets: []Planet{{Name: "Sun", Sign: "??"}}}, "Aries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SunSign(tt.h))
		})
	}
}

func TestGuideFileName(t *testing.T) {
	assert.Equal(t, "aires", GuideFileName("Aries"))
	assert.Equal(t, "cancer", GuideFileName("Cáncer"))
	assert.Equal(t, "geminis", GuideFileName("Géminis"))
}

func TestSentence(t *testing.T) {
	l1, l2 := Sentence(PersonalData{SunSign: "Leo", MoonSign: "Cancer", AscendantSign: "Aries"})
	assert.Equal(t, "Proyecta valor, necesita calor de hogar y brilla", l1)
	assert.Equal(t, "cuando es reconocido.", l2)

	l1, l2 = Sentence(PersonalData{SunSign: "X", MoonSign: "Y", AscendantSign: "Z"})
	assert.Equal(t, "Proyecta presencia, necesita equilibrio y brilla", l1)
	assert.Equal(t, "cuando brilla.", l2)
}
