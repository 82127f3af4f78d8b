package chart

import "fmt"

const (
	defaultAscendantTrait = "presencia"
	defaultMoonTrait      = "equilibrio"
	defaultSunTrait       = "brilla"
)

var ascendantTraits = [12]string{
	"valor", "calma", "curiosidad", "cuidado", "presencia", "claridad",
	"armonía", "intensidad", "entusiasmo", "logro", "innovación", "intuición",
}

var moonTraits = [12]string{
	"acción", "comodidad", "aprender", "calor de hogar", "reconocimiento", "orden",
	"equilibrio", "conexiones profundas", "aventuras", "reglas claras", "su espacio personal", "evadirse",
}

var sunTraits = [12]string{
	"tiene valor", "conecta con su cuerpo", "comparte", "protege", "es reconocido", "mejora las cosas",
	"encuentra equilibrio", "transforma", "explora", "alcanza sus metas", "imagina soluciones", "crea desde su intuición",
}

func trait(table *[12]string, sign, fallback string) string {
	s, ok := ParseSign(sign)
	if !ok {
		return fallback
	}
	return table[s]
}

// AscendantTrait returns the trait projected by an Ascendant sign.
func AscendantTrait(sign string) string { return trait(&ascendantTraits, sign, defaultAscendantTrait) }

// MoonTrait returns what a Moon sign needs.
func MoonTrait(sign string) string { return trait(&moonTraits, sign, defaultMoonTrait) }

// SunTrait returns the condition under which a Sun sign shines.
func SunTrait(sign string) string { return trait(&sunTraits, sign, defaultSunTrait) }

// Sentence builds the two-line personalised sentence shown under the summary columns.
func Sentence(p PersonalData) (string, string) {
	line1 := fmt.Sprintf("Proyecta %s, necesita %s y brilla", AscendantTrait(p.AscendantSign), MoonTrait(p.MoonSign))
	line2 := fmt.Sprintf("cuando %s.", SunTrait(p.SunSign))
	return line1, line2
}
