package training

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// Theme is what a practice prompt is about.
type Theme string

const (
	ThemeItem    Theme = "item"
	ThemeSpell   Theme = "spell"
	ThemeFeature Theme = "feature"
)

var themeWords = map[Theme][]string{
	ThemeSpell: {"conjuro", "conjuros", "hechizo", "hechizos", "spell", "spells", "truco", "cantrip",
		"escuela", "school", "componentes", "components", "ritual", "concentracion", "concentration"},
	ThemeFeature: {"rasgo", "rasgos", "trait", "feature", "dote", "feat", "habilidad", "ability",
		"clase", "class", "subclase", "subclass", "talento"},
}

// DetectTheme picks the theme with the most keyword hits, defaulting to item.
func DetectTheme(prompt string) Theme {
	norm := textmatch.Normalize(prompt)
	best, bestHits := ThemeItem, 0
	for _, theme := range []Theme{ThemeSpell, ThemeFeature} {
		hits := 0
		for _, w := range themeWords[theme] {
			if textmatch.ContainsWord(norm, w) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = theme, hits
		}
	}
	return best
}

type criterion struct {
	label string
	test  func(raw, norm string) bool
}

var (
	diceRe     = regexp.MustCompile(`\b\d+d\d+\b`)
	dcRe       = regexp.MustCompile(`\b(cd|dc)\s*\d+`)
	distanceRe = regexp.MustCompile(`\b\d+\s*(m|metros|ft|pies|feet|km)\b`)
	headingRe  = regexp.MustCompile(`(?m)^[^\n:]{2,60}:\s*$`)
	quotedRe   = regexp.MustCompile(`["«“][^"»”]{2,60}["»”]`)
)

func anyWord(words ...string) func(raw, norm string) bool {
	return func(_, norm string) bool {
		for _, w := range words {
			if textmatch.ContainsWord(norm, w) {
				return true
			}
		}
		return false
	}
}

var commonCriteria = []criterion{
	{"un nombre claro (título en su propia línea o entre comillas)", func(raw, _ string) bool {
		return headingRe.MatchString(raw) || quotedRe.MatchString(raw)
	}},
	{"mecánica concreta (dados o CD)", func(_, norm string) bool {
		return diceRe.MatchString(norm) || dcRe.MatchString(norm)
	}},
	{"alcance o distancia", func(_, norm string) bool { return distanceRe.MatchString(norm) }},
	{"coste de activación (acción, acción adicional, reacción, cargas o descanso)",
		anyWord("accion", "action", "adicional", "bonus", "reaccion", "reaction", "cargas", "charges", "descanso", "rest")},
	{"una descripción narrativa de al menos una frase", func(raw, _ string) bool {
		for _, s := range strings.Split(raw, ".") {
			if len(strings.Fields(s)) >= 8 {
				return true
			}
		}
		return false
	}},
}

var themeCriteria = map[Theme][]criterion{
	ThemeItem: {
		{"categoría y rareza", anyWord("arma", "weapon", "armadura", "armor", "anillo", "ring", "varita", "wand",
			"comun", "common", "raro", "rara", "rare", "legendario", "legendaria", "legendary", "infrecuente", "uncommon")},
		{"sintonización o uso", anyWord("sintonizacion", "attunement", "sintonizar", "equipado", "equipped", "uso", "usage")},
	},
	ThemeSpell: {
		{"nivel y escuela", anyWord("nivel", "level", "evocacion", "evocation", "abjuracion", "abjuration",
			"conjuracion", "conjuration", "ilusion", "illusion", "necromancia", "necromancy", "transmutacion",
			"transmutation", "adivinacion", "divination", "encantamiento", "enchantment")},
		{"componentes y duración", anyWord("v", "s", "m", "componentes", "components", "duracion", "duration", "instantaneo", "instantanea")},
	},
	ThemeFeature: {
		{"usos y recarga", anyWord("usos", "uses", "recarga", "recharge", "descanso", "rest", "veces", "times")},
		{"requisito o fuente (clase, nivel o raza)", anyWord("clase", "class", "nivel", "level", "raza", "race", "subclase", "subclass")},
	},
}

var themeTemplates = map[Theme]string{
	ThemeItem: `Nombre del objeto:
Categoría, rareza (requiere sintonización?)
Descripción breve en una o dos frases.
Rasgo: nombre. Efecto pasivo.
Acción: nombre. Acción/adicional/reacción, alcance, CD o tirada, daño (XdY tipo), cargas y recarga.`,
	ThemeSpell: `Nombre del conjuro:
Nivel N, escuela
Tiempo de lanzamiento, alcance, componentes (V, S, M: material), duración (concentración?)
Efecto con salvación (CD, característica) o ataque, daño XdY tipo.
A niveles superiores: escalado.`,
	ThemeFeature: `Nombre del rasgo:
Fuente (clase/subclase/raza, nivel)
Acción/adicional/reacción o pasivo
Efecto concreto con números (CD, dados, distancia)
Usos: N por descanso corto/largo.`,
}

// Coaching is the graded feedback for one practice prompt.
type Coaching struct {
	Theme   Theme
	Score   int
	Total   int
	Missing []string
	Reply   string
}

// Coach grades how well prompt describes a sheet change and returns a
// template for its theme. It never proposes actions.
func Coach(prompt string) Coaching {
	theme := DetectTheme(prompt)
	norm := textmatch.Normalize(prompt)
	criteria := append(append([]criterion{}, commonCriteria...), themeCriteria[theme]...)

	c := Coaching{Theme: theme, Total: len(criteria)}
	for _, cr := range criteria {
		if cr.test(prompt, norm) {
			c.Score++
		} else {
			c.Missing = append(c.Missing, cr.label)
		}
	}
	c.Reply = coachingReply(c)
	return c
}

func coachingReply(c Coaching) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Modo entrenamiento (%s): %d/%d.\n", c.Theme, c.Score, c.Total)
	if len(c.Missing) == 0 {
		b.WriteString("La instrucción está completa; el asistente podría aplicarla sin adivinar.\n")
	} else {
		b.WriteString("Para que la instrucción sea aplicable sin ambigüedad falta:\n")
		for _, m := range c.Missing {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	b.WriteString("\nPlantilla sugerida:\n")
	b.WriteString(themeTemplates[c.Theme])
	return b.String()
}
