// Package intent decides what kind of turn a prompt is before any planning
// happens: a help request, a sheet mutation or plain conversation.
package intent

import (
	"regexp"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// Intent is the classification of one prompt.
type Intent string

const (
	Capabilities Intent = "capabilities"
	Mutation     Intent = "mutation"
	Chat         Intent = "chat"
)

// minTargetedLength is the normalized length above which any prompt aimed at
// a resolved character counts as a mutation.
const minTargetedLength = 12

// capabilityPatterns match help requests. They run on normalized text.
var capabilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(help|ayuda|\?)$`),
	regexp.MustCompile(`\bwhat can you do\b`),
	regexp.MustCompile(`\bwhat (?:are|is) (?:your|the) (?:capabilities|features|commands)\b`),
	regexp.MustCompile(`\bhow (?:do|can) i use (?:you|this|the assistant)\b`),
	regexp.MustCompile(`\b(?:que|en que) (?:puedes|sabes) hacer\b`),
	regexp.MustCompile(`\bcomo (?:te uso|funcionas|puedo usarte)\b`),
	regexp.MustCompile(`\b(?:que|cuales) (?:son )?tus (?:capacidades|funciones|comandos)\b`),
	regexp.MustCompile(`\b(?:list|show)(?: me)? (?:your )?(?:commands|capabilities)\b`),
	regexp.MustCompile(`\bmuestrame (?:tus )?(?:comandos|capacidades)\b`),
}

// mutationVocabulary is matched on word boundaries against normalized text.
var mutationVocabulary = []string{
	// English verbs
	"add", "create", "give", "update", "edit", "modify", "change", "set", "equip", "unequip",
	"attune", "remove", "delete", "learn", "forget", "level up", "rename", "replace", "increase",
	"decrease", "raise", "lower", "heal", "damage", "make",
	// Spanish verbs
	"anade", "anadir", "agrega", "agregar", "crea", "crear", "dale", "actualiza", "modifica",
	"cambia", "pon", "ponle", "equipa", "desequipa", "sintoniza", "quita", "elimina", "borra",
	"aprende", "aprender", "olvida", "olvidar", "sube", "subir", "baja", "renombra", "reemplaza",
	"cura",
	// Sheet nouns
	"item", "items", "objeto", "objetos", "inventory", "inventario", "spell", "spells", "conjuro",
	"conjuros", "hechizo", "hechizos", "cantrip", "truco", "trait", "rasgo", "feature",
	"habilidad", "weapon", "arma", "armor", "armadura", "potion", "pocion", "ring", "anillo",
	"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma", "fuerza",
	"destreza", "constitucion", "inteligencia", "sabiduria", "carisma", "str", "dex", "wis",
	"cha", "hp", "pv", "hit points", "puntos de golpe", "armor class", "clase de armadura",
	"level", "nivel", "experience", "experiencia", "background", "trasfondo", "alignment",
	"alineamiento",
}

// Classify returns the intent of prompt. hasTarget reports whether a target
// character is already resolved.
func Classify(prompt string, hasTarget bool) Intent {
	norm := textmatch.Normalize(prompt)
	if norm == "" {
		return Chat
	}
	trimmed := strings.Trim(norm, " .!¡¿")
	for _, re := range capabilityPatterns {
		if re.MatchString(trimmed) {
			return Capabilities
		}
	}
	for _, w := range mutationVocabulary {
		if textmatch.ContainsWord(norm, w) {
			return Mutation
		}
	}
	if hasTarget && len([]rune(norm)) >= minTargetedLength {
		return Mutation
	}
	return Chat
}
