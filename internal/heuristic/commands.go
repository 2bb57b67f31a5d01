package heuristic

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// commands reads one-line sheet instructions: learn/forget, level, stats,
// hit points and armor class. Learned spells come first, one action each;
// the scalar changes share a single update.
func (p *Parser) commands(text string, target *sheet.Character) []patch.Action {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var actions []patch.Action
	var rest strings.Builder
	last := 0
	for _, m := range learnPattern.FindAllStringSubmatchIndex(text, -1) {
		rest.WriteString(text[last:m[0]])
		rest.WriteString(" ")
		last = m[1]

		verb := strings.ToLower(text[m[2]:m[3]])
		name := cleanSpellName(text[m[4]:m[5]])
		level := -1
		if m[6] >= 0 {
			level, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		if lp := learnedPatch(verb, name, level, target); lp != nil {
			actions = append(actions, updateAction(target, &patch.ActionData{LearnedSpellPatch: lp}))
		}
	}
	rest.WriteString(text[last:])

	if data := scalarChanges(rest.String()); data != nil {
		actions = append(actions, updateAction(target, data))
	}
	return actions
}

func cleanSpellName(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'“”«».,;`))
	norm := textmatch.Normalize(s)
	for _, suffix := range []string{" spell", " cantrip"} {
		if strings.HasSuffix(norm, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

// learnedPatch resolves the spell level from the explicit level, the known
// spell table or, for forget, the character's own spell lists. Unknown
// levels drop the instruction.
func learnedPatch(verb, name string, level int, target *sheet.Character) *patch.LearnedSpellPatch {
	if name == "" {
		return nil
	}
	action := patch.LearnSpell
	if strings.HasPrefix(verb, "forget") || strings.HasPrefix(verb, "olvid") {
		action = patch.ForgetSpell
	}

	lp := &patch.LearnedSpellPatch{Action: action, SpellName: name, SpellLevel: level}
	if known, ok := knownSpells[textmatch.Normalize(name)]; ok {
		lp.SpellIndex = known.Index
		if lp.SpellLevel < 0 {
			lp.SpellLevel = known.Level
		}
	}
	if lp.SpellLevel < 0 && action == patch.ForgetSpell {
		lp.SpellLevel = knownLevel(target, name)
	}
	if lp.SpellLevel < 0 {
		return nil
	}
	return lp
}

// knownLevel finds the level a character already knows name at, or -1.
func knownLevel(target *sheet.Character, name string) int {
	for level := 0; level <= 9; level++ {
		for _, s := range target.Details.Spells[sheet.SpellLevelKey(level)] {
			if textmatch.Equal(s.Name, name) || textmatch.Equal(s.Index, name) {
				return level
			}
		}
	}
	return -1
}

// scalarChanges extracts level, hit points, armor class and stats. It
// returns nil when none are present.
func scalarChanges(text string) *patch.ActionData {
	norm := textmatch.Normalize(text)
	data := &patch.ActionData{}

	for _, re := range levelPatterns {
		if m := re.FindStringSubmatch(norm); m != nil {
			data.Level = atoiPtr(m[1])
			break
		}
	}
	if m := maxHPPattern.FindStringSubmatch(norm); m != nil {
		data.MaxHP = atoiPtr(m[1])
		norm = maxHPPattern.ReplaceAllString(norm, " ")
	}
	if m := hpPattern.FindStringSubmatch(norm); m != nil {
		data.CurrentHP = atoiPtr(m[1])
		if m[2] != "" {
			data.MaxHP = atoiPtr(m[2])
		}
	}
	if m := acPattern.FindStringSubmatch(norm); m != nil {
		data.ArmorClass = atoiPtr(m[1])
	}

	stats := patch.Stats{}
	for _, m := range statPattern.FindAllStringSubmatch(norm, -1) {
		if key, ok := patch.NormalizeAbility(m[1]); ok {
			stats[key], _ = strconv.Atoi(m[2])
		}
	}
	for _, m := range statAbbrevPattern.FindAllStringSubmatch(text, -1) {
		if key, ok := patch.NormalizeAbility(m[1]); ok {
			stats[key], _ = strconv.Atoi(m[2])
		}
	}
	if len(stats) > 0 {
		data.Stats = stats
	}

	if data.IsEmpty() {
		return nil
	}
	return data
}

var (
	itemArticles   = map[string]bool{"a": true, "an": true, "the": true, "un": true, "una": true, "el": true, "la": true}
	itemBoundaries = map[string]bool{
		"to": true, "a": true, "al": true, "for": true, "para": true, "with": true, "con": true,
		"that": true, "que": true, "and": true, "y": true, "in": true, "en": true,
	}
	bonusToken = regexp.MustCompile(`^\+[1-9]$`)
	diceToken  = regexp.MustCompile(`^\+?\d+d\d+$`)
)

// oneLineItem reads "add a +1 dagger to Kaelden" style instructions. The
// item noun must be in the noun table.
func oneLineItem(text string) *patch.ItemPatch {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "\n") {
		text = strings.TrimSpace(text[:strings.Index(text, "\n")])
	}
	orig := strings.Fields(text)
	words := strings.Fields(textmatch.Normalize(text))
	if len(words) < 2 || len(words) != len(orig) || !isCreateVerb(words[0]) {
		return nil
	}

	noun, category := -1, ""
	for i, w := range words {
		if c, ok := itemNouns[strings.Trim(w, ",.;:!")]; ok {
			noun, category = i, c
			break
		}
	}
	if noun < 0 {
		return nil
	}

	item := &patch.ItemPatch{CreateIfMissing: true, Category: category}
	var name []string
scan:
	for i := 1; i < len(words); i++ {
		w := strings.Trim(words[i], ",.;:!")
		switch {
		case i < noun && itemArticles[w]:
			// Anything before the article named the character, not the item.
			name = nil
			continue
		case bonusToken.MatchString(w):
			item.MagicBonus = atoiPtr(w[1:])
			continue
		case diceToken.MatchString(w) && strings.HasPrefix(w, "+"):
			// "+1d4 dagger" is a rider on top of the weapon's own damage.
			item.Description = joinText(item.Description, w+" extra damage")
			continue
		case diceToken.MatchString(w):
			item.Damage = w
			continue
		case i > noun && (itemBoundaries[w] || i > noun+3):
			break scan
		}
		name = append(name, strings.Trim(orig[i], ",.;:!"))
		if i >= noun && strings.ContainsAny(orig[i], ",.;:!") {
			break
		}
	}
	if len(name) == 0 {
		return nil
	}
	item.TargetItemName = capitalize(strings.Join(name, " "))
	return item
}

func isCreateVerb(w string) bool {
	w = strings.Trim(w, ",.;:!¡")
	for _, v := range createVerbs {
		if w == v {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
