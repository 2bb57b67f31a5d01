package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

var (
	componentLettersRe = regexp.MustCompile(`(?i)\b([VSM])\b`)
	digitsRe           = regexp.MustCompile(`\d+`)
	rechargeRe         = regexp.MustCompile(`(?i)(?:per|por|each|cada|al)\s+(?:long rest|short rest|day|dawn|descanso largo|descanso corto|dia|día|amanecer)`)
)

// extractFields stores one key:value line on the draft. Item-level labels
// that have no attachment counterpart become description text.
func extractFields(d *draft, l line) {
	a := &d.att
	v := l.value
	d.labels = append(d.labels, strings.ReplaceAll(l.field, "_", " "))

	switch l.field {
	case "school":
		a.School = v
	case "range":
		a.Range = v
	case "duration":
		a.Duration = v
		if textmatch.ContainsWord(textmatch.Normalize(v), "concentration") ||
			textmatch.ContainsWord(textmatch.Normalize(v), "concentracion") {
			a.Concentration = boolPtr(true)
		}
	case "components":
		a.Components, a.Materials = parseComponents(v)
	case "casting_time":
		if m := materialsRe.FindStringSubmatch(v); m != nil {
			a.CastingTimeNote = strings.TrimSpace(m[1])
			v = strings.TrimSpace(materialsRe.ReplaceAllString(v, ""))
		}
		a.CastingTime = v
		if at, ok := patch.NormalizeActionType(v); ok {
			a.ActionType = at
		}
	case "action_type":
		d.activation = true
		if at, ok := patch.NormalizeActionType(v); ok {
			a.ActionType = at
		} else {
			d.prose = append(d.prose, l.text)
		}
	case "save":
		a.Save = parseSave(a.Save, v)
	case "dc":
		s := ensureSave(a.Save)
		if m := digitsRe.FindString(v); m != "" {
			s.DCValue = atoiPtr(m)
			s.DCType = "fixed"
		} else if ability, ok := firstAbility(v); ok {
			s.DCType, s.DCStat = "spell", ability
		}
		a.Save = s
	case "damage":
		if dmg := parseDamage(v); dmg != nil {
			a.Damage = dmg
		} else {
			d.prose = append(d.prose, l.text)
		}
	case "level":
		a.Level = parseLevel(v)
	case "concentration":
		a.Concentration = yesNo(v)
	case "ritual":
		a.Ritual = yesNo(v)
	case "charges":
		rc := ensureCost(a.ResourceCost)
		if m := digitsRe.FindString(v); m != "" {
			rc.Charges = atoiPtr(m)
		}
		if m := rechargeRe.FindString(v); m != "" {
			rc.Recharge = m
		}
		a.ResourceCost = rc
	case "recharge":
		rc := ensureCost(a.ResourceCost)
		rc.Recharge = v
		a.ResourceCost = rc
	case "requirements":
		a.Requirements = v
	case "effect":
		a.Effect = v
	case "type":
		if t, ok := patch.NormalizeAttachmentType(v); ok {
			d.hint = t
		}
	case "description", "area":
		if l.field == "area" {
			d.prose = append(d.prose, l.text)
		} else {
			d.prose = append(d.prose, v)
		}
	default:
		d.prose = append(d.prose, l.text)
	}
}

// applyItemField stores an item-level key:value line. It reports false when
// the label does not belong to the item.
func applyItemField(p *patch.ItemPatch, l line) bool {
	v := l.value
	switch l.field {
	case "category":
		if c, ok := patch.NormalizeCategory(v); ok {
			p.Category = c
		}
	case "rarity":
		if r, ok := patch.NormalizeRarity(v); ok {
			p.Rarity = r
		}
	case "price":
		p.Price = v
	case "weight":
		if m := weightRe.FindString(v); m != "" {
			if f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64); err == nil {
				p.Weight = &f
			}
		}
	case "magic_bonus":
		if m := signedRe.FindString(v); m != "" {
			n, _ := strconv.Atoi(strings.TrimPrefix(m, "+"))
			p.MagicBonus = &n
		}
	case "quantity":
		if m := digitsRe.FindString(v); m != "" {
			p.Quantity = atoiPtr(m)
		}
	case "attunement":
		if b := yesNo(v); b == nil || *b {
			p.Tags = append(p.Tags, "attunement")
		}
	case "damage":
		p.Damage = v
	case "range":
		p.Range = v
	case "usage":
		p.Usage = joinText(p.Usage, v)
	case "description":
		p.Description = joinText(p.Description, v)
	default:
		return false
	}
	return true
}

// applyConfigurationField is applyItemField for a configuration body.
func applyConfigurationField(c *patch.ConfigurationPatch, l line) bool {
	v := l.value
	switch l.field {
	case "damage":
		c.Damage = v
	case "range":
		c.Range = v
	case "usage":
		c.Usage = joinText(c.Usage, v)
	case "description":
		c.Description = joinText(c.Description, v)
	case "magic_bonus":
		if m := signedRe.FindString(v); m != "" {
			n, _ := strconv.Atoi(strings.TrimPrefix(m, "+"))
			c.MagicBonus = &n
		}
	default:
		return false
	}
	return true
}

var (
	weightRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	signedRe = regexp.MustCompile(`[+-]?\d+`)
)

func parseComponents(v string) (*patch.Components, string) {
	materials := ""
	if m := materialsRe.FindStringSubmatch(v); m != nil {
		materials = strings.TrimSpace(m[1])
	}
	letters := materialsRe.ReplaceAllString(v, "")
	c := &patch.Components{}
	for _, m := range componentLettersRe.FindAllStringSubmatch(letters, -1) {
		switch strings.ToUpper(m[1]) {
		case "V":
			c.Verbal = boolPtr(true)
		case "S":
			c.Somatic = boolPtr(true)
		case "M":
			c.Material = boolPtr(true)
		}
	}
	if c.Verbal == nil && c.Somatic == nil && c.Material == nil {
		return nil, materials
	}
	return c, materials
}

func parseSave(s *patch.Save, v string) *patch.Save {
	s = ensureSave(s)
	s.Type = "save"
	if ability, ok := firstAbility(v); ok {
		s.SaveAbility = ability
	}
	if m := dcRe.FindStringSubmatch(v); m != nil {
		s.DCValue = atoiPtr(m[1])
		s.DCType = "fixed"
	}
	return s
}

func parseDamage(v string) *patch.Damage {
	dice := diceRe.FindString(v)
	dmgType := ""
	norm := textmatch.Normalize(v)
	for _, w := range strings.Fields(norm) {
		if t, ok := patch.NormalizeDamageType(w); ok {
			dmgType = t
			break
		}
	}
	if dice == "" && dmgType == "" {
		return nil
	}
	return &patch.Damage{Dice: strings.ReplaceAll(dice, " ", ""), DamageType: dmgType}
}

func parseLevel(v string) *int {
	norm := textmatch.Normalize(v)
	if hasAny(norm, cantripSignals) {
		return intPtr(0)
	}
	if m := digitsRe.FindString(norm); m != "" {
		n, _ := strconv.Atoi(m)
		if n >= 0 && n <= 9 {
			return &n
		}
	}
	return nil
}

func firstAbility(v string) (string, bool) {
	for _, w := range strings.Fields(textmatch.Normalize(v)) {
		w = strings.Trim(w, ",.;()")
		// "con" and "for" are ordinary words in Spanish and English.
		if textmatch.IsStopWord(w) {
			continue
		}
		if a, ok := patch.NormalizeAbility(w); ok {
			return a, true
		}
	}
	return "", false
}

func yesNo(v string) *bool {
	switch textmatch.Normalize(v) {
	case "yes", "si", "true", "y", "s":
		return boolPtr(true)
	case "no", "false", "n":
		return boolPtr(false)
	}
	return nil
}

func ensureSave(s *patch.Save) *patch.Save {
	if s == nil {
		return &patch.Save{}
	}
	return s
}

func ensureCost(rc *patch.ResourceCost) *patch.ResourceCost {
	if rc == nil {
		return &patch.ResourceCost{}
	}
	return rc
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
