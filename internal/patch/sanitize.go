package patch

import (
	"sort"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// SanitizeAttachment coerces one attachment. A name is required.
func SanitizeAttachment(raw any) *Attachment {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	a := sanitizeAttachmentFields(m)
	if a.Name == "" {
		return nil
	}
	if t, ok := NormalizeAttachmentType(str(m["type"], maxShortText)); ok {
		a.Type = t
	}
	return &a
}

// sanitizeAttachmentFields reads the structured body shared by attachments and
// custom spell/feature entries. It ignores "type", which only attachments carry.
func sanitizeAttachmentFields(m map[string]any) Attachment {
	a := Attachment{
		ID:              str(m["id"], maxIDLen),
		Name:            str(first(m, "name", "title"), maxNameLen),
		Description:     str(m["description"], maxDescriptionLen),
		Level:           intIn(m["level"], 0, 9),
		School:          str(m["school"], maxShortText),
		CastingTime:     str(m["casting_time"], maxShortText),
		CastingTimeNote: str(m["casting_time_note"], maxShortText),
		Range:           str(m["range"], maxShortText),
		Components:      sanitizeComponents(m["components"]),
		Materials:       str(m["materials"], maxMediumText),
		Duration:        str(m["duration"], maxShortText),
		Concentration:   boolean(m["concentration"]),
		Ritual:          boolean(m["ritual"]),
		ResourceCost:    sanitizeResourceCost(m["resource_cost"]),
		Save:            sanitizeSave(m["save"]),
		Damage:          sanitizeDamage(m["damage"]),
		Requirements:    str(m["requirements"], maxMediumText),
		Effect:          str(m["effect"], maxDescriptionLen),
	}
	if at, ok := NormalizeActionType(str(m["action_type"], maxShortText)); ok {
		a.ActionType = at
	}
	return a
}

func sanitizeComponents(raw any) *Components {
	var c Components
	switch v := raw.(type) {
	case map[string]any:
		c = Components{
			Verbal:   boolean(first(v, "verbal", "v")),
			Somatic:  boolean(first(v, "somatic", "s")),
			Material: boolean(first(v, "material", "m")),
		}
	case string:
		// "V, S, M" shorthand.
		t, f := true, false
		c = Components{Verbal: &f, Somatic: &f, Material: &f}
		found := false
		for _, part := range strings.FieldsFunc(strings.ToUpper(v), func(r rune) bool {
			return r == ',' || r == ' ' || r == '/' || r == '+'
		}) {
			switch part {
			case "V":
				c.Verbal, found = &t, true
			case "S":
				c.Somatic, found = &t, true
			case "M":
				c.Material, found = &t, true
			}
		}
		if !found {
			return nil
		}
	default:
		return nil
	}
	if c.Verbal == nil && c.Somatic == nil && c.Material == nil {
		return nil
	}
	return &c
}

func sanitizeResourceCost(raw any) *ResourceCost {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	rc := ResourceCost{
		UsesSpellSlot: boolean(m["uses_spell_slot"]),
		SlotLevel:     intIn(m["slot_level"], 0, 9),
		Charges:       intIn(m["charges"], 0, 99),
		Recharge:      str(m["recharge"], maxShortText),
		Points:        intIn(m["points"], 0, 99),
		PointsLabel:   str(m["points_label"], maxShortText),
	}
	if rc == (ResourceCost{}) {
		return nil
	}
	return &rc
}

func sanitizeSave(raw any) *Save {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	s := Save{
		Type:    str(m["type"], maxShortText),
		DCValue: intIn(m["dc_value"], 1, 30),
	}
	if ab, ok := NormalizeAbility(str(m["save_ability"], maxShortText)); ok {
		s.SaveAbility = ab
	}
	if ab, ok := NormalizeAbility(str(m["dc_stat"], maxShortText)); ok {
		s.DCStat = ab
	}
	switch textmatch.Normalize(str(m["dc_type"], maxShortText)) {
	case "fixed", "fijo", "fija":
		s.DCType = "fixed"
	case "spell", "conjuro", "spellcasting":
		s.DCType = "spell"
	}
	if s == (Save{}) {
		return nil
	}
	return &s
}

func sanitizeDamage(raw any) *Damage {
	var d Damage
	switch v := raw.(type) {
	case map[string]any:
		d = Damage{
			Dice:    str(v["dice"], maxShortText),
			Scaling: str(v["scaling"], maxMediumText),
		}
		dt := str(v["damage_type"], maxShortText)
		if canon, ok := NormalizeDamageType(dt); ok {
			d.DamageType = canon
		} else {
			d.DamageType = dt
		}
	case string:
		d.Dice = clip(v, maxShortText)
	default:
		return nil
	}
	if d == (Damage{}) {
		return nil
	}
	return &d
}

func sanitizeAttachments(raw any) []Attachment {
	list, ok := asList(raw)
	if !ok {
		return nil
	}
	var out []Attachment
	for _, r := range list {
		if len(out) == maxAttachments {
			break
		}
		if a := SanitizeAttachment(r); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// SanitizeConfiguration coerces one named item mode. A name is required.
func SanitizeConfiguration(raw any) *ConfigurationPatch {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	c := ConfigurationPatch{
		Name:        str(first(m, "name", "title"), maxNameLen),
		Description: str(m["description"], maxDescriptionLen),
		Usage:       str(m["usage"], maxMediumText),
		Damage:      str(m["damage"], maxShortText),
		Range:       str(m["range"], maxShortText),
		MagicBonus:  intIn(m["magic_bonus"], -10, 10),
		Attachments: sanitizeAttachments(m["attachments"]),
	}
	if c.Name == "" {
		return nil
	}
	return &c
}

// SanitizeItemPatch coerces an item patch. target_item_name is required; a
// trailing price fragment on it (or on new_name) is moved into price.
func SanitizeItemPatch(raw any) *ItemPatch {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	p := ItemPatch{
		TargetItemName:      str(first(m, "target_item_name", "name", "item_name"), maxNameLen),
		NewName:             str(m["new_name"], maxNameLen),
		CreateIfMissing:     flag(m["create_if_missing"]),
		Equipped:            boolean(m["equipped"]),
		Attuned:             boolean(m["attuned"]),
		Quantity:            intIn(m["quantity"], 0, 9999),
		Weight:              floatIn(m["weight"], 0, 10000),
		Price:               str(m["price"], maxShortText),
		Description:         str(m["description"], maxDescriptionLen),
		Usage:               str(m["usage"], maxMediumText),
		Damage:              str(m["damage"], maxShortText),
		Range:               str(m["range"], maxShortText),
		MagicBonus:          intIn(m["magic_bonus"], -10, 10),
		ActiveConfiguration: str(m["active_configuration"], maxNameLen),
		AttachmentsAdd:      sanitizeAttachments(m["attachments_add"]),
		AttachmentsReplace:  sanitizeAttachments(m["attachments_replace"]),
		ClearAttachments:    flag(m["clear_attachments"]),
	}
	if p.TargetItemName == "" {
		return nil
	}
	var price string
	if p.TargetItemName, price = StripPrice(p.TargetItemName); price != "" && p.Price == "" {
		p.Price = price
	}
	if p.NewName != "" {
		if p.NewName, price = StripPrice(p.NewName); price != "" && p.Price == "" {
			p.Price = price
		}
	}
	if c, ok := NormalizeCategory(str(m["category"], maxShortText)); ok {
		p.Category = c
	}
	if r, ok := NormalizeRarity(str(m["rarity"], maxShortText)); ok {
		p.Rarity = r
	}
	p.Tags = sanitizeTags(m["tags"])
	if list, ok := asList(m["configurations_replace"]); ok {
		for _, r := range list {
			if len(p.ConfigurationsReplace) == maxConfigurations {
				break
			}
			if c := SanitizeConfiguration(r); c != nil {
				p.ConfigurationsReplace = append(p.ConfigurationsReplace, *c)
			}
		}
	}
	return &p
}

func sanitizeTags(raw any) []string {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case string:
		for _, s := range strings.Split(v, ",") {
			items = append(items, s)
		}
	default:
		return nil
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, it := range items {
		if len(tags) == maxTags {
			break
		}
		t := str(it, maxTagLen)
		if t == "" {
			continue
		}
		key := textmatch.Normalize(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

func sanitizeCustomEntry(m map[string]any, allowed ...string) (CustomEntry, bool) {
	e := CustomEntry{
		Attachment:      sanitizeAttachmentFields(m),
		NewName:         str(m["new_name"], maxNameLen),
		CreateIfMissing: flag(m["create_if_missing"]),
		Remove:          flag(m["remove"]),
	}
	if e.Name == "" {
		return e, false
	}
	coll := str(m["collection"], maxShortText)
	for _, a := range allowed {
		if strings.EqualFold(coll, a) {
			e.Collection = a
			break
		}
	}
	return e, true
}

// SanitizeCustomSpellPatch coerces a custom spell/cantrip upsert or removal.
func SanitizeCustomSpellPatch(raw any) *CustomSpellPatch {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	e, ok := sanitizeCustomEntry(m, CollectionCustomSpells, CollectionCustomCantrips)
	if !ok {
		return nil
	}
	return &CustomSpellPatch{CustomEntry: e}
}

// SanitizeCustomFeaturePatch coerces a custom trait/class ability upsert or removal.
func SanitizeCustomFeaturePatch(raw any) *CustomFeaturePatch {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	e, ok := sanitizeCustomEntry(m, CollectionCustomTraits, CollectionCustomClassAbilities)
	if !ok {
		return nil
	}
	return &CustomFeaturePatch{CustomEntry: e}
}

// SanitizeLearnedSpellPatch coerces a learn/forget request. The level and one
// of spell_name or spell_index are required.
func SanitizeLearnedSpellPatch(raw any) *LearnedSpellPatch {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	var action LearnedAction
	switch textmatch.Normalize(str(m["action"], maxShortText)) {
	case "learn", "add", "aprender", "aprende", "anadir":
		action = LearnSpell
	case "forget", "remove", "olvidar", "olvida", "quitar":
		action = ForgetSpell
	default:
		return nil
	}
	level := intIn(first(m, "spell_level", "level"), 0, 9)
	if level == nil {
		return nil
	}
	p := LearnedSpellPatch{
		Action:     action,
		SpellLevel: *level,
		SpellName:  str(first(m, "spell_name", "name"), maxNameLen),
		SpellIndex: strings.ToLower(str(first(m, "spell_index", "index"), maxIDLen)),
	}
	if p.SpellName == "" && p.SpellIndex == "" {
		return nil
	}
	return &p
}

// SanitizeStats keeps recognized ability keys, rounded and clamped to [1,30].
func SanitizeStats(raw any) Stats {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Sorted so that aliases of the same ability resolve the same way every time.
	sort.Strings(keys)
	out := Stats{}
	for _, k := range keys {
		key, ok := NormalizeAbility(k)
		if !ok {
			continue
		}
		if n := intIn(m[k], 1, 30); n != nil {
			out[key] = *n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SanitizeDetailsPatch keeps recognized detail keys. An empty string or null
// value becomes a nil entry, which deletes the field.
func SanitizeDetailsPatch(raw any) map[string]*string {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	out := make(map[string]*string)
	for k, v := range m {
		key := strings.ReplaceAll(textmatch.Normalize(k), " ", "_")
		if _, known := detailKeySet[key]; !known {
			continue
		}
		switch val := v.(type) {
		case nil:
			out[key] = nil
		case string:
			s := clip(val, maxDetailLen)
			if s == "" {
				out[key] = nil
			} else {
				out[key] = &s
			}
		case float64:
			s := str(val, maxDetailLen)
			out[key] = &s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SanitizeActionData coerces the data block of an action. Only the first
// valid patch variant is kept, in the order item, learned spell, custom spell,
// custom feature.
func SanitizeActionData(raw any) *ActionData {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	d := ActionData{
		Name:         str(m["name"], maxNameLen),
		Class:        str(m["class"], maxShortText),
		Race:         str(m["race"], maxShortText),
		Level:        intIn(m["level"], 1, 20),
		Experience:   intIn(m["experience"], 0, 1_000_000),
		ArmorClass:   intIn(m["armor_class"], 0, 40),
		Speed:        intIn(m["speed"], 0, 200),
		CurrentHP:    intIn(m["current_hp"], 0, 9999),
		MaxHP:        intIn(m["max_hp"], 1, 9999),
		OwnerID:      str(m["owner_id"], maxIDLen),
		Stats:        SanitizeStats(m["stats"]),
		DetailsPatch: SanitizeDetailsPatch(m["details_patch"]),
	}
	if ct, ok := lookup(characterTypeAliases, str(m["character_type"], maxShortText)); ok {
		d.CharacterType = ct
	}
	switch {
	case setVariant(&d, SanitizeItemPatch(m["item_patch"])):
	case setVariant(&d, SanitizeLearnedSpellPatch(m["learned_spell_patch"])):
	case setVariant(&d, SanitizeCustomSpellPatch(m["custom_spell_patch"])):
	case setVariant(&d, SanitizeCustomFeaturePatch(m["custom_feature_patch"])):
	}
	if d.IsEmpty() {
		return nil
	}
	return &d
}

// setVariant stores p when it is a non-nil pointer. Typed nil pointers
// arrive here as non-nil interfaces, hence the explicit checks.
func setVariant(d *ActionData, v Variant) bool {
	switch p := v.(type) {
	case *ItemPatch:
		if p == nil {
			return false
		}
	case *LearnedSpellPatch:
		if p == nil {
			return false
		}
	case *CustomSpellPatch:
		if p == nil {
			return false
		}
	case *CustomFeaturePatch:
		if p == nil {
			return false
		}
	default:
		return false
	}
	d.SetVariant(v)
	return true
}

// SanitizeAction coerces one action. characterId is kept as given; use
// SanitizeActions to resolve it against a default target.
func SanitizeAction(raw any) *Action {
	m, ok := asObject(raw)
	if !ok {
		return nil
	}
	var op Operation
	switch textmatch.Normalize(str(m["operation"], maxShortText)) {
	case "create", "crear", "new":
		op = OperationCreate
	case "update", "actualizar", "edit", "":
		op = OperationUpdate
	default:
		return nil
	}
	data := SanitizeActionData(m["data"])
	if data == nil {
		return nil
	}
	a := Action{
		Operation: op,
		Note:      str(m["note"], maxNoteLen),
		Data:      *data,
	}
	if op == OperationCreate {
		if data.Name == "" {
			return nil
		}
		return &a
	}
	a.CharacterID = str(first(m, "characterId", "character_id"), maxIDLen)
	return &a
}

// SanitizeActions coerces a list of actions, dropping invalid entries and
// keeping at most MaxActions. Updates without a characterId take
// defaultTarget; if that is empty too they are dropped.
func SanitizeActions(raw any, defaultTarget string) []Action {
	list, ok := asList(raw)
	if !ok {
		return nil
	}
	defaultTarget = clip(defaultTarget, maxIDLen)
	out := make([]Action, 0, MaxActions)
	for _, r := range list {
		if len(out) == MaxActions {
			break
		}
		a := SanitizeAction(r)
		if a == nil {
			continue
		}
		if a.Operation == OperationUpdate && a.CharacterID == "" {
			if defaultTarget == "" {
				continue
			}
			a.CharacterID = defaultTarget
		}
		out = append(out, *a)
	}
	return out
}
