package patch

import "github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"

// String limits, in runes.
const (
	maxNameLen        = 120
	maxShortText      = 200
	maxMediumText     = 600
	maxDescriptionLen = 4000
	maxNoteLen        = 500
	maxDetailLen      = 4000
	maxTagLen         = 40
	maxTags           = 12
	maxAttachments    = 16
	maxConfigurations = 6
	maxIDLen          = 80
)

// DetailKeys are the free-text fields accepted in details_patch.
var DetailKeys = []string{
	"alignment", "background", "age", "height", "weight", "eyes", "skin", "hair",
	"appearance", "personality_traits", "ideals", "bonds", "flaws", "backstory",
}

var detailKeySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(DetailKeys))
	for _, k := range DetailKeys {
		m[k] = struct{}{}
	}
	return m
}()

// Alias tables map normalized input to canonical enum values.

var categoryAliases = map[string]string{
	"weapon": "weapon", "arma": "weapon", "weapons": "weapon",
	"armor": "armor", "armour": "armor", "armadura": "armor",
	"shield": "shield", "escudo": "shield",
	"potion": "potion", "pocion": "potion",
	"scroll": "scroll", "pergamino": "scroll",
	"wand": "wand", "varita": "wand", "staff": "wand", "baston": "wand", "rod": "wand", "vara": "wand",
	"ring": "ring", "anillo": "ring",
	"wondrous": "wondrous", "wondrous item": "wondrous", "objeto maravilloso": "wondrous", "maravilloso": "wondrous",
	"tool": "tool", "herramienta": "tool", "tools": "tool",
	"gear": "gear", "equipo": "gear", "adventuring gear": "gear", "equipamiento": "gear",
	"ammunition": "ammunition", "ammo": "ammunition", "municion": "ammunition",
	"misc": "misc", "other": "misc", "otro": "misc", "miscellaneous": "misc", "miscelaneo": "misc",
}

var rarityAliases = map[string]string{
	"common": "common", "comun": "common",
	"uncommon": "uncommon", "poco comun": "uncommon", "infrecuente": "uncommon",
	"rare": "rare", "raro": "rare", "rara": "rare",
	"very rare": "very_rare", "very_rare": "very_rare", "muy raro": "very_rare", "muy rara": "very_rare",
	"legendary": "legendary", "legendario": "legendary", "legendaria": "legendary",
	"artifact": "artifact", "artefacto": "artifact",
}

var attachmentTypeAliases = map[string]AttachmentType{
	"action": AttachmentAction, "accion": AttachmentAction, "actions": AttachmentAction,
	"ability": AttachmentAbility, "habilidad": AttachmentAbility,
	"trait": AttachmentTrait, "rasgo": AttachmentTrait, "passive": AttachmentTrait, "pasiva": AttachmentTrait,
	"spell": AttachmentSpell, "conjuro": AttachmentSpell, "hechizo": AttachmentSpell,
	"cantrip": AttachmentCantrip, "truco": AttachmentCantrip,
	"classfeature": AttachmentClassFeature, "class feature": AttachmentClassFeature,
	"class_feature": AttachmentClassFeature, "rasgo de clase": AttachmentClassFeature,
	"other": AttachmentOther, "otro": AttachmentOther,
}

var actionTypeAliases = map[string]string{
	"action": "action", "accion": "action", "1 action": "action", "1 accion": "action",
	"bonus action": "bonus_action", "bonus_action": "bonus_action", "accion adicional": "bonus_action",
	"reaction": "reaction", "reaccion": "reaction",
	"free": "free", "free action": "free", "gratuita": "free", "accion gratuita": "free",
	"minute": "minute", "1 minute": "minute", "minuto": "minute",
	"hour": "hour", "1 hour": "hour", "hora": "hour",
	"special": "special", "especial": "special",
}

var characterTypeAliases = map[string]string{
	"pc": "pc", "player": "pc", "jugador": "pc", "character": "pc", "personaje": "pc",
	"npc": "npc", "pnj": "npc",
	"companion": "companion", "companero": "companion", "familiar": "companion", "pet": "companion", "mascota": "companion",
	"monster": "monster", "monstruo": "monster", "creature": "monster", "criatura": "monster",
}

var abilityAliases = map[string]string{
	"str": "str", "strength": "str", "fue": "str", "fuerza": "str", "for": "str",
	"dex": "dex", "dexterity": "dex", "des": "dex", "destreza": "dex",
	"con": "con", "constitution": "con", "constitucion": "con",
	"int": "int", "intelligence": "int", "inteligencia": "int",
	"wis": "wis", "wisdom": "wis", "sab": "wis", "sabiduria": "wis",
	"cha": "cha", "charisma": "cha", "car": "cha", "carisma": "cha",
}

var damageTypeAliases = map[string]string{
	"acid": "acid", "acido": "acid",
	"bludgeoning": "bludgeoning", "contundente": "bludgeoning",
	"cold": "cold", "frio": "cold",
	"fire": "fire", "fuego": "fire",
	"force": "force", "fuerza": "force",
	"lightning": "lightning", "relampago": "lightning", "rayo": "lightning", "electrico": "lightning",
	"necrotic": "necrotic", "necrotico": "necrotic",
	"piercing": "piercing", "perforante": "piercing",
	"poison": "poison", "veneno": "poison", "venenoso": "poison",
	"psychic": "psychic", "psiquico": "psychic",
	"radiant": "radiant", "radiante": "radiant",
	"slashing": "slashing", "cortante": "slashing",
	"thunder": "thunder", "trueno": "thunder", "atronador": "thunder",
}

func lookup(table map[string]string, raw string) (string, bool) {
	v, ok := table[textmatch.Normalize(raw)]
	return v, ok
}

// NormalizeCategory maps a category alias to its canonical value.
func NormalizeCategory(raw string) (string, bool) { return lookup(categoryAliases, raw) }

// NormalizeRarity maps a rarity alias to its canonical value.
func NormalizeRarity(raw string) (string, bool) { return lookup(rarityAliases, raw) }

// NormalizeAbility maps an ability alias to its three-letter key.
func NormalizeAbility(raw string) (string, bool) { return lookup(abilityAliases, raw) }

// NormalizeDamageType maps a damage type alias to its canonical value.
func NormalizeDamageType(raw string) (string, bool) { return lookup(damageTypeAliases, raw) }

// NormalizeActionType maps an activation alias to its canonical value.
func NormalizeActionType(raw string) (string, bool) { return lookup(actionTypeAliases, raw) }

// NormalizeAttachmentType maps an attachment type alias to its canonical value.
func NormalizeAttachmentType(raw string) (AttachmentType, bool) {
	v, ok := attachmentTypeAliases[textmatch.Normalize(raw)]
	return v, ok
}
