package heuristic

import "regexp"

// Keyword tables, English and Spanish, already normalized (lowercase, no
// accents). Every stage reads its signals from here.

// commandVerbs open an instruction line rather than content.
var commandVerbs = []string{
	"add", "create", "give", "update", "edit", "modify", "change", "set", "make", "mutate",
	"equip", "unequip", "remove", "delete", "learn", "forget", "level", "replace", "rename",
	"anade", "agrega", "agregale", "anadele", "crea", "creale", "dale", "actualiza",
	"modifica", "cambia", "pon", "ponle", "equipa", "desequipa", "quita", "elimina",
	"borra", "aprende", "olvida", "sube", "reemplaza", "renombra", "mete", "guarda",
}

// createVerbs mark an instruction that may create missing items.
var createVerbs = []string{
	"add", "create", "give", "make", "new", "anade", "agrega", "agregale", "anadele",
	"crea", "creale", "dale", "nuevo", "nueva", "mete", "guarda",
}

// sectionLabels are generic headings that group lines without naming an
// entity. The value is the attachment type their children default to, or
// one of the item-level pseudo types below.
var sectionLabels = map[string]string{
	"description": sectionDescription, "descripcion": sectionDescription,
	"usage": sectionUsage, "uso": sectionUsage, "use": sectionUsage,
	"properties": "", "propiedades": "", "property": "", "propiedad": "",
	"features": "", "caracteristicas": "", "mechanics": "", "mecanicas": "",
	"effects": "", "efectos": "", "abilities": "ability", "habilidades": "ability",
	"traits": "trait", "rasgos": "trait", "actions": "action", "acciones": "action",
	"spells": "spell", "conjuros": "spell", "hechizos": "spell",
	"cantrips": "cantrip", "trucos": "cantrip",
	"notes": sectionDescription, "notas": sectionDescription,
	"lore": sectionDescription, "historia": sectionDescription,
}

const (
	sectionDescription = "@description"
	sectionUsage       = "@usage"
)

// configurationPrefixes open an item configuration heading.
var configurationPrefixes = []string{"configuration ", "configuracion ", "mode ", "modo "}

// continuationHeadings fold into the preceding spell or cantrip.
var continuationHeadings = []string{
	"initial effect", "secondary effect", "continuous effect",
	"efecto inicial", "efecto secundario", "efecto continuo",
}

// Classification signals, checked in this order.
var (
	passiveSignals = []string{
		"passive", "passively", "pasiva", "pasivo", "pasivamente", "detect", "detects",
		"detector", "detecta", "detectar", "senses", "percibe",
	}
	focusSignals = []string{
		"focus", "foco", "arcane focus", "spellcasting focus", "canalizador", "canalizar magia",
	}
	activationSignals = []string{
		"as an action", "use an action", "bonus action", "as a reaction", "your reaction",
		"special power", "activate", "activated", "once per long rest", "once per short rest",
		"per long rest", "per short rest", "once per day", "times per day", "recharges",
		"como accion", "accion adicional", "como reaccion", "poder especial", "activar",
		"activa", "por descanso largo", "por descanso corto", "una vez al dia",
		"veces al dia", "se recarga", "tras un descanso",
	}
	cantripSignals = []string{"cantrip", "truco"}
	spellCoreSignals = []string{
		"range", "alcance", "duration", "duracion", "components", "componentes",
		"casting time", "tiempo de lanzamiento", "area", "radius", "radio",
	}
	spellAuxSignals = []string{
		"save", "saving throw", "salvacion", "tirada de salvacion", "dc", "cd",
		"slot", "spell slot", "espacio de conjuro", "spell", "conjuro", "hechizo",
	}
	statefulSignals = []string{
		"each turn", "every turn", "start of its turn", "end of its turn", "per turn",
		"ongoing", "stacks", "stack", "burning", "cada turno", "al inicio de su turno",
		"al final de su turno", "por turno", "acumula", "acumulable", "quemadura", "sangrado",
	}
	bonusSignals = []string{
		"advantage", "bonus", "roll", "rolls", "reroll", "ventaja", "bonificador",
		"bonificacion", "tirada", "tiradas", "repetir",
	}
	innateSignals = []string{
		"innate", "innata", "innato", "resistance", "resistencia", "immune", "immunity",
		"inmune", "inmunidad", "always", "siempre", "permanent", "permanente",
	}
)

// fieldLabels maps a normalized "key:" label to a structured field.
var fieldLabels = map[string]string{
	"school": "school", "escuela": "school",
	"range": "range", "alcance": "range",
	"duration": "duration", "duracion": "duration",
	"components": "components", "componentes": "components",
	"casting time": "casting_time", "tiempo de lanzamiento": "casting_time", "lanzamiento": "casting_time",
	"save": "save", "saving throw": "save", "salvacion": "save", "tirada de salvacion": "save",
	"dc": "dc", "cd": "dc",
	"damage": "damage", "dano": "damage",
	"level": "level", "nivel": "level",
	"concentration": "concentration", "concentracion": "concentration",
	"ritual": "ritual",
	"charges": "charges", "cargas": "charges", "uses": "charges", "usos": "charges",
	"recharge": "recharge", "recarga": "recharge",
	"requirements": "requirements", "requisitos": "requirements", "requirement": "requirements", "requisito": "requirements",
	"effect": "effect", "efecto": "effect",
	"area": "area",
	"action": "action_type", "accion": "action_type", "activation": "action_type", "activacion": "action_type",
	"type": "type", "tipo": "type",
	"description": "description", "descripcion": "description",
	"usage": "usage", "uso": "usage",
	// Item-level fields
	"category": "category", "categoria": "category",
	"rarity": "rarity", "rareza": "rarity",
	"price": "price", "precio": "price", "cost": "price", "coste": "price", "costo": "price", "valor": "price",
	"weight": "weight", "peso": "weight",
	"bonus": "magic_bonus", "magic bonus": "magic_bonus", "bonificador": "magic_bonus",
	"attunement": "attunement", "sintonizacion": "attunement", "vinculacion": "attunement",
	"quantity": "quantity", "cantidad": "quantity",
}

// itemNouns name an item in one-line "add a dagger" instructions, mapped to
// its category.
var itemNouns = map[string]string{
	"dagger": "weapon", "daga": "weapon", "sword": "weapon", "espada": "weapon",
	"longsword": "weapon", "axe": "weapon", "hacha": "weapon", "bow": "weapon", "arco": "weapon",
	"crossbow": "weapon", "ballesta": "weapon", "mace": "weapon", "maza": "weapon",
	"spear": "weapon", "lanza": "weapon", "hammer": "weapon", "martillo": "weapon",
	"armor": "armor", "armadura": "armor", "shield": "shield", "escudo": "shield",
	"potion": "potion", "pocion": "potion", "scroll": "scroll", "pergamino": "scroll",
	"wand": "wand", "varita": "wand", "staff": "wand", "baston": "wand",
	"ring": "ring", "anillo": "ring", "amulet": "wondrous", "amuleto": "wondrous",
	"cloak": "wondrous", "capa": "wondrous", "boots": "wondrous", "botas": "wondrous",
	"rope": "gear", "cuerda": "gear", "torch": "gear", "antorcha": "gear",
	"arrows": "ammunition", "flechas": "ammunition", "bolts": "ammunition", "virotes": "ammunition",
}

// Shared patterns.
var (
	bulletPrefix     = regexp.MustCompile(`^(?:[-*•·>]+|\d{1,2}[.)])\s+`)
	embeddedCommand  = regexp.MustCompile(`(?i)\s*[(\[](?:add|create|give|please|anade|añade|agrega|crea|dale|por favor)[^)\]]*[)\]]\s*$`)
	keyValueLine     = regexp.MustCompile(`^([\p{L}][\p{L} ]{0,28}?)\s*:\s*(.+)$`)
	diceRe           = regexp.MustCompile(`\d+d\d+(?:\s*[+-]\s*\d+)?`)
	dcRe             = regexp.MustCompile(`(?i)\b(?:dc|cd)\s*:?\s*(\d{1,2})\b`)
	magicBonusRe     = regexp.MustCompile(`(?:^|\s)\+([1-9])\b(?:\s|$)`)
	batchCountRe     = regexp.MustCompile(`\b(?:these|estos|estas|los|las|create|crea)\s+(\d{1,2})\b`)
	materialsRe      = regexp.MustCompile(`\(([^)]+)\)`)
	terminalPunctRe  = regexp.MustCompile(`[.!?;]$`)
	levelPatterns    = []*regexp.Regexp{
		regexp.MustCompile(`\blevel\s+(?:\S+\s+){0,2}?up\s+to\s+(\d{1,2})\b`),
		regexp.MustCompile(`\b(?:to|a|al)\s+(?:level|nivel)\s+(\d{1,2})\b`),
		regexp.MustCompile(`\b(?:sube|subir|subelo|subela)\b.{0,40}?\bnivel\s+(\d{1,2})\b`),
		regexp.MustCompile(`\b(?:set|pon|ponle|cambia)\b.{0,30}?\b(?:level|nivel)\s+(?:to\s+|a\s+)?(\d{1,2})\b`),
	}
	learnPattern = regexp.MustCompile(`(?im)\b(learn|learns|aprende|aprender|forget|forgets|olvida|olvidar)\s+(?:the\s+spell\s+|el\s+conjuro\s+|el\s+hechizo\s+|el\s+truco\s+)?(.+?)(?:\s+(?:at\s+|de\s+)?(?:level|nivel)\s+(\d))?(?:\s+(?:and|y)\s+|\s*[,.;]|$)`)
	statPattern  = regexp.MustCompile(`\b(str|dex|wis|cha|strength|dexterity|constitution|intelligence|wisdom|charisma|fuerza|destreza|constitucion|inteligencia|sabiduria|carisma)\s*(?:to|a|=|:)?\s*(\d{1,2})\b`)
	// Ambiguous abbreviations ("con", "int", "car") only count in upper case.
	statAbbrevPattern = regexp.MustCompile(`\b(CON|INT|FUE|DES|SAB|CAR|FOR)\s*(?:to|a|=|:)?\s*(\d{1,2})\b`)
	maxHPPattern = regexp.MustCompile(`\b(?:max(?:imum)?\s+hp|hp\s+max(?:imo)?|pv\s+maximos?|vida\s+maxima|puntos de golpe maximos)\s*(?:to|a|=|:)?\s*(\d{1,4})\b`)
	hpPattern    = regexp.MustCompile(`\b(?:hp|pv|hit points|puntos de golpe|vida)\s*(?:to|a|=|:)?\s*(\d{1,4})(?:\s*/\s*(\d{1,4}))?\b`)
	acPattern    = regexp.MustCompile(`\b(?:ac|ca|armor class|clase de armadura)\s*(?:to|a|=|:)?\s*(\d{1,2})\b`)
)

// knownSpells gives the level and index of common spells so a one-line
// "learn Fireball" can be filed without a model. Keys are normalized names.
var knownSpells = map[string]struct {
	Index string
	Level int
}{
	"fire bolt": {"fire-bolt", 0}, "descarga de fuego": {"fire-bolt", 0},
	"light": {"light", 0}, "luz": {"light", 0},
	"mage hand": {"mage-hand", 0}, "mano de mago": {"mage-hand", 0},
	"prestidigitation": {"prestidigitation", 0}, "prestidigitacion": {"prestidigitation", 0},
	"sacred flame": {"sacred-flame", 0}, "llama sagrada": {"sacred-flame", 0},
	"eldritch blast": {"eldritch-blast", 0}, "descarga sobrenatural": {"eldritch-blast", 0},
	"guidance": {"guidance", 0}, "orientacion divina": {"guidance", 0},
	"magic missile": {"magic-missile", 1}, "proyectil magico": {"magic-missile", 1},
	"shield": {"shield", 1}, "escudo": {"shield", 1},
	"cure wounds": {"cure-wounds", 1}, "curar heridas": {"cure-wounds", 1},
	"healing word": {"healing-word", 1}, "palabra de curacion": {"healing-word", 1},
	"bless": {"bless", 1}, "bendecir": {"bless", 1},
	"sleep": {"sleep", 1}, "dormir": {"sleep", 1},
	"thunderwave": {"thunderwave", 1}, "onda atronadora": {"thunderwave", 1},
	"detect magic": {"detect-magic", 1}, "detectar magia": {"detect-magic", 1},
	"misty step": {"misty-step", 2}, "paso brumoso": {"misty-step", 2},
	"hold person": {"hold-person", 2}, "inmovilizar persona": {"hold-person", 2},
	"invisibility": {"invisibility", 2}, "invisibilidad": {"invisibility", 2},
	"scorching ray": {"scorching-ray", 2}, "rayo abrasador": {"scorching-ray", 2},
	"spiritual weapon": {"spiritual-weapon", 2}, "arma espiritual": {"spiritual-weapon", 2},
	"fireball": {"fireball", 3}, "bola de fuego": {"fireball", 3},
	"counterspell": {"counterspell", 3}, "contrahechizo": {"counterspell", 3},
	"lightning bolt": {"lightning-bolt", 3}, "relampago": {"lightning-bolt", 3},
	"fly": {"fly", 3}, "volar": {"fly", 3},
	"revivify": {"revivify", 3}, "revivir": {"revivify", 3},
	"haste": {"haste", 3}, "acelerar": {"haste", 3},
	"polymorph": {"polymorph", 4}, "polimorfar": {"polymorph", 4},
	"greater invisibility": {"greater-invisibility", 4}, "invisibilidad mayor": {"greater-invisibility", 4},
	"cone of cold": {"cone-of-cold", 5}, "cono de frio": {"cone-of-cold", 5},
	"raise dead": {"raise-dead", 5}, "revivir a los muertos": {"raise-dead", 5},
}
