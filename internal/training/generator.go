package training

import (
	"fmt"
	"math/rand/v2"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

type itemBase struct {
	noun     string
	category string
	damage   string
}

var itemBases = []itemBase{
	{"Espada", "weapon", "1d8 cortante"},
	{"Daga", "weapon", "1d4 perforante"},
	{"Hacha", "weapon", "1d12 cortante"},
	{"Arco", "weapon", "1d8 perforante"},
	{"Báculo", "wand", ""},
	{"Varita", "wand", ""},
	{"Amuleto", "wondrous", ""},
	{"Capa", "wondrous", ""},
	{"Anillo", "ring", ""},
	{"Yelmo", "armor", ""},
	{"Guantelete", "armor", ""},
	{"Orbe", "wondrous", ""},
}

var epithets = []string{
	"de las Cenizas", "del Alba Rota", "de la Marea Silente", "del Último Juramento",
	"de Escarcha Viva", "del Eclipse", "de los Susurros", "de la Llama Errante",
	"del Abismo Quieto", "de la Tormenta Dormida", "del Bosque Hundido", "de Sangre de Grifo",
}

var rarities = []string{"uncommon", "rare", "rare", "very_rare", "legendary"}

var origins = []string{
	"forjado por los enanos de Khazrak",
	"hallado en una cripta anegada",
	"bendecido por un templo olvidado",
	"robado a un liche menor",
	"tallado por druidas del círculo lunar",
	"arrancado del corazón de un elemental",
}

var materials = []string{
	"acero estelar", "hueso de dragón", "plata lunar", "obsidiana viva", "madera de fresno antiguo", "cristal de tormenta",
}

var damageTypes = []string{"fire", "cold", "lightning", "radiant", "necrotic", "thunder", "psychic"}

var abilities = []string{"str", "dex", "con", "int", "wis", "cha"}

type archetype func(r *rand.Rand) patch.Attachment

var traitArchetypes = []archetype{
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentTrait, Name: "Aura Tenue",
			Description: "Emite luz tenue en un radio de 3 m mientras se porta."}
	},
	func(r *rand.Rand) patch.Attachment {
		dt := pick(r, damageTypes)
		return patch.Attachment{Type: patch.AttachmentTrait, Name: "Resistencia Elemental",
			Description: fmt.Sprintf("Mientras lo llevas, tienes resistencia al daño de %s.", dt)}
	},
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentTrait, Name: "Sentido Arcano",
			Description: "Percibes la presencia de magia a 9 m."}
	},
}

var abilityArchetypes = []archetype{
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentAbility, Name: "Puntería Certera",
			Description: "Obtienes +1 a las tiradas de ataque con este objeto."}
	},
	func(r *rand.Rand) patch.Attachment {
		dice := fmt.Sprintf("1d%d", []int{4, 6, 8}[r.IntN(3)])
		return patch.Attachment{Type: patch.AttachmentAbility, Name: "Filo Imbuido",
			Description: "Los impactos infligen daño adicional.",
			Damage:      &patch.Damage{Dice: dice, DamageType: pick(r, damageTypes)}}
	},
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentAbility, Name: "Foco Canalizador",
			Description: "Sirve como foco arcano para tus conjuros."}
	},
}

var actionArchetypes = []archetype{
	func(r *rand.Rand) patch.Attachment {
		charges := 1 + r.IntN(3)
		return patch.Attachment{Type: patch.AttachmentAction, Name: "Estallido",
			Description: "Liberas una onda de fuerza que empuja a las criaturas cercanas.",
			ActionType:  "action", Range: "3 m",
			ResourceCost: &patch.ResourceCost{Charges: &charges, Recharge: "descanso largo"},
			Save:         &patch.Save{SaveAbility: "str", DCType: "fixed", DCValue: intPtr(12 + r.IntN(5))}}
	},
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentAction, Name: "Paso Sombrío",
			Description: "Te teletransportas a un espacio en penumbra que puedas ver.",
			ActionType:  "bonus_action", Range: "9 m",
			ResourceCost: &patch.ResourceCost{Charges: intPtr(1), Recharge: "descanso corto"}}
	},
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentAction, Name: "Guardia Refleja",
			Description: "Reduces a la mitad el daño de un ataque que te impacte.",
			ActionType:  "reaction",
			ResourceCost: &patch.ResourceCost{Charges: intPtr(1), Recharge: "amanecer"}}
	},
}

var spellArchetypes = []archetype{
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentSpell, Name: "Lanza de Luz", Level: intPtr(2),
			School: "Evocación", CastingTime: "1 acción", Range: "18 m", Duration: "Instantánea",
			Damage: &patch.Damage{Dice: "3d8", DamageType: "radiant"},
			Save:   &patch.Save{SaveAbility: pick(r, abilities), DCType: "spell"}}
	},
	func(r *rand.Rand) patch.Attachment {
		conc := true
		return patch.Attachment{Type: patch.AttachmentSpell, Name: "Niebla Gélida", Level: intPtr(1),
			School: "Conjuración", CastingTime: "1 acción", Range: "36 m",
			Duration: "Concentración, hasta 1 hora", Concentration: &conc,
			Description: "Una niebla helada oscurece por completo una esfera de 6 m."}
	},
	func(r *rand.Rand) patch.Attachment {
		return patch.Attachment{Type: patch.AttachmentCantrip, Name: "Chispa Errante", Level: intPtr(0),
			School: "Evocación", CastingTime: "1 acción", Range: "36 m",
			Damage: &patch.Damage{Dice: "1d10", DamageType: pick(r, damageTypes), Scaling: "nivel 5, 11 y 17"}}
	},
}

// archetypeGroups spans trait, ability, action and spell.
var archetypeGroups = [][]archetype{traitArchetypes, abilityArchetypes, actionArchetypes, spellArchetypes}

// syntheticItem is one generated practice item.
type syntheticItem struct {
	name     string
	patch    *patch.ItemPatch
	origin   string
	material string
}

func synthesize(r *rand.Rand) syntheticItem {
	base := itemBases[r.IntN(len(itemBases))]
	name := base.noun + " " + pick(r, epithets)
	origin, material := pick(r, origins), pick(r, materials)

	ip := &patch.ItemPatch{
		TargetItemName:  name,
		CreateIfMissing: true,
		Category:        base.category,
		Rarity:          pick(r, rarities),
		Damage:          base.damage,
		Description:     fmt.Sprintf("De %s, %s.", material, origin),
		Tags:            []string{"sandbox"},
	}
	ip.AttachmentsAdd = pickAttachments(r, 3+r.IntN(3))
	return syntheticItem{name: name, patch: ip, origin: origin, material: material}
}

// pickAttachments returns n attachments with distinct names, covering every
// archetype group before repeating one.
func pickAttachments(r *rand.Rand, n int) []patch.Attachment {
	order := r.Perm(len(archetypeGroups))
	seen := make(map[string]bool)
	var out []patch.Attachment
	for i := 0; len(out) < n && i < n*4; i++ {
		group := archetypeGroups[order[i%len(order)]]
		a := group[r.IntN(len(group))](r)
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out
}

func pick(r *rand.Rand, list []string) string { return list[r.IntN(len(list))] }

func intPtr(v int) *int { return &v }
