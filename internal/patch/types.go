// Package patch defines the typed mutation model produced from untrusted JSON
// (model output, heuristic output or replayed client edits) and the sanitizers
// that are the only way to build it.
package patch

// Operation is the kind of change an Action requests.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

// MaxActions bounds the number of actions in one plan.
const MaxActions = 4

// Action is a single proposed mutation.
type Action struct {
	Operation   Operation  `json:"operation"`
	CharacterID string     `json:"characterId,omitempty"`
	Note        string     `json:"note,omitempty"`
	Data        ActionData `json:"data"`
}

// ActionData is a sparse bag of optional fields. At most one patch variant is set.
type ActionData struct {
	Name          string `json:"name,omitempty"`
	Class         string `json:"class,omitempty"`
	Race          string `json:"race,omitempty"`
	Level         *int   `json:"level,omitempty"`
	Experience    *int   `json:"experience,omitempty"`
	ArmorClass    *int   `json:"armor_class,omitempty"`
	Speed         *int   `json:"speed,omitempty"`
	CurrentHP     *int   `json:"current_hp,omitempty"`
	MaxHP         *int   `json:"max_hp,omitempty"`
	CharacterType string `json:"character_type,omitempty"`
	OwnerID       string `json:"owner_id,omitempty"`

	Stats        Stats              `json:"stats,omitempty"`
	DetailsPatch map[string]*string `json:"details_patch,omitempty"`

	ItemPatch          *ItemPatch          `json:"item_patch,omitempty"`
	LearnedSpellPatch  *LearnedSpellPatch  `json:"learned_spell_patch,omitempty"`
	CustomSpellPatch   *CustomSpellPatch   `json:"custom_spell_patch,omitempty"`
	CustomFeaturePatch *CustomFeaturePatch `json:"custom_feature_patch,omitempty"`
}

// Stats maps ability keys (str, dex, con, int, wis, cha) to scores in [1,30].
type Stats map[string]int

// AbilityKeys is the fixed, ordered set of stat keys.
var AbilityKeys = []string{"str", "dex", "con", "int", "wis", "cha"}

// Kind tags a patch variant.
type Kind string

const (
	KindItem          Kind = "item"
	KindLearnedSpell  Kind = "learned_spell"
	KindCustomSpell   Kind = "custom_spell"
	KindCustomFeature Kind = "custom_feature"
)

// Variant is implemented by every patch kind and by nothing else.
type Variant interface {
	Kind() Kind
	sealed()
}

func (*ItemPatch) Kind() Kind          { return KindItem }
func (*LearnedSpellPatch) Kind() Kind  { return KindLearnedSpell }
func (*CustomSpellPatch) Kind() Kind   { return KindCustomSpell }
func (*CustomFeaturePatch) Kind() Kind { return KindCustomFeature }

func (*ItemPatch) sealed()          {}
func (*LearnedSpellPatch) sealed()  {}
func (*CustomSpellPatch) sealed()   {}
func (*CustomFeaturePatch) sealed() {}

// Variant returns the action's patch, or nil when it only touches scalar fields.
func (d *ActionData) Variant() Variant {
	switch {
	case d.ItemPatch != nil:
		return d.ItemPatch
	case d.LearnedSpellPatch != nil:
		return d.LearnedSpellPatch
	case d.CustomSpellPatch != nil:
		return d.CustomSpellPatch
	case d.CustomFeaturePatch != nil:
		return d.CustomFeaturePatch
	}
	return nil
}

// SetVariant stores v in the matching field and clears the others.
func (d *ActionData) SetVariant(v Variant) {
	d.ItemPatch, d.LearnedSpellPatch, d.CustomSpellPatch, d.CustomFeaturePatch = nil, nil, nil, nil
	switch p := v.(type) {
	case *ItemPatch:
		d.ItemPatch = p
	case *LearnedSpellPatch:
		d.LearnedSpellPatch = p
	case *CustomSpellPatch:
		d.CustomSpellPatch = p
	case *CustomFeaturePatch:
		d.CustomFeaturePatch = p
	}
}

// IsEmpty reports whether the data would change nothing.
func (d *ActionData) IsEmpty() bool {
	return d.Name == "" && d.Class == "" && d.Race == "" && d.Level == nil &&
		d.Experience == nil && d.ArmorClass == nil && d.Speed == nil &&
		d.CurrentHP == nil && d.MaxHP == nil && d.CharacterType == "" &&
		d.OwnerID == "" && len(d.Stats) == 0 && len(d.DetailsPatch) == 0 &&
		d.Variant() == nil
}

// ItemPatch changes (or creates) one inventory item.
type ItemPatch struct {
	TargetItemName        string               `json:"target_item_name"`
	NewName               string               `json:"new_name,omitempty"`
	CreateIfMissing       bool                 `json:"create_if_missing,omitempty"`
	Category              string               `json:"category,omitempty"`
	Rarity                string               `json:"rarity,omitempty"`
	Equipped              *bool                `json:"equipped,omitempty"`
	Attuned               *bool                `json:"attuned,omitempty"`
	Quantity              *int                 `json:"quantity,omitempty"`
	Weight                *float64             `json:"weight,omitempty"`
	Price                 string               `json:"price,omitempty"`
	Tags                  []string             `json:"tags,omitempty"`
	Description           string               `json:"description,omitempty"`
	Usage                 string               `json:"usage,omitempty"`
	Damage                string               `json:"damage,omitempty"`
	Range                 string               `json:"range,omitempty"`
	MagicBonus            *int                 `json:"magic_bonus,omitempty"`
	ConfigurationsReplace []ConfigurationPatch `json:"configurations_replace,omitempty"`
	ActiveConfiguration   string               `json:"active_configuration,omitempty"`
	AttachmentsAdd        []Attachment         `json:"attachments_add,omitempty"`
	AttachmentsReplace    []Attachment         `json:"attachments_replace,omitempty"`
	ClearAttachments      bool                 `json:"clear_attachments,omitempty"`
}

// ConfigurationPatch is one named alternate mode of an item.
type ConfigurationPatch struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Usage       string       `json:"usage,omitempty"`
	Damage      string       `json:"damage,omitempty"`
	Range       string       `json:"range,omitempty"`
	MagicBonus  *int         `json:"magic_bonus,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AttachmentType classifies a sub-block of an item.
type AttachmentType string

const (
	AttachmentAction       AttachmentType = "action"
	AttachmentAbility      AttachmentType = "ability"
	AttachmentTrait        AttachmentType = "trait"
	AttachmentSpell        AttachmentType = "spell"
	AttachmentCantrip      AttachmentType = "cantrip"
	AttachmentClassFeature AttachmentType = "classFeature"
	AttachmentOther        AttachmentType = "other"
)

// Attachment is a mechanical or narrative sub-block. Custom spells and
// features share the same structured shape.
type Attachment struct {
	ID              string         `json:"id,omitempty"`
	Type            AttachmentType `json:"type,omitempty"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Level           *int           `json:"level,omitempty"`
	School          string         `json:"school,omitempty"`
	CastingTime     string         `json:"casting_time,omitempty"`
	CastingTimeNote string         `json:"casting_time_note,omitempty"`
	Range           string         `json:"range,omitempty"`
	Components      *Components    `json:"components,omitempty"`
	Materials       string         `json:"materials,omitempty"`
	Duration        string         `json:"duration,omitempty"`
	Concentration   *bool          `json:"concentration,omitempty"`
	Ritual          *bool          `json:"ritual,omitempty"`
	ResourceCost    *ResourceCost  `json:"resource_cost,omitempty"`
	Save            *Save          `json:"save,omitempty"`
	Damage          *Damage        `json:"damage,omitempty"`
	ActionType      string         `json:"action_type,omitempty"`
	Requirements    string         `json:"requirements,omitempty"`
	Effect          string         `json:"effect,omitempty"`
}

// Components are the V/S/M flags of a spell-like attachment.
type Components struct {
	Verbal   *bool `json:"verbal,omitempty"`
	Somatic  *bool `json:"somatic,omitempty"`
	Material *bool `json:"material,omitempty"`
}

// ResourceCost describes what activating an attachment consumes.
type ResourceCost struct {
	UsesSpellSlot *bool  `json:"uses_spell_slot,omitempty"`
	SlotLevel     *int   `json:"slot_level,omitempty"`
	Charges       *int   `json:"charges,omitempty"`
	Recharge      string `json:"recharge,omitempty"`
	Points        *int   `json:"points,omitempty"`
	PointsLabel   string `json:"points_label,omitempty"`
}

// Save describes a saving throw or attack DC.
type Save struct {
	Type        string `json:"type,omitempty"`
	SaveAbility string `json:"save_ability,omitempty"`
	DCType      string `json:"dc_type,omitempty"`
	DCValue     *int   `json:"dc_value,omitempty"`
	DCStat      string `json:"dc_stat,omitempty"`
}

// Damage describes dice, type and level scaling.
type Damage struct {
	DamageType string `json:"damage_type,omitempty"`
	Dice       string `json:"dice,omitempty"`
	Scaling    string `json:"scaling,omitempty"`
}

// HasStructure reports whether any mechanical field beyond name and
// description is set.
func (a *Attachment) HasStructure() bool {
	return a.School != "" || a.CastingTime != "" || a.Range != "" || a.Components != nil ||
		a.Materials != "" || a.Duration != "" || a.Concentration != nil || a.Ritual != nil ||
		a.ResourceCost != nil || a.Save != nil || a.Damage != nil || a.ActionType != "" ||
		a.Requirements != "" || a.Effect != "" || a.Level != nil
}

// Spell and feature collections inside a character's details.
const (
	CollectionCustomSpells         = "customSpells"
	CollectionCustomCantrips       = "customCantrips"
	CollectionCustomTraits         = "customTraits"
	CollectionCustomClassAbilities = "customClassAbilities"
)

// CustomEntry is the body shared by custom spell and feature patches.
type CustomEntry struct {
	Attachment
	Collection      string `json:"collection,omitempty"`
	NewName         string `json:"new_name,omitempty"`
	CreateIfMissing bool   `json:"create_if_missing,omitempty"`
	Remove          bool   `json:"remove,omitempty"`
}

// CustomSpellPatch upserts or removes an entry of customSpells/customCantrips.
type CustomSpellPatch struct {
	CustomEntry
}

// CustomFeaturePatch upserts or removes an entry of customTraits/customClassAbilities.
type CustomFeaturePatch struct {
	CustomEntry
}

// LearnedAction is learn or forget.
type LearnedAction string

const (
	LearnSpell  LearnedAction = "learn"
	ForgetSpell LearnedAction = "forget"
)

// LearnedSpellPatch adds or removes a known spell at a given level.
type LearnedSpellPatch struct {
	Action     LearnedAction `json:"action"`
	SpellLevel int           `json:"spell_level"`
	SpellName  string        `json:"spell_name,omitempty"`
	SpellIndex string        `json:"spell_index,omitempty"`
}
