// Package sheet holds the character document model and the engine that
// applies sanitized patches to it.
package sheet

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

// Character is one character row: scalar columns plus the semi-structured
// details document.
type Character struct {
	ID            string      `json:"id"`
	CampaignID    string      `json:"campaign_id,omitempty"`
	OwnerID       string      `json:"owner_id,omitempty"`
	Name          string      `json:"name"`
	Class         string      `json:"class,omitempty"`
	Race          string      `json:"race,omitempty"`
	Level         int         `json:"level"`
	Experience    int         `json:"experience"`
	ArmorClass    int         `json:"armor_class"`
	Speed         int         `json:"speed"`
	CurrentHP     int         `json:"current_hp"`
	MaxHP         int         `json:"max_hp"`
	CharacterType string      `json:"character_type,omitempty"`
	Stats         patch.Stats `json:"stats,omitempty"`
	Details       Details     `json:"details"`
}

// Clone returns a deep copy.
func (c *Character) Clone() *Character {
	out := *c
	if c.Stats != nil {
		out.Stats = make(patch.Stats, len(c.Stats))
		for k, v := range c.Stats {
			out.Stats[k] = v
		}
	}
	out.Details = *c.Details.Clone()
	return &out
}

// Item is one inventory entry.
type Item struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	Category              string             `json:"category"`
	Rarity                string             `json:"rarity,omitempty"`
	Equipped              bool               `json:"equipped"`
	Attuned               bool               `json:"attuned,omitempty"`
	Quantity              int                `json:"quantity,omitempty"`
	Weight                float64            `json:"weight,omitempty"`
	Price                 string             `json:"price,omitempty"`
	Tags                  []string           `json:"tags,omitempty"`
	Description           string             `json:"description,omitempty"`
	Usage                 string             `json:"usage,omitempty"`
	Damage                string             `json:"damage,omitempty"`
	Range                 string             `json:"range,omitempty"`
	MagicBonus            int                `json:"magic_bonus,omitempty"`
	Configurations        []Configuration    `json:"configurations,omitempty"`
	ActiveConfigurationID string             `json:"active_configuration_id,omitempty"`
	Attachments           []patch.Attachment `json:"attachments,omitempty"`
}

// Configuration is a named alternate mode of an item.
type Configuration struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Usage       string             `json:"usage,omitempty"`
	Damage      string             `json:"damage,omitempty"`
	Range       string             `json:"range,omitempty"`
	MagicBonus  int                `json:"magic_bonus,omitempty"`
	Attachments []patch.Attachment `json:"attachments,omitempty"`
}

// LearnedSpell is an entry of spells.level{N}.
type LearnedSpell struct {
	Name  string `json:"name"`
	Index string `json:"index,omitempty"`
}

// Details keys with a typed representation.
const (
	keyInventory = "inventory"
	keySpells    = "spells"
)

// Details is the semi-structured part of a character. Known collections are
// typed; the recognized free-text keys live in Fields; anything else is kept
// verbatim in Extra so a round trip never loses data.
type Details struct {
	Inventory            []Item
	CustomSpells         []patch.Attachment
	CustomCantrips       []patch.Attachment
	CustomTraits         []patch.Attachment
	CustomClassAbilities []patch.Attachment
	Spells               map[string][]LearnedSpell
	Fields               map[string]string
	Extra                map[string]json.RawMessage
}

// SpellLevelKey returns the spells map key for a level.
func SpellLevelKey(level int) string { return fmt.Sprintf("level%d", level) }

// Collection returns a pointer to the named custom collection, or nil.
func (d *Details) Collection(name string) *[]patch.Attachment {
	switch name {
	case patch.CollectionCustomSpells:
		return &d.CustomSpells
	case patch.CollectionCustomCantrips:
		return &d.CustomCantrips
	case patch.CollectionCustomTraits:
		return &d.CustomTraits
	case patch.CollectionCustomClassAbilities:
		return &d.CustomClassAbilities
	}
	return nil
}

func isDetailKey(k string) bool {
	for _, dk := range patch.DetailKeys {
		if dk == k {
			return true
		}
	}
	return false
}

// MarshalJSON flattens the typed collections, free-text fields and extra keys
// into one object.
func (d Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+len(d.Fields)+6)
	for k, v := range d.Extra {
		out[k] = v
	}
	for k, v := range d.Fields {
		out[k] = v
	}
	if len(d.Inventory) > 0 {
		out[keyInventory] = d.Inventory
	}
	for _, name := range []string{
		patch.CollectionCustomSpells, patch.CollectionCustomCantrips,
		patch.CollectionCustomTraits, patch.CollectionCustomClassAbilities,
	} {
		if c := d.Collection(name); len(*c) > 0 {
			out[name] = *c
		}
	}
	if len(d.Spells) > 0 {
		out[keySpells] = d.Spells
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *Details) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("details: %w", err)
	}
	*d = Details{}
	for k, v := range raw {
		var err error
		switch k {
		case keyInventory:
			err = json.Unmarshal(v, &d.Inventory)
		case keySpells:
			err = json.Unmarshal(v, &d.Spells)
		case patch.CollectionCustomSpells, patch.CollectionCustomCantrips,
			patch.CollectionCustomTraits, patch.CollectionCustomClassAbilities:
			err = json.Unmarshal(v, d.Collection(k))
		default:
			var s string
			if isDetailKey(k) && json.Unmarshal(v, &s) == nil {
				if d.Fields == nil {
					d.Fields = make(map[string]string)
				}
				d.Fields[k] = s
				continue
			}
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("details.%s: %w", k, err)
		}
	}
	return nil
}

// Clone returns a deep copy. Attachment sub-objects are copied; scalar
// pointers inside them are shared because the engine only ever replaces them.
func (d *Details) Clone() *Details {
	out := &Details{
		CustomSpells:         cloneAttachments(d.CustomSpells),
		CustomCantrips:       cloneAttachments(d.CustomCantrips),
		CustomTraits:         cloneAttachments(d.CustomTraits),
		CustomClassAbilities: cloneAttachments(d.CustomClassAbilities),
	}
	if d.Inventory != nil {
		out.Inventory = make([]Item, len(d.Inventory))
		for i := range d.Inventory {
			out.Inventory[i] = cloneItem(d.Inventory[i])
		}
	}
	if d.Spells != nil {
		out.Spells = make(map[string][]LearnedSpell, len(d.Spells))
		for k, v := range d.Spells {
			out.Spells[k] = append([]LearnedSpell(nil), v...)
		}
	}
	if d.Fields != nil {
		out.Fields = make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// SpellLevels returns the populated spell level keys in level order.
func (d *Details) SpellLevels() []string {
	keys := make([]string, 0, len(d.Spells))
	for k, v := range d.Spells {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func cloneItem(it Item) Item {
	it.Tags = append([]string(nil), it.Tags...)
	it.Attachments = cloneAttachments(it.Attachments)
	if it.Configurations != nil {
		cfgs := make([]Configuration, len(it.Configurations))
		for i, c := range it.Configurations {
			c.Attachments = cloneAttachments(c.Attachments)
			cfgs[i] = c
		}
		it.Configurations = cfgs
	}
	return it
}

func cloneAttachments(in []patch.Attachment) []patch.Attachment {
	if in == nil {
		return nil
	}
	out := make([]patch.Attachment, len(in))
	for i, a := range in {
		out[i] = cloneAttachment(a)
	}
	return out
}

func cloneAttachment(a patch.Attachment) patch.Attachment {
	a.Components = clonePtr(a.Components)
	a.ResourceCost = clonePtr(a.ResourceCost)
	a.Save = clonePtr(a.Save)
	a.Damage = clonePtr(a.Damage)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
