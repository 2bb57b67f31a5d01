package sheet

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// Outcome is the result of applying one patch. Applied=false is a normal,
// user-visible result, not an error. Details is the next document version
// and is only set when Applied is true.
type Outcome struct {
	Applied bool
	Details *Details
	Message string
}

func failed(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// Engine computes the next version of a character document. It holds no
// mutable state and never modifies its inputs.
type Engine struct {
	newID   func() string
	matcher textmatch.Matcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces uuid.NewString, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithMatcher replaces the fuzzy name matcher.
func WithMatcher(m textmatch.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// NewEngine creates an engine with uuid ids and the strict matcher.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{newID: uuid.NewString, matcher: textmatch.Strict}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// findByName returns the index of name in names: exact normalized match
// first, then fuzzy unless fuzzy is false. -1 when absent.
func (e *Engine) findByName(name string, names []string, fuzzy bool) int {
	for i, n := range names {
		if textmatch.Equal(n, name) {
			return i
		}
	}
	if !fuzzy {
		return -1
	}
	if m, ok := e.matcher.FindBestMatch(name, names); ok {
		return m.Index
	}
	return -1
}

// ApplyScalars merges the identity and stat fields of data into c and
// reports whether anything changed.
func ApplyScalars(c *Character, data *patch.ActionData) bool {
	changed := false
	setS := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst, changed = v, true
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil && *dst != *v {
			*dst, changed = *v, true
		}
	}
	setS(&c.Name, data.Name)
	setS(&c.Class, data.Class)
	setS(&c.Race, data.Race)
	setS(&c.CharacterType, data.CharacterType)
	setI(&c.Level, data.Level)
	setI(&c.Experience, data.Experience)
	setI(&c.ArmorClass, data.ArmorClass)
	setI(&c.Speed, data.Speed)
	setI(&c.MaxHP, data.MaxHP)
	setI(&c.CurrentHP, data.CurrentHP)
	if c.MaxHP > 0 && c.CurrentHP > c.MaxHP {
		c.CurrentHP, changed = c.MaxHP, true
	}
	for k, v := range data.Stats {
		if c.Stats == nil {
			c.Stats = patch.Stats{}
		}
		if old, ok := c.Stats[k]; !ok || old != v {
			c.Stats[k], changed = v, true
		}
	}
	return changed
}

// ApplyDetailsPatch sets or deletes free-text detail fields.
func (e *Engine) ApplyDetailsPatch(d *Details, p map[string]*string) Outcome {
	next := d.Clone()
	changed := false
	for k, v := range p {
		old, exists := next.Fields[k]
		if v == nil {
			if exists {
				delete(next.Fields, k)
				changed = true
			}
			continue
		}
		if !exists || old != *v {
			if next.Fields == nil {
				next.Fields = make(map[string]string)
			}
			next.Fields[k] = *v
			changed = true
		}
	}
	if !changed {
		return failed("no concrete changes to character details")
	}
	return Outcome{Applied: true, Details: next, Message: "character details updated"}
}

// ApplyLearnedSpell learns or forgets a spell in spells.level{N}. Learning a
// known spell and forgetting an unknown one both fail.
func (e *Engine) ApplyLearnedSpell(d *Details, p *patch.LearnedSpellPatch) Outcome {
	key := SpellLevelKey(p.SpellLevel)
	label := p.SpellName
	if label == "" {
		label = p.SpellIndex
	}
	next := d.Clone()
	list := next.Spells[key]
	idx := findLearned(list, p)

	switch p.Action {
	case patch.ForgetSpell:
		if idx < 0 {
			return failed("spell %q not found at level %d", label, p.SpellLevel)
		}
		next.Spells[key] = append(list[:idx:idx], list[idx+1:]...)
		return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("forgot %s (level %d)", label, p.SpellLevel)}
	case patch.LearnSpell:
		if idx >= 0 {
			return failed("spell %q is already known at level %d", label, p.SpellLevel)
		}
		if next.Spells == nil {
			next.Spells = make(map[string][]LearnedSpell)
		}
		next.Spells[key] = append(list, LearnedSpell{Name: p.SpellName, Index: p.SpellIndex})
		return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("learned %s (level %d)", label, p.SpellLevel)}
	}
	return failed("unknown learned spell action %q", p.Action)
}

func findLearned(list []LearnedSpell, p *patch.LearnedSpellPatch) int {
	if p.SpellIndex != "" {
		for i, s := range list {
			if s.Index != "" && strings.EqualFold(s.Index, p.SpellIndex) {
				return i
			}
		}
	}
	if p.SpellName != "" {
		for i, s := range list {
			if textmatch.Equal(s.Name, p.SpellName) {
				return i
			}
		}
	}
	return -1
}

// NewCharacter builds a character from a create action.
func (e *Engine) NewCharacter(data *patch.ActionData) *Character {
	c := &Character{
		ID:            e.newID(),
		Level:         1,
		MaxHP:         1,
		CurrentHP:     1,
		ArmorClass:    10,
		Speed:         30,
		CharacterType: "npc",
		OwnerID:       data.OwnerID,
		Stats:         patch.Stats{},
	}
	for _, k := range patch.AbilityKeys {
		c.Stats[k] = 10
	}
	if data.MaxHP != nil && data.CurrentHP == nil {
		c.CurrentHP = *data.MaxHP
	}
	ApplyScalars(c, data)
	if len(data.DetailsPatch) > 0 {
		if out := e.ApplyDetailsPatch(&c.Details, data.DetailsPatch); out.Applied {
			c.Details = *out.Details
		}
	}
	if v := data.Variant(); v != nil {
		if out := e.applyVariant(&c.Details, v); out.Applied {
			c.Details = *out.Details
		}
	}
	return c
}

// ApplyAction applies every part of an update action to c. The result is a
// new character; c is untouched. When the patch variant fails nothing is
// applied.
func (e *Engine) ApplyAction(c *Character, data *patch.ActionData) (*Character, Outcome) {
	next := c.Clone()
	var messages []string
	changed := ApplyScalars(next, data)
	if changed {
		messages = append(messages, "character fields updated")
	}
	if len(data.DetailsPatch) > 0 {
		out := e.ApplyDetailsPatch(&next.Details, data.DetailsPatch)
		if out.Applied {
			next.Details = *out.Details
			changed = true
			messages = append(messages, out.Message)
		}
	}
	if v := data.Variant(); v != nil {
		out := e.applyVariant(&next.Details, v)
		if !out.Applied {
			logging.EngineDebug("patch %s on %s not applied: %s", v.Kind(), c.ID, out.Message)
			return c, out
		}
		next.Details = *out.Details
		changed = true
		messages = append(messages, out.Message)
	}
	if !changed {
		return c, failed("no concrete changes for %s", c.Name)
	}
	return next, Outcome{Applied: true, Details: &next.Details, Message: strings.Join(messages, "; ")}
}

func (e *Engine) applyVariant(d *Details, v patch.Variant) Outcome {
	switch p := v.(type) {
	case *patch.ItemPatch:
		return e.ApplyItem(d, p)
	case *patch.LearnedSpellPatch:
		return e.ApplyLearnedSpell(d, p)
	case *patch.CustomSpellPatch:
		return e.ApplyCustomSpell(d, p)
	case *patch.CustomFeaturePatch:
		return e.ApplyCustomFeature(d, p)
	}
	return failed("unsupported patch")
}

func equal(a, b any) bool { return reflect.DeepEqual(a, b) }
