package sheet

import (
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

var (
	cantripWords = []string{"cantrip", "truco", "trucos"}
	classWords   = []string{"class", "clase", "subclass", "subclase", "channel", "canalizar", "ki", "rage", "furia", "invocation", "invocacion"}
	traitWords   = []string{"trait", "rasgo", "passive", "pasiva", "pasivo", "racial", "feat", "dote"}
)

// ApplyCustomSpell upserts or removes an entry of customSpells/customCantrips.
func (e *Engine) ApplyCustomSpell(d *Details, p *patch.CustomSpellPatch) Outcome {
	candidates := []string{patch.CollectionCustomSpells, patch.CollectionCustomCantrips}
	switch {
	case p.Collection != "":
		candidates = []string{p.Collection}
	case p.Level != nil && *p.Level <= 0, mentions(p.Name+" "+p.Description, cantripWords):
		candidates = []string{patch.CollectionCustomCantrips}
	case p.Level != nil:
		candidates = []string{patch.CollectionCustomSpells}
	}
	return e.applyCustomEntry(d, &p.CustomEntry, candidates, "spell")
}

// ApplyCustomFeature upserts or removes an entry of customTraits/customClassAbilities.
func (e *Engine) ApplyCustomFeature(d *Details, p *patch.CustomFeaturePatch) Outcome {
	candidates := []string{patch.CollectionCustomTraits, patch.CollectionCustomClassAbilities}
	text := p.Name + " " + p.Description + " " + p.Requirements
	switch {
	case p.Collection != "":
		candidates = []string{p.Collection}
	case mentions(text, classWords):
		candidates = []string{patch.CollectionCustomClassAbilities}
	case mentions(text, traitWords):
		candidates = []string{patch.CollectionCustomTraits}
	}
	return e.applyCustomEntry(d, &p.CustomEntry, candidates, "feature")
}

// applyCustomEntry searches the candidate collections in order and upserts or
// removes the entry. New entries go to the first candidate.
func (e *Engine) applyCustomEntry(d *Details, p *patch.CustomEntry, candidates []string, noun string) Outcome {
	next := d.Clone()

	var coll *[]patch.Attachment
	var collName string
	idx := -1
	for _, name := range candidates {
		c := next.Collection(name)
		if c == nil {
			continue
		}
		names := make([]string, len(*c))
		for i := range *c {
			names[i] = (*c)[i].Name
		}
		if i := e.findByName(p.Name, names, !p.CreateIfMissing); i >= 0 {
			coll, collName, idx = c, name, i
			break
		}
	}

	if p.Remove {
		if idx < 0 {
			return failed("custom %s %q not found", noun, p.Name)
		}
		removed := (*coll)[idx].Name
		*coll = append((*coll)[:idx:idx], (*coll)[idx+1:]...)
		return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("removed %s %q from %s", noun, removed, collName)}
	}

	if idx < 0 {
		if !p.CreateIfMissing {
			return failed("custom %s %q not found", noun, p.Name)
		}
		collName = candidates[0]
		coll = next.Collection(collName)
		if coll == nil {
			return failed("unknown collection %q", collName)
		}
		entry := patch.Attachment{ID: p.ID, Name: p.Name}
		if entry.ID == "" {
			entry.ID = e.newID()
		}
		src := p.Attachment
		mergeAttachment(&entry, &src)
		setStr(&entry.Name, p.NewName)
		*coll = append(*coll, entry)
		return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("created %s %q in %s", noun, entry.Name, collName)}
	}

	entry := &(*coll)[idx]
	before := cloneAttachment(*entry)
	src := p.Attachment
	mergeAttachment(entry, &src)
	setStr(&entry.Name, p.NewName)
	if equal(before, cloneAttachment(*entry)) {
		return failed("no concrete changes for %s %q", noun, entry.Name)
	}
	return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("updated %s %q in %s", noun, entry.Name, collName)}
}

func mentions(text string, words []string) bool {
	n := textmatch.Normalize(text)
	for _, w := range words {
		if textmatch.ContainsWord(n, w) {
			return true
		}
	}
	return false
}
