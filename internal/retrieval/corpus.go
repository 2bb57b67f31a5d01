// Package retrieval selects the campaign context handed to a model: it turns
// campaign rows into a small document corpus and ranks that corpus lexically
// against a prompt.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// Source types of corpus documents.
const (
	SourceCampaign  = "campaign"
	SourceCharacter = "character"
	SourceNote      = "note"
	SourceCommunity = "community"
)

// Base priorities. Documents at or above AlwaysRelevant survive ranking even
// when nothing in the prompt points at them.
const (
	PriorityCampaign        = 12
	PriorityCharacter       = 8
	PriorityTargetCharacter = 16
	PriorityNote            = 5
	PriorityCommunity       = 4

	AlwaysRelevant = 12
)

// Document is one retrievable piece of context.
type Document struct {
	ID         string `json:"id"`
	SourceType string `json:"sourceType"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	Priority   int    `json:"priority"`
}

// CorpusInput is everything the caller may show the model. Characters and
// notes must already be filtered to what the requesting user can see.
type CorpusInput struct {
	Campaign   *sheet.Campaign
	Characters []sheet.Character
	Notes      []sheet.Note
	Community  []Document
	TargetID   string
}

// CharacterDocID is the corpus id of a character document.
func CharacterDocID(characterID string) string { return SourceCharacter + ":" + characterID }

// BuildCorpus assembles the documents for one request.
func BuildCorpus(in CorpusInput) []Document {
	docs := make([]Document, 0, 1+len(in.Characters)+len(in.Notes)+len(in.Community))

	if in.Campaign != nil {
		docs = append(docs, Document{
			ID:         SourceCampaign + ":" + in.Campaign.ID,
			SourceType: SourceCampaign,
			Title:      in.Campaign.Name,
			Text:       strings.TrimSpace(in.Campaign.Name + "\n" + in.Campaign.Description),
			Priority:   PriorityCampaign,
		})
	}

	for i := range in.Characters {
		c := &in.Characters[i]
		priority := PriorityCharacter
		if in.TargetID != "" && c.ID == in.TargetID {
			priority = PriorityTargetCharacter
		}
		docs = append(docs, Document{
			ID:         CharacterDocID(c.ID),
			SourceType: SourceCharacter,
			Title:      c.Name,
			Text:       summarizeCharacter(c),
			Priority:   priority,
		})
	}

	for _, n := range in.Notes {
		docs = append(docs, Document{
			ID:         SourceNote + ":" + n.ID,
			SourceType: SourceNote,
			Title:      n.Title,
			Text:       strings.TrimSpace(n.Title + "\n" + n.Body),
			Priority:   PriorityNote,
		})
	}

	for _, d := range in.Community {
		d.SourceType = SourceCommunity
		if d.Priority == 0 {
			d.Priority = PriorityCommunity
		}
		docs = append(docs, d)
	}
	return docs
}

// summarizeCharacter renders the parts of a sheet a model needs to resolve
// references: identity, combat numbers, inventory and spell names.
func summarizeCharacter(c *sheet.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", c.Name)
	if ident := strings.TrimSpace(strings.Join([]string{c.Race, c.Class}, " ")); ident != "" {
		fmt.Fprintf(&b, " (%s)", ident)
	}
	fmt.Fprintf(&b, ", level %d, HP %d/%d, AC %d\n", c.Level, c.CurrentHP, c.MaxHP, c.ArmorClass)

	if len(c.Stats) > 0 {
		parts := make([]string, 0, len(patch.AbilityKeys))
		for _, k := range patch.AbilityKeys {
			if v, ok := c.Stats[k]; ok {
				parts = append(parts, fmt.Sprintf("%s %d", k, v))
			}
		}
		fmt.Fprintf(&b, "Stats: %s\n", strings.Join(parts, ", "))
	}

	d := &c.Details
	if len(d.Inventory) > 0 {
		names := make([]string, 0, len(d.Inventory))
		for _, it := range d.Inventory {
			entry := it.Name
			if it.Equipped {
				entry += " [equipped]"
			}
			names = append(names, entry)
		}
		fmt.Fprintf(&b, "Inventory: %s\n", strings.Join(names, ", "))
	}

	for _, level := range d.SpellLevels() {
		names := make([]string, 0, len(d.Spells[level]))
		for _, s := range d.Spells[level] {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&b, "Spells %s: %s\n", level, strings.Join(names, ", "))
	}

	for _, coll := range []struct {
		label string
		list  []patch.Attachment
	}{
		{"Custom spells", d.CustomSpells},
		{"Custom cantrips", d.CustomCantrips},
		{"Traits", d.CustomTraits},
		{"Class abilities", d.CustomClassAbilities},
	} {
		if len(coll.list) == 0 {
			continue
		}
		names := make([]string, 0, len(coll.list))
		for _, a := range coll.list {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&b, "%s: %s\n", coll.label, strings.Join(names, ", "))
	}

	for _, k := range patch.DetailKeys {
		if v := d.Fields[k]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSpace(b.String())
}
