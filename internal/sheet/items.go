package sheet

import (
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

const defaultCategory = "misc"

// ApplyItem upserts one inventory item. Lookup is exact first, then fuzzy
// unless the patch may create the item. A patch that changes nothing reports
// "no concrete changes" instead of success.
func (e *Engine) ApplyItem(d *Details, p *patch.ItemPatch) Outcome {
	next := d.Clone()
	target, targetPrice := patch.StripPrice(p.TargetItemName)

	names := make([]string, len(next.Inventory))
	for i := range next.Inventory {
		names[i] = next.Inventory[i].Name
	}
	idx := e.findByName(target, names, !p.CreateIfMissing)

	created := false
	if idx < 0 {
		if !p.CreateIfMissing {
			return failed("item %q not found", target)
		}
		next.Inventory = append(next.Inventory, Item{
			ID:       e.newID(),
			Name:     target,
			Category: defaultCategory,
			Price:    targetPrice,
		})
		idx = len(next.Inventory) - 1
		created = true
	}

	item := &next.Inventory[idx]
	before := cloneItem(*item)
	e.applyItemFields(item, p)
	relocatePrice(item)
	if created || touchesDescription(p) {
		item.Description = patch.DedupeDescription(item.Description, itemAttachments(item))
	}

	if !created && equal(before, cloneItem(*item)) {
		return failed("no concrete changes for item %q", item.Name)
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return Outcome{Applied: true, Details: next, Message: fmt.Sprintf("item %q %s", item.Name, verb)}
}

func (e *Engine) applyItemFields(item *Item, p *patch.ItemPatch) {
	setStr(&item.Name, p.NewName)
	setStr(&item.Category, p.Category)
	setStr(&item.Rarity, p.Rarity)
	setStr(&item.Price, p.Price)
	setStr(&item.Description, p.Description)
	setStr(&item.Usage, p.Usage)
	setStr(&item.Damage, p.Damage)
	setStr(&item.Range, p.Range)
	if p.Equipped != nil {
		item.Equipped = *p.Equipped
	}
	if p.Attuned != nil {
		item.Attuned = *p.Attuned
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Weight != nil {
		item.Weight = *p.Weight
	}
	if p.MagicBonus != nil {
		item.MagicBonus = *p.MagicBonus
	}
	if p.Tags != nil {
		item.Tags = append([]string(nil), p.Tags...)
	}

	previous := item.Attachments
	if p.ClearAttachments {
		item.Attachments = nil
	}
	if len(p.AttachmentsReplace) > 0 {
		item.Attachments = e.rebuildAttachments(previous, p.AttachmentsReplace)
	}
	if len(p.AttachmentsAdd) > 0 {
		item.Attachments = e.mergeAttachments(item.Attachments, p.AttachmentsAdd)
	}

	if len(p.ConfigurationsReplace) > 0 {
		item.Configurations = e.rebuildConfigurations(item.Configurations, p.ConfigurationsReplace)
	}
	e.repairActiveConfiguration(item, p.ActiveConfiguration)
}

// rebuildConfigurations replaces the configuration list, keeping the id of an
// old configuration whose name matches so client-side identity survives edits.
func (e *Engine) rebuildConfigurations(old []Configuration, incoming []patch.ConfigurationPatch) []Configuration {
	names := make([]string, len(old))
	for i := range old {
		names[i] = old[i].Name
	}
	used := make(map[int]bool, len(old))
	out := make([]Configuration, 0, len(incoming))
	for _, cp := range incoming {
		c := Configuration{
			Name:        cp.Name,
			Description: cp.Description,
			Usage:       cp.Usage,
			Damage:      cp.Damage,
			Range:       cp.Range,
		}
		if cp.MagicBonus != nil {
			c.MagicBonus = *cp.MagicBonus
		}
		var previous []patch.Attachment
		if i := e.findByName(cp.Name, names, true); i >= 0 && !used[i] {
			used[i] = true
			c.ID = old[i].ID
			previous = old[i].Attachments
		} else {
			c.ID = e.newID()
		}
		if len(cp.Attachments) > 0 {
			c.Attachments = e.rebuildAttachments(previous, cp.Attachments)
		}
		out = append(out, c)
	}
	return out
}

// repairActiveConfiguration selects the requested configuration, or keeps the
// current one if it still exists, or falls back to the first.
func (e *Engine) repairActiveConfiguration(item *Item, requested string) {
	if len(item.Configurations) == 0 {
		item.ActiveConfigurationID = ""
		return
	}
	names := make([]string, len(item.Configurations))
	for i, c := range item.Configurations {
		if requested != "" && c.ID == requested {
			item.ActiveConfigurationID = c.ID
			return
		}
		names[i] = c.Name
	}
	if requested != "" {
		if i := e.findByName(requested, names, true); i >= 0 {
			item.ActiveConfigurationID = item.Configurations[i].ID
			return
		}
	}
	for _, c := range item.Configurations {
		if c.ID == item.ActiveConfigurationID {
			return
		}
	}
	item.ActiveConfigurationID = item.Configurations[0].ID
}

// relocatePrice moves a trailing price fragment off the display name.
func relocatePrice(item *Item) {
	name, price := patch.StripPrice(item.Name)
	if price == "" {
		return
	}
	item.Name = name
	if item.Price == "" {
		item.Price = price
	}
}

// touchesDescription reports whether p changes the description or anything
// the description could restate.
func touchesDescription(p *patch.ItemPatch) bool {
	return p.Description != "" || p.ClearAttachments ||
		len(p.AttachmentsAdd) > 0 || len(p.AttachmentsReplace) > 0 || len(p.ConfigurationsReplace) > 0
}

func itemAttachments(item *Item) []patch.Attachment {
	all := append([]patch.Attachment(nil), item.Attachments...)
	for _, c := range item.Configurations {
		all = append(all, c.Attachments...)
	}
	return all
}
