package sheet

import (
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// attachmentKey is the identity of an attachment: normalized (type, name).
func attachmentKey(a *patch.Attachment) string {
	t := a.Type
	if t == "" {
		t = patch.AttachmentOther
	}
	return textmatch.Normalize(string(t)) + "|" + textmatch.Normalize(a.Name)
}

// mergeAttachments merges incoming into existing by key. Fields of a later
// attachment overwrite earlier ones only when they are set.
func (e *Engine) mergeAttachments(existing, incoming []patch.Attachment) []patch.Attachment {
	out := cloneAttachments(existing)
	index := make(map[string]int, len(out)+len(incoming))
	for i := range out {
		index[attachmentKey(&out[i])] = i
	}
	for _, in := range incoming {
		in = cloneAttachment(in)
		if in.Type == "" {
			in.Type = patch.AttachmentOther
		}
		key := attachmentKey(&in)
		if i, ok := index[key]; ok {
			mergeAttachment(&out[i], &in)
			continue
		}
		if in.ID == "" {
			in.ID = e.newID()
		}
		index[key] = len(out)
		out = append(out, in)
	}
	return out
}

// rebuildAttachments builds a fresh list from incoming, collapsing duplicate
// keys and reusing the ids of previous attachments with the same key.
func (e *Engine) rebuildAttachments(previous, incoming []patch.Attachment) []patch.Attachment {
	ids := make(map[string]string, len(previous))
	for i := range previous {
		ids[attachmentKey(&previous[i])] = previous[i].ID
	}
	var stamped []patch.Attachment
	for _, in := range incoming {
		in = cloneAttachment(in)
		if in.Type == "" {
			in.Type = patch.AttachmentOther
		}
		if id, ok := ids[attachmentKey(&in)]; ok && id != "" {
			in.ID = id
		}
		stamped = append(stamped, in)
	}
	return e.mergeAttachments(nil, stamped)
}

// mergeAttachment copies every set field of src onto dst. Sub-objects merge
// field by field.
func mergeAttachment(dst, src *patch.Attachment) {
	setStr(&dst.Description, src.Description)
	setStr(&dst.School, src.School)
	setStr(&dst.CastingTime, src.CastingTime)
	setStr(&dst.CastingTimeNote, src.CastingTimeNote)
	setStr(&dst.Range, src.Range)
	setStr(&dst.Materials, src.Materials)
	setStr(&dst.Duration, src.Duration)
	setStr(&dst.ActionType, src.ActionType)
	setStr(&dst.Requirements, src.Requirements)
	setStr(&dst.Effect, src.Effect)
	setPtr(&dst.Level, src.Level)
	setPtr(&dst.Concentration, src.Concentration)
	setPtr(&dst.Ritual, src.Ritual)

	if src.Components != nil {
		if dst.Components == nil {
			dst.Components = &patch.Components{}
		}
		setPtr(&dst.Components.Verbal, src.Components.Verbal)
		setPtr(&dst.Components.Somatic, src.Components.Somatic)
		setPtr(&dst.Components.Material, src.Components.Material)
	}
	if rc := src.ResourceCost; rc != nil {
		if dst.ResourceCost == nil {
			dst.ResourceCost = &patch.ResourceCost{}
		}
		d := dst.ResourceCost
		setPtr(&d.UsesSpellSlot, rc.UsesSpellSlot)
		setPtr(&d.SlotLevel, rc.SlotLevel)
		setPtr(&d.Charges, rc.Charges)
		setStr(&d.Recharge, rc.Recharge)
		setPtr(&d.Points, rc.Points)
		setStr(&d.PointsLabel, rc.PointsLabel)
	}
	if s := src.Save; s != nil {
		if dst.Save == nil {
			dst.Save = &patch.Save{}
		}
		d := dst.Save
		setStr(&d.Type, s.Type)
		setStr(&d.SaveAbility, s.SaveAbility)
		setStr(&d.DCType, s.DCType)
		setPtr(&d.DCValue, s.DCValue)
		setStr(&d.DCStat, s.DCStat)
	}
	if dm := src.Damage; dm != nil {
		if dst.Damage == nil {
			dst.Damage = &patch.Damage{}
		}
		setStr(&dst.Damage.DamageType, dm.DamageType)
		setStr(&dst.Damage.Dice, dm.Dice)
		setStr(&dst.Damage.Scaling, dm.Scaling)
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
