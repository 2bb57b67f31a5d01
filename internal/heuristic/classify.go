package heuristic

import (
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// draft is an attachment under construction.
type draft struct {
	att        patch.Attachment
	hint       patch.AttachmentType // from a section label or a "type:" line
	prose      []string             // description lines
	labels     []string             // normalized labels of structured lines
	activation bool                 // an explicit "action:" line was seen
}

func newDraft(name string, hint patch.AttachmentType) *draft {
	return &draft{att: patch.Attachment{Name: strings.TrimSpace(name)}, hint: hint}
}

// classifyBlock picks the attachment type by signal priority. Explicit hints
// win; otherwise passive, focus, activation, cantrip, spell structure,
// stateful, then bonus or innate wording, defaulting to trait.
func classifyBlock(d *draft) patch.AttachmentType {
	if d.hint != "" {
		return d.hint
	}
	prose := textmatch.Normalize(d.att.Name + " " + strings.Join(d.prose, " "))
	structure := prose + " " + strings.Join(d.labels, " ")

	core := countAny(structure, spellCoreSignals)
	aux := countAny(structure, spellAuxSignals)
	if d.att.Save != nil {
		aux++
	}

	switch {
	case hasAny(prose, passiveSignals):
		return patch.AttachmentTrait
	case hasAny(prose, focusSignals):
		return patch.AttachmentAbility
	case d.activation || hasAny(prose, activationSignals):
		return patch.AttachmentAction
	case hasAny(prose, cantripSignals) || (d.att.Level != nil && *d.att.Level == 0):
		return patch.AttachmentCantrip
	case core >= 2 || (core >= 1 && aux >= 2):
		return patch.AttachmentSpell
	case hasAny(prose, statefulSignals):
		return patch.AttachmentAbility
	case hasAny(prose, bonusSignals):
		return patch.AttachmentAbility
	case hasAny(prose, innateSignals):
		return patch.AttachmentTrait
	}
	return patch.AttachmentTrait
}

// finish classifies the draft and returns the attachment.
func (d *draft) finish() patch.Attachment {
	a := d.att
	a.Type = classifyBlock(d)
	a.Description = strings.TrimSpace(strings.Join(d.prose, "\n"))
	return a
}

// foldContinuations merges a continuation block into the immediately
// preceding attachment when that is a spell or cantrip. It reports false
// when there is nothing to fold into.
func foldContinuations(list []*draft, heading string, body []string) bool {
	if len(list) == 0 {
		return false
	}
	prev := list[len(list)-1]
	t := classifyBlock(prev)
	if t != patch.AttachmentSpell && t != patch.AttachmentCantrip {
		return false
	}
	if text := strings.TrimSpace(strings.Join(body, " ")); text != "" {
		prev.prose = append(prev.prose, heading+": "+text)
	}
	// Pin the type so the folded text cannot reclassify it.
	prev.hint = t
	return true
}
