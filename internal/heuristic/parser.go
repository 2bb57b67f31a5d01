// Package heuristic extracts patch actions from free text without a model.
//
// The pipeline is a fixed sequence of pure stages:
//
//	segmentLines -> lexLines -> splitBlocks -> classifyBlock / extractFields
//	-> foldContinuations -> configurations -> detectBatch -> DedupeDescription
//
// Every stage degrades to a looser reading instead of failing. When no
// target character is known the parser proposes nothing.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// Plan is the heuristic reading of one prompt.
type Plan struct {
	Actions []patch.Action
	// Strong plans (batches, structured item blocks) are trusted over a model.
	Strong bool
	Reply  string
}

// Parser turns prompts into plans. It is stateless and safe for concurrent use.
type Parser struct {
	matcher textmatch.Matcher
}

// NewParser returns a parser resolving item names with textmatch.Strict.
func NewParser() *Parser {
	return &Parser{matcher: textmatch.Strict}
}

// Plan reads prompt as changes to target.
func (p *Parser) Plan(prompt string, target *sheet.Character) Plan {
	if target == nil || strings.TrimSpace(prompt) == "" {
		return Plan{}
	}

	lexed := lexLines(segmentLines(prompt))
	blocks, instructions := splitBlocks(lexed)
	instruction := strings.Join(instructions, "\n")

	var (
		actions []patch.Action
		strong  bool
		notes   []string
	)
	if batch := detectBatch(blocks); batch != nil {
		for _, b := range batch {
			actions = append(actions, updateAction(target, &patch.ActionData{ItemPatch: batchItem(b)}))
		}
		strong = true
		notes = append(notes, fmt.Sprintf("%d items to create", len(batch)))
		if n := statedCount(textmatch.Normalize(prompt)); n > 0 && n != len(batch) {
			notes = append(notes, fmt.Sprintf("%d were announced but %d were found", n, len(batch)))
			logging.HeuristicWarn("batch announced %d items, parsed %d", n, len(batch))
		}
		logging.HeuristicDebug("batch of %d priced headings", len(batch))
	} else if item, ok := p.assembleItem(blocks, target); ok {
		actions = append(actions, updateAction(target, &patch.ActionData{ItemPatch: item}))
		strong = len(item.AttachmentsAdd) > 0 || len(item.ConfigurationsReplace) > 0
		notes = append(notes, fmt.Sprintf("item %q with %d attachments", item.TargetItemName, attachmentCount(item)))
	}

	commandText := instruction
	if !structured(blocks) {
		commandText = prompt
	}
	cmds := p.commands(commandText, target)
	actions = append(actions, cmds...)
	if len(actions) == 0 {
		if item := oneLineItem(commandText); item != nil {
			actions = append(actions, updateAction(target, &patch.ActionData{ItemPatch: item}))
			notes = append(notes, fmt.Sprintf("item %q", item.TargetItemName))
		}
	}
	if len(cmds) > 0 {
		notes = append(notes, fmt.Sprintf("%d sheet changes", len(cmds)))
	}

	if len(actions) > patch.MaxActions {
		actions = actions[:patch.MaxActions]
	}
	if len(actions) == 0 {
		return Plan{}
	}
	return Plan{
		Actions: actions,
		Strong:  strong,
		Reply:   fmt.Sprintf("Proposed for %s: %s.", target.Name, strings.Join(notes, ", ")),
	}
}

// attachmentCount counts attachments on the item and in its configurations.
func attachmentCount(item *patch.ItemPatch) int {
	n := len(item.AttachmentsAdd)
	for _, c := range item.ConfigurationsReplace {
		n += len(c.Attachments)
	}
	return n
}

func updateAction(target *sheet.Character, data *patch.ActionData) patch.Action {
	return patch.Action{Operation: patch.OperationUpdate, CharacterID: target.ID, Data: *data}
}

// batchItem builds a create patch from one priced heading.
func batchItem(b block) *patch.ItemPatch {
	name, price := patch.StripPrice(b.heading)
	item := &patch.ItemPatch{TargetItemName: name, Price: price, CreateIfMissing: true}
	var desc []string
	for _, l := range b.lines {
		if l.kind == lineKeyValue && applyItemField(item, l) {
			continue
		}
		desc = append(desc, l.text)
	}
	item.Description = joinText(item.Description, strings.Join(desc, "\n"))
	item.Category = guessCategory(name)
	return item
}

// assembly collects the attachments of the item or of its current
// configuration.
type assembly struct {
	item    *patch.ItemPatch
	desc    []string
	drafts  []*draft
	configs []*configDraft
}

type configDraft struct {
	cfg    patch.ConfigurationPatch
	drafts []*draft
}

// list returns the draft list new attachments go to.
func (a *assembly) list() *[]*draft {
	if n := len(a.configs); n > 0 {
		return &a.configs[n-1].drafts
	}
	return &a.drafts
}

func (a *assembly) current() *draft {
	l := *a.list()
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

func (a *assembly) add(d *draft) {
	l := a.list()
	*l = append(*l, d)
}

// describe appends prose to the configuration or item description.
func (a *assembly) describe(text string) {
	if n := len(a.configs); n > 0 {
		c := &a.configs[n-1].cfg
		c.Description = joinText(c.Description, text)
		return
	}
	a.desc = append(a.desc, text)
}

// assembleItem reads the first named block as an item and every later block
// as its attachments or configurations.
func (p *Parser) assembleItem(blocks []block, target *sheet.Character) (*patch.ItemPatch, bool) {
	start := -1
	for i, b := range blocks {
		if b.kind == blockNamed {
			start = i
			break
		}
	}
	// A lone title line is not enough to invent an item.
	if start < 0 || (len(blocks[start].lines) == 0 && start == len(blocks)-1) {
		return nil, false
	}

	name, price := patch.StripPrice(blocks[start].heading)
	a := &assembly{item: &patch.ItemPatch{TargetItemName: name, Price: price}}
	for _, l := range blocks[start].lines {
		switch {
		case l.kind == lineKeyValue && applyItemField(a.item, l):
		case l.kind == lineKeyValue:
			a.desc = append(a.desc, l.text)
		case describesItem(a.item, l):
		default:
			a.desc = append(a.desc, l.text)
		}
	}

	for _, b := range blocks[start+1:] {
		switch b.kind {
		case blockConfiguration:
			a.configs = append(a.configs, &configDraft{cfg: patch.ConfigurationPatch{Name: b.heading}})
			cfg := &a.configs[len(a.configs)-1].cfg
			for _, l := range b.lines {
				if l.kind == lineKeyValue && applyConfigurationField(cfg, l) {
					continue
				}
				cfg.Description = joinText(cfg.Description, l.text)
			}
		case blockContinuation:
			if foldContinuations(*a.list(), b.heading, lineTexts(b.lines)) {
				continue
			}
			a.namedBlock(b)
		case blockSection:
			a.sectionBlock(b)
		case blockNamed:
			a.namedBlock(b)
		default:
			for _, l := range b.lines {
				a.describe(l.text)
			}
		}
	}

	item := a.item
	for _, d := range a.drafts {
		item.AttachmentsAdd = append(item.AttachmentsAdd, d.finish())
	}
	all := append([]patch.Attachment(nil), item.AttachmentsAdd...)
	for _, c := range a.configs {
		for _, d := range c.drafts {
			c.cfg.Attachments = append(c.cfg.Attachments, d.finish())
		}
		all = append(all, c.cfg.Attachments...)
		item.ConfigurationsReplace = append(item.ConfigurationsReplace, c.cfg)
	}
	item.Description = patch.DedupeDescription(joinText(item.Description, strings.Join(a.desc, "\n")), all)

	idx := p.findItem(target, name)
	item.CreateIfMissing = idx < 0
	if idx >= 0 {
		item.TargetItemName = target.Details.Inventory[idx].Name
	}
	if item.CreateIfMissing && item.Category == "" {
		item.Category = guessCategory(name)
	}
	if m := magicBonusRe.FindStringSubmatch(" " + name + " "); m != nil && item.MagicBonus == nil {
		item.MagicBonus = atoiPtr(m[1])
	}
	logging.HeuristicDebug("item %q: %d attachments, %d configurations, create=%v",
		item.TargetItemName, len(item.AttachmentsAdd), len(item.ConfigurationsReplace), item.CreateIfMissing)
	return item, true
}

// namedBlock starts an attachment named by the heading. Short lines after
// the attachment already has a body start sibling attachments.
func (a *assembly) namedBlock(b block) {
	d := newDraft(b.heading, "")
	a.add(d)
	for _, l := range b.lines {
		switch {
		case l.kind == lineKeyValue:
			extractFields(a.current(), l)
		case isShortLine(l.text) && hasBody(a.current()):
			a.add(newDraft(l.text, ""))
		default:
			cur := a.current()
			cur.prose = append(cur.prose, l.text)
		}
	}
}

// sectionBlock handles a generic label. Description and usage sections feed
// the item; other labels list attachments of their default type.
func (a *assembly) sectionBlock(b block) {
	switch b.hint {
	case sectionDescription:
		for _, l := range b.lines {
			a.describe(l.text)
		}
		return
	case sectionUsage:
		for _, l := range b.lines {
			text := l.text
			if l.kind == lineKeyValue {
				text = l.value
			}
			a.item.Usage = joinText(a.item.Usage, text)
		}
		return
	}

	hint, _ := patch.NormalizeAttachmentType(b.hint)
	var cur *draft
	for _, l := range b.lines {
		switch {
		case l.kind == lineKeyValue && cur != nil:
			extractFields(cur, l)
		case l.kind == lineKeyValue:
			if !applyItemField(a.item, l) {
				a.describe(l.text)
			}
		case isShortLine(l.text):
			cur = newDraft(l.text, hint)
			a.add(cur)
		case cur != nil:
			cur.prose = append(cur.prose, l.text)
		default:
			a.describe(l.text)
		}
	}
}

func hasBody(d *draft) bool {
	return d != nil && (len(d.prose) > 0 || len(d.labels) > 0)
}

// describesItem consumes a short descriptor line such as "Arma, rara" and
// reports whether it set a category or rarity.
func describesItem(item *patch.ItemPatch, l line) bool {
	if !isShortLine(l.text) {
		return false
	}
	used := false
	norm := strings.Trim(l.norm, ".")
	for _, part := range strings.FieldsFunc(norm, func(r rune) bool { return r == ',' || r == '(' || r == ')' || r == '/' }) {
		part = strings.TrimSpace(part)
		if r, ok := patch.NormalizeRarity(part); ok && item.Rarity == "" {
			item.Rarity, used = r, true
			continue
		}
		if c, ok := patch.NormalizeCategory(part); ok && item.Category == "" {
			item.Category, used = c, true
		}
	}
	return used
}

func (p *Parser) findItem(target *sheet.Character, name string) int {
	names := make([]string, len(target.Details.Inventory))
	for i, it := range target.Details.Inventory {
		names[i] = it.Name
	}
	for i, n := range names {
		if textmatch.Equal(n, name) {
			return i
		}
	}
	if m, ok := p.matcher.FindBestMatch(name, names); ok {
		return m.Index
	}
	return -1
}

func guessCategory(name string) string {
	for _, w := range textmatch.Tokenize(name) {
		if c, ok := itemNouns[w]; ok {
			return c
		}
	}
	return ""
}

// structured reports whether any block sits under a heading or label.
func structured(blocks []block) bool {
	for _, b := range blocks {
		if b.kind != blockPreamble {
			return true
		}
	}
	return false
}

func lineTexts(lines []line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}
