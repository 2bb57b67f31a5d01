package heuristic

import (
	"strconv"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

type blockKind int

const (
	blockPreamble blockKind = iota
	blockNamed
	blockSection
	blockConfiguration
	blockContinuation
)

// block is a heading (or section label) with the lines under it.
type block struct {
	kind    blockKind
	heading string
	hint    string // blockSection: default child type or pseudo section
	priced  bool
	lines   []line
}

// splitBlocks groups lexed lines under their headings. Command lines are
// returned separately as instructions.
func splitBlocks(lexed []line) (blocks []block, instructions []string) {
	var cur *block
	push := func(b block) {
		blocks = append(blocks, b)
		cur = &blocks[len(blocks)-1]
	}

	for _, l := range lexed {
		switch l.kind {
		case lineCommand:
			instructions = append(instructions, l.text)
			continue
		case lineHeading:
			push(headingBlock(l.text))
			continue
		case lineSection:
			push(block{kind: blockSection, heading: strings.TrimSuffix(l.text, ":"), hint: l.hint})
			continue
		case lineText:
			if heading, body, ok := splitInlineHeading(l.text); ok {
				push(headingBlock(heading))
				cur.lines = append(cur.lines, lexLine(body))
				continue
			}
		}
		if cur == nil {
			push(block{kind: blockPreamble})
		}
		cur.lines = append(cur.lines, l)
	}
	return blocks, instructions
}

func headingBlock(heading string) block {
	b := block{kind: blockNamed, heading: heading, priced: patch.HasPrice(heading)}
	norm := textmatch.Normalize(heading)
	switch {
	case hasPrefix(norm, configurationPrefixes):
		b.kind = blockConfiguration
	case isContinuation(norm):
		b.kind = blockContinuation
	}
	return b
}

func hasPrefix(norm string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(norm, p) {
			return true
		}
	}
	return false
}

func isContinuation(norm string) bool {
	for _, c := range continuationHeadings {
		if norm == c {
			return true
		}
	}
	return false
}

// detectBatch returns the priced sibling headings when there are at least
// two of them, capped at the plan size.
func detectBatch(blocks []block) []block {
	var priced []block
	for _, b := range blocks {
		if b.kind == blockNamed && b.priced {
			priced = append(priced, b)
		}
	}
	if len(priced) < 2 {
		return nil
	}
	if len(priced) > patch.MaxActions {
		priced = priced[:patch.MaxActions]
	}
	return priced
}

// statedCount returns the item count a normalized prompt announces, as in
// "crea estos 3 objetos", or 0 when it names none.
func statedCount(norm string) int {
	m := batchCountRe.FindStringSubmatch(norm)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
