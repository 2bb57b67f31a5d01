package heuristic

import (
	"strings"
	"unicode"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

type lineKind int

const (
	lineText lineKind = iota
	lineHeading
	lineKeyValue
	lineCommand
	lineSection
)

func (k lineKind) String() string {
	switch k {
	case lineHeading:
		return "heading"
	case lineKeyValue:
		return "kv"
	case lineCommand:
		return "command"
	case lineSection:
		return "section"
	default:
		return "text"
	}
}

// line is one cleaned input line after lexical classification.
type line struct {
	text  string // cleaned original text
	norm  string
	kind  lineKind
	field string // lineKeyValue: structured field name
	value string // lineKeyValue: raw value
	hint  string // lineSection: default attachment type or pseudo section
}

// demonstratives let a mid-text command verb refer back to the content.
var demonstratives = []string{
	"this", "these", "it", "them", "este", "esta", "estos", "estas", "esto", "lo", "los", "las",
}

// segmentLines splits text into trimmed, non-empty lines with bullet markers
// and trailing embedded commands removed.
func segmentLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		l = bulletPrefix.ReplaceAllString(l, "")
		l = embeddedCommand.ReplaceAllString(l, "")
		l = strings.NewReplacer("**", "", "__", "").Replace(l)
		l = strings.TrimSpace(strings.Trim(l, "*_#"))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// lexLines assigns a kind to every line. Command verbs only count at the
// edges of the content or when the line points back at it.
func lexLines(lines []string) []line {
	out := make([]line, 0, len(lines))
	for _, text := range lines {
		out = append(out, lexLine(text))
	}

	firstContent, lastContent := -1, -1
	for i, l := range out {
		if l.kind == lineCommand {
			continue
		}
		if firstContent < 0 {
			firstContent = i
		}
		lastContent = i
	}
	for i := range out {
		if out[i].kind != lineCommand {
			continue
		}
		edge := firstContent < 0 || i < firstContent || i > lastContent
		if !edge && !hasAny(out[i].norm, demonstratives) {
			out[i].kind = lineText
		}
	}
	return out
}

func lexLine(text string) line {
	l := line{text: text, norm: textmatch.Normalize(text), kind: lineText}
	if isCommand(l.norm) {
		l.kind = lineCommand
		return l
	}

	bare := strings.TrimSpace(strings.TrimSuffix(text, ":"))
	if hint, ok := sectionLabels[textmatch.Normalize(bare)]; ok {
		l.kind, l.hint = lineSection, hint
		return l
	}

	if m := keyValueLine.FindStringSubmatch(text); m != nil {
		key := textmatch.Normalize(m[1])
		if field, ok := fieldLabels[key]; ok {
			l.kind, l.field, l.value = lineKeyValue, field, strings.TrimSpace(m[2])
			return l
		}
	}

	if isHeading(text) {
		l.kind = lineHeading
		l.text = bare
	}
	return l
}

// splitInlineHeading turns "Name: prose" into a heading and a text line when
// the key reads like a title. ok is false for anything else.
func splitInlineHeading(text string) (heading, body string, ok bool) {
	m := keyValueLine.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	key := strings.TrimSpace(m[1])
	if _, known := fieldLabels[textmatch.Normalize(key)]; known {
		return "", "", false
	}
	if len(strings.Fields(key)) > 6 || !isHeading(key+":") {
		return "", "", false
	}
	return key, strings.TrimSpace(m[2]), true
}

func isCommand(norm string) bool {
	words := strings.Fields(norm)
	if len(words) == 0 {
		return false
	}
	first := strings.Trim(words[0], ",.:;!¡¿?")
	for _, v := range commandVerbs {
		if first == v {
			return true
		}
	}
	return false
}

// isHeading reports whether a line reads like a title: short, starting upper
// case, without terminal punctuation, and either colon-terminated, priced or
// mostly capitalized. Scripts without letter case never qualify through the
// capitalization ratio.
func isHeading(text string) bool {
	colon := strings.HasSuffix(text, ":")
	h := strings.TrimSpace(strings.TrimSuffix(text, ":"))
	if h == "" || terminalPunctRe.MatchString(h) {
		return false
	}
	if strings.Contains(h, ":") {
		return false
	}
	words := strings.Fields(h)
	if patch.HasPrice(h) {
		return len(words) <= 12 && startsUpper(h)
	}
	if len(words) > 8 || !startsUpper(h) {
		return false
	}
	norm := textmatch.Normalize(h)
	if isCommand(norm) {
		return false
	}
	if _, label := sectionLabels[norm]; label {
		return false
	}
	// Sub-headings such as "Initial effect" are sentence case.
	if isContinuation(norm) || (len(words) <= 5 && hasPrefix(norm, configurationPrefixes)) {
		return true
	}
	if colon || len(words) == 1 {
		return true
	}
	return capitalRatio(words) >= 0.6
}

func startsUpper(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
		if unicode.IsDigit(r) {
			return false
		}
	}
	return false
}

// capitalRatio is the share of significant words that start upper case.
func capitalRatio(words []string) float64 {
	significant, upper := 0, 0
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if len([]rune(w)) < 3 || textmatch.IsStopWord(w) {
			continue
		}
		significant++
		if startsUpper(w) {
			upper++
		}
	}
	if significant == 0 {
		return 0
	}
	return float64(upper) / float64(significant)
}

func hasAny(norm string, signals []string) bool {
	for _, s := range signals {
		if textmatch.ContainsWord(norm, s) {
			return true
		}
	}
	return false
}

func countAny(norm string, signals []string) int {
	n := 0
	for _, s := range signals {
		if textmatch.ContainsWord(norm, s) {
			n++
		}
	}
	return n
}

// isShortLine is a standalone line short enough to name an attachment.
func isShortLine(text string) bool {
	return len(strings.Fields(text)) < 9 && !terminalPunctRe.MatchString(strings.TrimSpace(text))
}
