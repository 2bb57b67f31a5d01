package patch

import (
	"regexp"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// mechanicalNoise matches (normalized) description lines that only restate a
// structured field label.
var mechanicalNoise = regexp.MustCompile(`^(range|alcance|save|saving throw|salvacion|tirada de salvacion|damage|dano|duration|duracion|components|componentes|casting time|tiempo de lanzamiento|school|escuela|dc|cd|concentration|concentracion|ritual|recharge|recarga|charges|cargas)\b\s*[:(]?`)

// minFragmentLen is the shortest normalized fragment that counts as restated
// content. Shorter values ("v", "1") would match almost any line.
const minFragmentLen = 3

// IsMechanicalNoise reports whether a description line only restates a
// structured label such as "Range: 60 ft".
func IsMechanicalNoise(line string) bool {
	return mechanicalNoise.MatchString(textmatch.Normalize(line))
}

// DedupeDescription drops from description every sentence that repeats
// attachment content: an attachment name, description or structured value
// appearing in it, or it appearing inside an attachment description. When any
// attachment carries structure, label-only lines are dropped too. Repeated
// lines collapse to their first occurrence.
func DedupeDescription(description string, attachments []Attachment) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	fragments, structured := attachmentFragments(attachments)

	seen := make(map[string]struct{})
	var kept []string
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if structured && IsMechanicalNoise(line) {
			continue
		}
		var sentences []string
		for _, s := range splitSentences(line) {
			ns := textmatch.Normalize(s)
			if ns == "" || restates(ns, fragments) {
				continue
			}
			if _, dup := seen[ns]; dup {
				continue
			}
			seen[ns] = struct{}{}
			sentences = append(sentences, s)
		}
		if len(sentences) > 0 {
			kept = append(kept, strings.Join(sentences, " "))
		}
	}
	return strings.Join(kept, "\n")
}

func restates(sentence string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(sentence, f) || strings.Contains(f, sentence) {
			return true
		}
	}
	return false
}

func attachmentFragments(attachments []Attachment) (fragments []string, structured bool) {
	add := func(s string) {
		if n := textmatch.Normalize(s); len([]rune(n)) >= minFragmentLen {
			fragments = append(fragments, n)
		}
	}
	for i := range attachments {
		a := &attachments[i]
		if a.HasStructure() {
			structured = true
		}
		add(a.Name)
		for _, s := range splitSentences(strings.ReplaceAll(a.Description, "\n", " ")) {
			add(s)
		}
		add(a.School)
		add(a.CastingTime)
		add(a.Range)
		add(a.Materials)
		add(a.Duration)
		add(a.Requirements)
		add(a.Effect)
		if a.Damage != nil {
			add(a.Damage.Dice)
		}
	}
	return fragments, structured
}

// splitSentences cuts s after '.', '!' or '?' followed by a space.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		if (s[i] == '.' || s[i] == '!' || s[i] == '?') && s[i+1] == ' ' {
			if part := strings.TrimSpace(s[start : i+1]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}
