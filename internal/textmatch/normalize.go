// Package textmatch provides accent-insensitive normalization, tokenization and
// fuzzy name matching shared by the parser, the patch engine and retrieval.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords are dropped by Tokenize. English and Spanish, already normalized.
var stopWords = map[string]struct{}{
	// English
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "or": {}, "to": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "with": {}, "by": {}, "from": {}, "is": {}, "it": {},
	"its": {}, "this": {}, "that": {}, "these": {}, "those": {}, "my": {}, "his": {},
	"her": {}, "their": {}, "as": {}, "be": {}, "are": {}, "was": {}, "into": {},
	"up": {}, "me": {}, "please": {}, "can": {}, "you": {},
	// Spanish
	"el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {}, "unos": {}, "unas": {},
	"de": {}, "del": {}, "al": {}, "y": {}, "o": {}, "en": {}, "con": {}, "por": {},
	"para": {}, "que": {}, "su": {}, "sus": {}, "mi": {}, "mis": {}, "es": {}, "se": {},
	"lo": {}, "le": {}, "les": {}, "este": {}, "esta": {}, "estos": {}, "estas": {},
	"como": {}, "porfa": {}, "favor": {},
}

// foldChain strips combining marks after canonical decomposition.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold removes diacritics without changing case.
func Fold(s string) string {
	out, _, err := transform.String(foldChain(), s)
	if err != nil {
		return s
	}
	return out
}

// Normalize case-folds, strips diacritics, collapses whitespace and trims.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded := strings.ToLower(Fold(s))
	return strings.Join(strings.Fields(folded), " ")
}

// Tokenize returns the distinct, normalized content words of s in order of
// first appearance. Stop words and single-rune tokens are dropped.
func Tokenize(s string) []string {
	words := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

// IsStopWord reports whether the normalized word is ignored by Tokenize.
func IsStopWord(word string) bool {
	_, ok := stopWords[Normalize(word)]
	return ok
}

// ContainsWord reports whether needle occurs in haystack on word boundaries.
// Both arguments are expected to be normalized.
func ContainsWord(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	start := 0
	for start < len(haystack) {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(needle)
		before, _ := utf8.DecodeLastRuneInString(haystack[:idx])
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if (idx == 0 || !isWordRune(before)) && (end == len(haystack) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[idx:])
		start = idx + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
