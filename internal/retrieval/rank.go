package retrieval

import (
	"sort"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// Relevance weights.
const (
	targetBoost     = 55
	titleBoost      = 20
	longTokenWeight = 6
	tokenWeight     = 3
	longTokenRunes  = 6
)

// Snippet is a ranked, truncated document.
type Snippet struct {
	ID         string `json:"id"`
	SourceType string `json:"sourceType"`
	Title      string `json:"title"`
	Priority   int    `json:"priority"`
	Score      int    `json:"score"`
	Excerpt    string `json:"excerpt"`
}

// RetrieverConfig holds ranking limits.
type RetrieverConfig struct {
	TopK       int
	MaxExcerpt int // runes
}

// DefaultRetrieverConfig returns the default limits.
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		TopK:       8,
		MaxExcerpt: 700,
	}
}

// Retriever ranks a corpus against a prompt. It holds no per-request state
// and is safe for concurrent use.
type Retriever struct {
	topK       int
	maxExcerpt int
}

// NewRetriever creates a retriever. Non-positive limits fall back to the
// defaults.
func NewRetriever(cfg *RetrieverConfig) *Retriever {
	def := DefaultRetrieverConfig()
	if cfg == nil {
		cfg = def
	}
	r := &Retriever{topK: cfg.TopK, maxExcerpt: cfg.MaxExcerpt}
	if r.topK <= 0 {
		r.topK = def.TopK
	}
	if r.maxExcerpt <= 0 {
		r.maxExcerpt = def.MaxExcerpt
	}
	return r
}

type scored struct {
	doc       Document
	relevance int
	score     int
}

// Rank scores docs against prompt and returns the top snippets, best first.
// Documents with no relevance are dropped unless their priority makes them
// always relevant. Equal scores keep corpus order.
func (r *Retriever) Rank(prompt, targetID string, docs []Document) []Snippet {
	normPrompt := textmatch.Normalize(prompt)
	tokens := textmatch.Tokenize(prompt)
	targetDoc := ""
	if targetID != "" {
		targetDoc = CharacterDocID(targetID)
	}

	kept := make([]scored, 0, len(docs))
	for _, d := range docs {
		rel := relevance(d, normPrompt, tokens, targetDoc)
		if rel <= 0 && d.Priority < AlwaysRelevant {
			continue
		}
		kept = append(kept, scored{doc: d, relevance: rel, score: d.Priority + rel})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > r.topK {
		kept = kept[:r.topK]
	}

	out := make([]Snippet, 0, len(kept))
	for _, s := range kept {
		out = append(out, Snippet{
			ID:         s.doc.ID,
			SourceType: s.doc.SourceType,
			Title:      s.doc.Title,
			Priority:   s.doc.Priority,
			Score:      s.score,
			Excerpt:    excerpt(s.doc.Text, r.maxExcerpt),
		})
	}
	logging.RetrievalDebug("ranked %d/%d documents for %d prompt tokens", len(out), len(docs), len(tokens))
	return out
}

func relevance(d Document, normPrompt string, tokens []string, targetDoc string) int {
	rel := 0
	if targetDoc != "" && d.ID == targetDoc {
		rel += targetBoost
	}
	if title := textmatch.Normalize(d.Title); title != "" && textmatch.ContainsWord(normPrompt, title) {
		rel += titleBoost
	}
	text := textmatch.Normalize(d.Text)
	for _, tok := range tokens {
		if !textmatch.ContainsWord(text, tok) {
			continue
		}
		if len([]rune(tok)) >= longTokenRunes {
			rel += longTokenWeight
		} else {
			rel += tokenWeight
		}
	}
	return rel
}

// excerpt hard-caps text to max runes.
func excerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}
