package textmatch

// Matcher resolves a free-text query against a list of candidate names.
// The score constants and acceptance thresholds were tuned empirically and are
// kept as fields so callers can adjust them.
type Matcher struct {
	ExactScore    float64 // normalized equality
	ContainsScore float64 // whole-word containment in either direction
	MinTokenHits  int     // token overlap accepted at this many hits...
	MinRatio      float64 // ...or at this share of the candidate's tokens
}

// Loose is used to find a named character inside a longer prompt.
var Loose = Matcher{ExactScore: 2000, ContainsScore: 1000, MinTokenHits: 2, MinRatio: 0.5}

// Strict is used to resolve an item, spell or feature against a collection.
var Strict = Matcher{ExactScore: 2000, ContainsScore: 1000, MinTokenHits: 2, MinRatio: 0.75}

// Match is the winning candidate of FindBestMatch.
type Match struct {
	Index int
	Value string
	Score float64
}

// FindBestMatch returns the best-scoring candidate. Ties go to the earliest
// candidate. ok is false when nothing clears the thresholds.
func (m Matcher) FindBestMatch(query string, candidates []string) (Match, bool) {
	nq := Normalize(query)
	if nq == "" || len(candidates) == 0 {
		return Match{}, false
	}
	queryTokens := make(map[string]struct{})
	for _, t := range Tokenize(nq) {
		queryTokens[t] = struct{}{}
	}

	best := Match{Index: -1}
	for i, candidate := range candidates {
		score := m.score(nq, queryTokens, candidate)
		if score > best.Score {
			best = Match{Index: i, Value: candidate, Score: score}
		}
	}
	if best.Index < 0 {
		return Match{}, false
	}
	return best, true
}

// Score exposes the score one candidate would receive; zero means rejected.
func (m Matcher) Score(query, candidate string) float64 {
	nq := Normalize(query)
	queryTokens := make(map[string]struct{})
	for _, t := range Tokenize(nq) {
		queryTokens[t] = struct{}{}
	}
	return m.score(nq, queryTokens, candidate)
}

func (m Matcher) score(nq string, queryTokens map[string]struct{}, candidate string) float64 {
	nc := Normalize(candidate)
	if nc == "" {
		return 0
	}
	length := float64(len([]rune(nc)))
	if nq == nc {
		return m.ExactScore + length
	}
	if ContainsWord(nq, nc) || ContainsWord(nc, nq) {
		return m.ContainsScore + length
	}

	candidateTokens := Tokenize(nc)
	if len(candidateTokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range candidateTokens {
		if _, ok := queryTokens[t]; ok {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	ratio := float64(hits) / float64(len(candidateTokens))
	minHits := m.MinTokenHits
	if minHits <= 0 {
		minHits = 2
	}
	if hits < minHits && ratio < m.MinRatio {
		return 0
	}
	return ratio*100 + float64(hits)
}

// Equal reports whether two strings are the same after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
