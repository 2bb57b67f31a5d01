package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Cuerda   Feérica ", "cuerda feerica"},
		{"ÁRBOL Ñandú", "arbol nandu"},
		{"", ""},
		{"Kaelden\tthe\nBold", "kaelden the bold"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTokenize_DropsStopWordsAndDuplicates(t *testing.T) {
	got := Tokenize("Add the Dagger of the Dagger, y una espada de fuego")
	assert.Equal(t, []string{"add", "dagger", "espada", "fuego"}, got)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("give kaelden a sword", "kaelden"))
	assert.False(t, ContainsWord("give kaeldenx a sword", "kaelden"))
	assert.True(t, ContainsWord("espada del dragon", "dragon"))
	assert.False(t, ContainsWord("", "x"))
}

func TestFindBestMatch_ExactBeatsContains(t *testing.T) {
	m, ok := Strict.FindBestMatch("Dagger", []string{"Silver Dagger", "dagger"})
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, 2000.0+6, m.Score)
}

func TestFindBestMatch_ContainsInPrompt(t *testing.T) {
	m, ok := Loose.FindBestMatch("level Kaelden up to 5 and learn Fireball", []string{"Mira", "Kaelden"})
	require.True(t, ok)
	assert.Equal(t, "Kaelden", m.Value)
	assert.Equal(t, 1000.0+7, m.Score)
}

func TestFindBestMatch_TokenOverlap(t *testing.T) {
	t.Run("two hits accepted", func(t *testing.T) {
		m, ok := Strict.FindBestMatch("sword flame", []string{"Great Flame Sword of Dawn"})
		require.True(t, ok)
		assert.Equal(t, 0, m.Index)
	})
	t.Run("single weak hit rejected by strict", func(t *testing.T) {
		_, ok := Strict.FindBestMatch("flame", []string{"Great Burning Sword"})
		assert.False(t, ok)
	})
	t.Run("ratio threshold differs by matcher", func(t *testing.T) {
		candidates := []string{"Cloak Shadows"}
		_, loose := Loose.FindBestMatch("my cloak", candidates)
		_, strict := Strict.FindBestMatch("my cloak", candidates)
		assert.True(t, loose)
		assert.False(t, strict)
	})
}

func TestFindBestMatch_TiesGoToFirst(t *testing.T) {
	m, ok := Strict.FindBestMatch("ring", []string{"Ring", "ring"})
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestFindBestMatch_NoCandidates(t *testing.T) {
	_, ok := Loose.FindBestMatch("anything", nil)
	assert.False(t, ok)
	_, ok = Loose.FindBestMatch("", []string{"a"})
	assert.False(t, ok)
}
