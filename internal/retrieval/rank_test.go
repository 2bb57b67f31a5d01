package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

func corpus() []Document {
	return BuildCorpus(CorpusInput{
		Campaign: &sheet.Campaign{ID: "k1", Name: "La Marca Gris", Description: "Frontera helada."},
		Characters: []sheet.Character{
			{ID: "c1", Name: "Kaelden", Class: "Wizard", Level: 4, Details: sheet.Details{
				Inventory: []sheet.Item{{Name: "Bastón de roble", Equipped: true}},
			}},
			{ID: "c2", Name: "Mirela", Class: "Rogue", Level: 3},
		},
		Notes: []sheet.Note{
			{ID: "n1", Title: "Sesión 4", Body: "El dragón blanco vigila el paso."},
		},
		Community: []Document{{ID: "community:x", Title: "Daga", Text: "add a +1 dagger"}},
		TargetID:  "c1",
	})
}

func TestBuildCorpus_Priorities(t *testing.T) {
	docs := corpus()
	require.Len(t, docs, 5)

	byID := map[string]Document{}
	for _, d := range docs {
		byID[d.ID] = d
	}
	assert.Equal(t, PriorityCampaign, byID["campaign:k1"].Priority)
	assert.Equal(t, PriorityTargetCharacter, byID["character:c1"].Priority)
	assert.Equal(t, PriorityCharacter, byID["character:c2"].Priority)
	assert.Equal(t, PriorityNote, byID["note:n1"].Priority)
	assert.Equal(t, PriorityCommunity, byID["community:x"].Priority)
	assert.Equal(t, SourceCommunity, byID["community:x"].SourceType)
	assert.Contains(t, byID["character:c1"].Text, "Bastón de roble [equipped]")
}

func TestRank_TargetFirstAndIrrelevantDropped(t *testing.T) {
	r := NewRetriever(nil)
	snips := r.Rank("equipa el bastón", "c1", corpus())

	require.NotEmpty(t, snips)
	assert.Equal(t, "character:c1", snips[0].ID)
	// 16 priority + 55 target + 6 for "baston"
	assert.Equal(t, 77, snips[0].Score)

	ids := make([]string, len(snips))
	for i, s := range snips {
		ids[i] = s.ID
	}
	assert.Contains(t, ids, "campaign:k1", "always relevant")
	assert.NotContains(t, ids, "character:c2")
	assert.NotContains(t, ids, "note:n1")
}

func TestRank_TitleAndTokenWeights(t *testing.T) {
	docs := []Document{
		{ID: "a", Title: "Mirela", Text: "Pícara sigilosa", Priority: 1},
		{ID: "b", Title: "Otro", Text: "dragón", Priority: 1},
	}
	snips := NewRetriever(nil).Rank("¿Qué sabe Mirela del dragón sigilosa?", "", docs)
	require.Len(t, snips, 2)
	// a: 1 + 20 title + 6 "sigilosa"; the title is not part of the text
	assert.Equal(t, "a", snips[0].ID)
	assert.Equal(t, 27, snips[0].Score)
	// b: 1 + 6 "dragon"
	assert.Equal(t, 7, snips[1].Score)
}

func TestRank_StableAndTopK(t *testing.T) {
	var docs []Document
	for _, id := range []string{"a", "b", "c", "d"} {
		docs = append(docs, Document{ID: id, Title: id, Text: "nada", Priority: AlwaysRelevant})
	}
	snips := NewRetriever(&RetrieverConfig{TopK: 3, MaxExcerpt: 2}).Rank("hola", "", docs)
	require.Len(t, snips, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snips[0].ID, snips[1].ID, snips[2].ID})
	assert.Equal(t, "na", snips[0].Excerpt)
}

func TestRank_ExcerptIsRuneCapped(t *testing.T) {
	docs := []Document{{ID: "a", Title: "x", Text: strings.Repeat("ñ", 900), Priority: AlwaysRelevant}}
	snips := NewRetriever(nil).Rank("", "", docs)
	require.Len(t, snips, 1)
	assert.Len(t, []rune(snips[0].Excerpt), 700)
}
