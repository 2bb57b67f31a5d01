package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCampaign(t *testing.T, s *SQLiteStore) *sheet.Campaign {
	t.Helper()
	ctx := context.Background()
	c := &sheet.Campaign{Name: "La Marca del Este", OwnerID: "dm"}
	require.NoError(t, s.CreateCampaign(ctx, c))
	require.NotEmpty(t, c.ID)
	return c
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := openTestStore(t)

	v, err := SchemaVersion(s.DB())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
	assert.True(t, columnExists(s.DB(), "community_examples", "edited"))

	// Running again is a no-op.
	n, err := RunMigrations(s.DB())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunMigrations_AddsMissingColumn(t *testing.T) {
	s := openTestStore(t)
	_, err := s.DB().Exec(`DROP TABLE community_examples`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`CREATE TABLE community_examples (
		id TEXT PRIMARY KEY, campaign_id TEXT, prompt TEXT, actions TEXT, provider TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	n, err := RunMigrations(s.DB())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, columnExists(s.DB(), "community_examples", "edited"))
}

func TestCampaign_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetCampaign(context.Background(), "nope")
	assert.ErrorIs(t, err, assistant.ErrNotFound)
}

func TestMembers_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	camp := seedCampaign(t, s)

	require.NoError(t, s.AddMember(ctx, sheet.Membership{CampaignID: camp.ID, UserID: "u1", Role: sheet.RolePlayer}))
	require.NoError(t, s.AddMember(ctx, sheet.Membership{CampaignID: camp.ID, UserID: "u2", Role: sheet.RolePlayer}))
	require.NoError(t, s.AddMember(ctx, sheet.Membership{CampaignID: camp.ID, UserID: "u1", Role: sheet.RoleDM}))

	members, err := s.ListMembers(ctx, camp.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].UserID)
	assert.Equal(t, sheet.RoleDM, members[0].Role)
	assert.Equal(t, sheet.RolePlayer, members[1].Role)
}

func TestNotes_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	camp := seedCampaign(t, s)

	require.NoError(t, s.AddNote(ctx, &sheet.Note{CampaignID: camp.ID, AuthorID: "dm", Title: "Secreto", Body: "x", Private: true}))
	require.NoError(t, s.AddNote(ctx, &sheet.Note{CampaignID: camp.ID, AuthorID: "u1", Title: "Diario", Body: "y"}))

	notes, err := s.ListNotes(ctx, camp.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	byTitle := map[string]sheet.Note{}
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	assert.True(t, byTitle["Secreto"].Private)
	assert.False(t, byTitle["Diario"].Private)
}

func TestCharacter_RoundTripKeepsUnknownDetails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	camp := seedCampaign(t, s)

	c := &sheet.Character{
		CampaignID: camp.ID,
		OwnerID:    "u1",
		Name:       "Kaelden",
		Class:      "Wizard",
		Level:      4,
		MaxHP:      20,
		CurrentHP:  18,
		Stats:      patch.Stats{"int": 17},
		Details: sheet.Details{
			Inventory: []sheet.Item{{ID: "i1", Name: "Bastón", Category: "weapon"}},
			Spells:    map[string][]sheet.LearnedSpell{"level1": {{Name: "Magic Missile"}}},
			Extra:     map[string]json.RawMessage{"homebrew": json.RawMessage(`{"x":1}`)},
		},
	}
	require.NoError(t, s.CreateCharacter(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetCharacter(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kaelden", got.Name)
	assert.Equal(t, 18, got.CurrentHP)
	assert.Equal(t, 17, got.Stats["int"])
	require.Len(t, got.Details.Inventory, 1)
	assert.Equal(t, "Bastón", got.Details.Inventory[0].Name)
	assert.Equal(t, "Magic Missile", got.Details.Spells["level1"][0].Name)
	assert.JSONEq(t, `{"x":1}`, string(got.Details.Extra["homebrew"]))
}

func TestCharacter_SaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	camp := seedCampaign(t, s)

	a := &sheet.Character{CampaignID: camp.ID, Name: "Mira", Level: 2}
	b := &sheet.Character{CampaignID: camp.ID, Name: "Kaelden", Level: 4}
	require.NoError(t, s.CreateCharacter(ctx, a))
	require.NoError(t, s.CreateCharacter(ctx, b))

	b.Level = 5
	b.OwnerID = "u1"
	require.NoError(t, s.SaveCharacter(ctx, b))

	list, err := s.ListCharacters(ctx, camp.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Kaelden", list[0].Name)
	assert.Equal(t, 5, list[0].Level)
	assert.Equal(t, "u1", list[0].OwnerID)

	err = s.SaveCharacter(ctx, &sheet.Character{ID: "ghost", Name: "x"})
	assert.ErrorIs(t, err, assistant.ErrNotFound)

	_, err = s.GetCharacter(ctx, "ghost")
	assert.ErrorIs(t, err, assistant.ErrNotFound)
}
