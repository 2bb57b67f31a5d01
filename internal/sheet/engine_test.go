package sheet

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func testEngine() *Engine { return NewEngine(WithIDGenerator(seqIDs())) }

func sampleDetails() *Details {
	return &Details{
		Inventory: []Item{
			{ID: "dagger", Name: "Silver Dagger", Category: "weapon", Equipped: true},
			{ID: "cloak", Name: "Cloak of Shadows", Category: "wondrous"},
		},
		Spells: map[string][]LearnedSpell{
			"level1": {{Name: "Shield", Index: "shield"}},
		},
		Fields: map[string]string{"eyes": "green"},
	}
}

func TestApplyLearnedSpell_ForgetMissingLeavesDocumentUnchanged(t *testing.T) {
	e := testEngine()
	d := sampleDetails()
	snapshot := d.Clone()

	out := e.ApplyLearnedSpell(d, &patch.LearnedSpellPatch{Action: patch.ForgetSpell, SpellLevel: 3, SpellName: "Fireball"})

	assert.False(t, out.Applied)
	assert.Contains(t, out.Message, "not found")
	assert.Nil(t, out.Details)
	if diff := cmp.Diff(snapshot, d); diff != "" {
		t.Errorf("document changed (-want +got):\n%s", diff)
	}
}

func TestApplyLearnedSpell_LearnAndForget(t *testing.T) {
	e := testEngine()
	d := sampleDetails()

	out := e.ApplyLearnedSpell(d, &patch.LearnedSpellPatch{Action: patch.LearnSpell, SpellLevel: 3, SpellName: "Fireball"})
	require.True(t, out.Applied, out.Message)
	assert.Equal(t, []LearnedSpell{{Name: "Fireball"}}, out.Details.Spells["level3"])
	assert.Empty(t, d.Spells["level3"], "input must not be mutated")

	again := e.ApplyLearnedSpell(out.Details, &patch.LearnedSpellPatch{Action: patch.LearnSpell, SpellLevel: 3, SpellName: "fireball"})
	assert.False(t, again.Applied)
	assert.Contains(t, again.Message, "already known")

	forgot := e.ApplyLearnedSpell(out.Details, &patch.LearnedSpellPatch{Action: patch.ForgetSpell, SpellLevel: 1, SpellIndex: "SHIELD"})
	require.True(t, forgot.Applied)
	assert.Empty(t, forgot.Details.Spells["level1"])
}

func TestApplyItem_NotFoundAndCreate(t *testing.T) {
	e := testEngine()
	d := sampleDetails()

	out := e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Warhammer", Equipped: boolp(true)})
	assert.False(t, out.Applied)
	assert.Contains(t, out.Message, "not found")

	out = e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cuerda Feérica (15 m) – 35 po", CreateIfMissing: true})
	require.True(t, out.Applied)
	created := out.Details.Inventory[2]
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Cuerda Feérica (15 m)", created.Name)
	assert.Equal(t, "35 po", created.Price)
	assert.Equal(t, "misc", created.Category)
	assert.False(t, created.Equipped)
	assert.Len(t, d.Inventory, 2)
}

func TestApplyItem_FuzzyLookupAndNoChanges(t *testing.T) {
	e := testEngine()
	d := sampleDetails()

	out := e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "dagger silver", MagicBonus: intp(1)})
	require.True(t, out.Applied, out.Message)
	assert.Equal(t, 1, out.Details.Inventory[0].MagicBonus)

	out = e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Silver Dagger", Equipped: boolp(true)})
	assert.False(t, out.Applied)
	assert.Contains(t, out.Message, "no concrete changes")
}

func TestApplyItem_CreateIfMissingDisablesFuzzy(t *testing.T) {
	e := testEngine()
	out := e.ApplyItem(sampleDetails(), &patch.ItemPatch{TargetItemName: "Dagger Silver", CreateIfMissing: true})
	require.True(t, out.Applied)
	assert.Len(t, out.Details.Inventory, 3)
}

func TestApplyItem_AttachmentIdentity(t *testing.T) {
	e := testEngine()
	add := func(d *Details, a patch.Attachment) *Details {
		out := e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cloak of Shadows", AttachmentsAdd: []patch.Attachment{a}})
		require.True(t, out.Applied, out.Message)
		return out.Details
	}
	d := add(sampleDetails(), patch.Attachment{Type: patch.AttachmentTrait, Name: "Umbral Step", Description: "old", Range: "30 ft"})
	d = add(d, patch.Attachment{Type: patch.AttachmentTrait, Name: "umbral  STEP", Description: "new"})

	atts := d.Inventory[1].Attachments
	require.Len(t, atts, 1)
	assert.Equal(t, "new", atts[0].Description)
	assert.Equal(t, "30 ft", atts[0].Range, "unset fields keep earlier values")
	assert.Equal(t, "id-1", atts[0].ID)

	same := e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cloak of Shadows", AttachmentsAdd: []patch.Attachment{{Type: patch.AttachmentTrait, Name: "Umbral Step"}}})
	assert.False(t, same.Applied)
}

func TestApplyItem_ClearReplaceAdd(t *testing.T) {
	e := testEngine()
	d := add2(t, e)
	out := e.ApplyItem(d, &patch.ItemPatch{
		TargetItemName:     "Cloak of Shadows",
		ClearAttachments:   true,
		AttachmentsReplace: []patch.Attachment{{Type: patch.AttachmentAction, Name: "Hide"}, {Type: patch.AttachmentAction, Name: "hide", Effect: "invisible"}},
		AttachmentsAdd:     []patch.Attachment{{Name: "Whisper"}},
	})
	require.True(t, out.Applied)
	atts := out.Details.Inventory[1].Attachments
	require.Len(t, atts, 2)
	assert.Equal(t, "hide-id", atts[0].ID, "replace keeps ids of matching keys")
	assert.Equal(t, "invisible", atts[0].Effect)
	assert.Equal(t, patch.AttachmentOther, atts[1].Type)
}

func add2(t *testing.T, e *Engine) *Details {
	t.Helper()
	d := sampleDetails()
	d.Inventory[1].Attachments = []patch.Attachment{
		{ID: "hide-id", Type: patch.AttachmentAction, Name: "Hide"},
		{ID: "old-id", Type: patch.AttachmentTrait, Name: "Old"},
	}
	return d
}

func TestApplyItem_DescriptionNeverRestatesAttachments(t *testing.T) {
	e := testEngine()
	out := e.ApplyItem(sampleDetails(), &patch.ItemPatch{
		TargetItemName:  "Staff of Embers",
		CreateIfMissing: true,
		Description:     "A charred staff.\nRange: 60 ft\nCasts Ember Bolt.",
		AttachmentsAdd: []patch.Attachment{{
			Type: patch.AttachmentSpell, Name: "Ember Bolt", Range: "60 ft",
			Damage: &patch.Damage{Dice: "2d6", DamageType: "fire"},
		}},
	})
	require.True(t, out.Applied)
	assert.Equal(t, "A charred staff.", out.Details.Inventory[2].Description)
}

func TestApplyItem_UnrelatedPatchKeepsStoredDescription(t *testing.T) {
	e := testEngine()
	d := sampleDetails()
	d.Inventory[1].Description = "A dark cloak.\nGrants Umbral Step."
	d.Inventory[1].Attachments = []patch.Attachment{{ID: "step", Type: patch.AttachmentTrait, Name: "Umbral Step"}}

	out := e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cloak of Shadows", Category: "wondrous"})
	assert.False(t, out.Applied)
	assert.Contains(t, out.Message, "no concrete changes")

	out = e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cloak of Shadows", Rarity: "rare"})
	require.True(t, out.Applied, out.Message)
	assert.Equal(t, "A dark cloak.\nGrants Umbral Step.", out.Details.Inventory[1].Description)

	out = e.ApplyItem(d, &patch.ItemPatch{TargetItemName: "Cloak of Shadows", Description: "A dark cloak.\nGrants Umbral Step."})
	require.True(t, out.Applied, out.Message)
	assert.Equal(t, "A dark cloak.", out.Details.Inventory[1].Description)
}

func TestApplyItem_Configurations(t *testing.T) {
	e := testEngine()
	d := sampleDetails()
	d.Inventory[0].Configurations = []Configuration{{ID: "cfg-a", Name: "Mode A"}, {ID: "cfg-b", Name: "Mode B"}}
	d.Inventory[0].ActiveConfigurationID = "cfg-b"

	out := e.ApplyItem(d, &patch.ItemPatch{
		TargetItemName: "Silver Dagger",
		ConfigurationsReplace: []patch.ConfigurationPatch{
			{Name: "mode a", MagicBonus: intp(2)},
			{Name: "Mode C", Attachments: []patch.Attachment{{Type: patch.AttachmentAction, Name: "Lunge"}}},
		},
	})
	require.True(t, out.Applied)
	item := out.Details.Inventory[0]
	require.Len(t, item.Configurations, 2)
	assert.Equal(t, "cfg-a", item.Configurations[0].ID)
	assert.Equal(t, "id-1", item.Configurations[1].ID)
	assert.Equal(t, "cfg-a", item.ActiveConfigurationID, "missing active id falls back to the first configuration")

	out = e.ApplyItem(out.Details, &patch.ItemPatch{TargetItemName: "Silver Dagger", ActiveConfiguration: "Mode C"})
	require.True(t, out.Applied)
	assert.Equal(t, "id-1", out.Details.Inventory[0].ActiveConfigurationID)
}

func TestApplyCustomSpell(t *testing.T) {
	e := testEngine()
	d := sampleDetails()

	out := e.ApplyCustomSpell(d, &patch.CustomSpellPatch{CustomEntry: patch.CustomEntry{Attachment: patch.Attachment{Name: "Spark", Level: intp(0)}}})
	assert.False(t, out.Applied, "creation requires create_if_missing")

	out = e.ApplyCustomSpell(d, &patch.CustomSpellPatch{CustomEntry: patch.CustomEntry{
		Attachment:      patch.Attachment{Name: "Spark", Level: intp(0), Range: "30 ft"},
		CreateIfMissing: true,
	}})
	require.True(t, out.Applied)
	require.Len(t, out.Details.CustomCantrips, 1)
	assert.Empty(t, out.Details.CustomSpells)

	upd := e.ApplyCustomSpell(out.Details, &patch.CustomSpellPatch{CustomEntry: patch.CustomEntry{
		Attachment: patch.Attachment{Name: "spark", Duration: "1 round"},
	}})
	require.True(t, upd.Applied)
	assert.Equal(t, "30 ft", upd.Details.CustomCantrips[0].Range)
	assert.Equal(t, "1 round", upd.Details.CustomCantrips[0].Duration)

	rm := e.ApplyCustomSpell(upd.Details, &patch.CustomSpellPatch{CustomEntry: patch.CustomEntry{Attachment: patch.Attachment{Name: "Spark"}, Remove: true}})
	require.True(t, rm.Applied)
	assert.Empty(t, rm.Details.CustomCantrips)

	missing := e.ApplyCustomSpell(rm.Details, &patch.CustomSpellPatch{CustomEntry: patch.CustomEntry{Attachment: patch.Attachment{Name: "Spark"}, Remove: true}})
	assert.False(t, missing.Applied)
	assert.Contains(t, missing.Message, "not found")
}

func TestApplyCustomFeature_InfersCollection(t *testing.T) {
	e := testEngine()
	out := e.ApplyCustomFeature(sampleDetails(), &patch.CustomFeaturePatch{CustomEntry: patch.CustomEntry{
		Attachment:      patch.Attachment{Name: "Channel Divinity: Radiance"},
		CreateIfMissing: true,
	}})
	require.True(t, out.Applied)
	assert.Len(t, out.Details.CustomClassAbilities, 1)
}

func TestApplyAction(t *testing.T) {
	e := testEngine()
	c := &Character{ID: "c1", Name: "Kaelden", Level: 4, MaxHP: 30, CurrentHP: 30, Stats: patch.Stats{"str": 12}, Details: *sampleDetails()}

	eyes := "grey"
	next, out := e.ApplyAction(c, &patch.ActionData{
		Level:        intp(5),
		Stats:        patch.Stats{"str": 30},
		DetailsPatch: map[string]*string{"eyes": &eyes, "hair": nil},
		LearnedSpellPatch: &patch.LearnedSpellPatch{
			Action: patch.LearnSpell, SpellLevel: 3, SpellName: "Fireball",
		},
	})
	require.True(t, out.Applied, out.Message)
	assert.Equal(t, 5, next.Level)
	assert.Equal(t, 30, next.Stats["str"])
	assert.Equal(t, "grey", next.Details.Fields["eyes"])
	assert.Len(t, next.Details.Spells["level3"], 1)
	assert.Equal(t, 4, c.Level)
	assert.Equal(t, 12, c.Stats["str"])

	same, out := e.ApplyAction(next, &patch.ActionData{Level: intp(5)})
	assert.False(t, out.Applied)
	assert.Same(t, next, same)
}

func TestDetailsJSONRoundTrip(t *testing.T) {
	in := `{"inventory":[{"id":"a","name":"Rope","category":"gear","equipped":false}],"customTraits":[{"id":"t","name":"Darkvision"}],"spells":{"level0":[{"name":"Light"}]},"eyes":"blue","coins":{"gp":12}}`
	var d Details
	require.NoError(t, json.Unmarshal([]byte(in), &d))
	assert.Equal(t, "blue", d.Fields["eyes"])
	assert.JSONEq(t, `{"gp":12}`, string(d.Extra["coins"]))
	assert.Len(t, d.CustomTraits, 1)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}
