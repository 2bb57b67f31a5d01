package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/heuristic"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

func newTestSandbox(cache *SignatureCache) *Sandbox {
	return NewSandbox(cache, heuristic.NewParser(), sheet.NewEngine(), SandboxConfig{Seed: 7})
}

func TestGenerate_DraftShape(t *testing.T) {
	sb := newTestSandbox(nil)
	target := &sheet.Character{ID: "c1", Name: "Kaelden"}

	d := sb.Generate("session", target)
	assert.Equal(t, patch.OperationUpdate, d.Action.Operation)
	assert.Equal(t, "c1", d.Action.CharacterID)

	ip := d.Action.Data.ItemPatch
	require.NotNil(t, ip)
	assert.Equal(t, d.Name, ip.TargetItemName)
	assert.True(t, ip.CreateIfMissing)
	assert.NotEmpty(t, ip.Rarity)
	assert.NotEmpty(t, ip.Description)
	assert.GreaterOrEqual(t, len(ip.AttachmentsAdd), 3)
	assert.LessOrEqual(t, len(ip.AttachmentsAdd), 5)

	types := map[patch.AttachmentType]bool{}
	for _, a := range ip.AttachmentsAdd {
		if a.Type == patch.AttachmentCantrip {
			a.Type = patch.AttachmentSpell
		}
		types[a.Type] = true
	}
	assert.GreaterOrEqual(t, len(types), 3)
	assert.Contains(t, d.Reply, d.Name)
}

func TestGenerate_SurvivesSanitizer(t *testing.T) {
	d := newTestSandbox(nil).Generate("s", &sheet.Character{ID: "c1"})
	actions := patch.SanitizeActions(patch.ToRaw([]patch.Action{d.Action}), "c1")
	require.Len(t, actions, 1)
	require.NotNil(t, actions[0].Data.ItemPatch)
	assert.Len(t, actions[0].Data.ItemPatch.AttachmentsAdd, len(d.Action.Data.ItemPatch.AttachmentsAdd))
}

func TestGenerate_NoImmediateRepeat(t *testing.T) {
	cache := NewSignatureCache(8)
	sb := newTestSandbox(cache)

	prev := ""
	for i := 0; i < 200; i++ {
		d := sb.Generate("session", nil)
		assert.NotEqual(t, prev, d.Name, "generation %d repeated", i)
		assert.GreaterOrEqual(t, d.Attempts, 1)
		prev = d.Name
	}
	sig, ok := cache.Get("session")
	require.True(t, ok)
	assert.Equal(t, signature(prev), sig)
}

func TestGenerate_SessionsAreIndependent(t *testing.T) {
	cache := NewSignatureCache(8)
	sb := newTestSandbox(cache)
	sb.Generate("a", nil)
	sb.Generate("b", nil)
	assert.Equal(t, 2, cache.Len())
}

func TestPreview_NeverTouchesTarget(t *testing.T) {
	sb := newTestSandbox(nil)
	target := &sheet.Character{ID: "c1", Name: "Kaelden", Level: 4}

	p := sb.Preview("level Kaelden up to 5 and learn Fireball", target)
	require.Len(t, p.Simulations, 2)
	for _, sim := range p.Simulations {
		assert.True(t, sim.WouldApply, sim.Message)
	}
	require.NotNil(t, p.Result)
	assert.Equal(t, 5, p.Result.Level)
	assert.Equal(t, 4, target.Level)
	assert.Empty(t, target.Details.Spells)
}

func TestPreview_WithoutTarget(t *testing.T) {
	p := newTestSandbox(nil).Preview("sube a nivel 5", nil)
	assert.Empty(t, p.Actions)
	assert.Nil(t, p.Result)
}
