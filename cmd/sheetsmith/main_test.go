package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/store"
)

func TestSeedDemo(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	demo, err := seedDemo(ctx, st)
	require.NoError(t, err)
	require.NotEmpty(t, demo.CampaignID)

	chars, err := st.ListCharacters(ctx, demo.CampaignID)
	require.NoError(t, err)
	assert.Len(t, chars, 2)

	members, err := st.ListMembers(ctx, demo.CampaignID)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	notes, err := st.ListNotes(ctx, demo.CampaignID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

// A player training against the seeded campaign never changes the database.
func TestSeedDemo_TrainingLeavesSheetsAlone(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	demo, err := seedDemo(ctx, st)
	require.NoError(t, err)
	before, err := st.ListCharacters(ctx, demo.CampaignID)
	require.NoError(t, err)

	svc := assistant.NewService(st, assistant.WithCommunity(st))
	resp, err := svc.Handle(ctx, assistant.Request{
		CampaignID:        demo.CampaignID,
		UserID:            "u1",
		Prompt:            "genera un reto",
		TargetCharacterID: demo.Characters[0].ID,
		Mode:              assistant.ModeTraining,
		TrainingSubmode:   assistant.SubmodeSandbox,
	})
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.NotEmpty(t, resp.ProposedActions)

	after, err := st.ListCharacters(ctx, demo.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	docs, err := st.CommunityExamples(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadPrompt(t *testing.T) {
	got, err := readPrompt(nil, []string{"sube", "a", "nivel", "5"}, "")
	require.NoError(t, err)
	assert.Equal(t, "sube a nivel 5", got)

	got, err = readPrompt(strings.NewReader("Cuerda Feérica\nbrilla"), nil, "-")
	require.NoError(t, err)
	assert.Equal(t, "Cuerda Feérica\nbrilla", got)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("desde archivo"), 0644))
	got, err = readPrompt(nil, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "desde archivo", got)

	_, err = readPrompt(nil, nil, "")
	assert.Error(t, err)
}

func TestFormatResults(t *testing.T) {
	out := formatResults([]assistant.MutationResult{
		{Operation: patch.OperationUpdate, CharacterID: "c1", Status: assistant.StatusApplied, Message: "level set"},
		{Operation: patch.OperationCreate, Status: assistant.StatusSkipped, Message: "dry run"},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "applied")
	assert.Contains(t, lines[0], "c1")
	assert.Contains(t, lines[1], "new")
	assert.Contains(t, lines[1], "dry run")
}

func TestFormatActions(t *testing.T) {
	assert.Contains(t, formatActions(nil), "no changes")

	out := formatActions([]patch.Action{{
		Operation: patch.OperationUpdate,
		Data:      patch.ActionData{ItemPatch: &patch.ItemPatch{TargetItemName: "Cuerda Feérica"}},
	}})
	assert.Equal(t, "1. update item Cuerda Feérica", out)
}

func TestRenderResponse_JSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	var buf bytes.Buffer
	resp := &assistant.Response{
		Reply:           "hecho",
		ProposedActions: []patch.Action{},
		Results:         []assistant.MutationResult{},
		Permissions:     assistant.Permissions{Role: sheet.RoleDM, CanManageAllCharacters: true},
	}
	require.NoError(t, renderResponse(&buf, resp))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"reply", "proposedActions", "applied", "provider", "intent", "rag", "results", "permissions"} {
		assert.Contains(t, decoded, key)
	}
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{
		"seed", "--json",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "demo.db"),
	})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		jsonOutput = false
		dbPath = ""
	}()

	require.NoError(t, rootCmd.Execute())

	var demo demoCampaign
	require.NoError(t, json.Unmarshal(buf.Bytes(), &demo))
	assert.Equal(t, "La Marca del Este", demo.CampaignName)
	assert.Len(t, demo.Characters, 2)
}
