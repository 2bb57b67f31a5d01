package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/Marpuchy/dnd-manager-sub001/internal/intent"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/perception"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

func request(user, prompt string) Request {
	return Request{CampaignID: "camp", UserID: user, SessionID: "sess", Prompt: prompt}
}

func statuses(results []MutationResult) []Status {
	out := make([]Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

func boolPtr(v bool) *bool { return &v }

func TestHandle_Validation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Handle(ctx, request("u1", "   "))
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = svc.Handle(ctx, request("u1", strings.Repeat("á", MaxPromptRunes+1)))
	assert.ErrorIs(t, err, ErrPromptTooLong)

	_, err = svc.Handle(ctx, Request{Prompt: "hola"})
	assert.ErrorIs(t, err, ErrMissingContext)

	_, err = svc.Handle(ctx, request("stranger", "sube a Kaelden a nivel 5"))
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestHandle_Capabilities(t *testing.T) {
	planner := &fakePlanner{provider: "gemini"}
	resp, err := NewService(newFakeStore(), WithPlanner(planner)).Handle(context.Background(), request("dm", "What can you do?"))
	require.NoError(t, err)
	assert.Equal(t, intent.Capabilities, resp.Intent)
	assert.Contains(t, resp.Reply, "As DM")
	assert.Empty(t, resp.ProposedActions)
	assert.Equal(t, Permissions{Role: sheet.RoleDM, CanManageAllCharacters: true}, resp.Permissions)
	assert.Zero(t, planner.calls)
}

func TestHandle_StrongHeuristicSkipsModel(t *testing.T) {
	store := newFakeStore()
	planner := &fakePlanner{provider: "gemini"}
	req := request("u1", "Cuerda Feérica (15 m) – 35 po\nNo hace ruido\nAntorcha Eterna – 10 po\nNunca se apaga\ncrea estos 2 objetos")
	req.TargetCharacterID = "c1"

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, planner.calls)
	assert.Equal(t, ProviderHeuristic, resp.Provider)
	assert.True(t, resp.Applied)
	require.Len(t, resp.ProposedActions, 2)
	assert.Equal(t, []Status{StatusApplied, StatusApplied}, statuses(resp.Results))

	require.Len(t, store.saved, 2)
	last := store.saved[1]
	require.Len(t, last.Details.Inventory, 2)
	assert.Equal(t, "Cuerda Feérica (15 m)", last.Details.Inventory[0].Name)
	assert.Equal(t, "Antorcha Eterna", last.Details.Inventory[1].Name)
}

func TestHandle_ModelPlanIsSanitizedAndApplied(t *testing.T) {
	store := newFakeStore()
	planner := &fakePlanner{provider: "gemini", reply: "Kaelden sube a nivel 5.", actions: []any{
		action("update", "", map[string]any{"level": float64(5), "stats": map[string]any{"str": float64(45)}}),
		"not an action",
	}}

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), request("u1", "sube a Kaelden a nivel 5 y fuerza 45"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, intent.Mutation, resp.Intent)
	assert.Equal(t, "Kaelden sube a nivel 5.", resp.Reply)
	require.Len(t, resp.ProposedActions, 1)
	assert.Equal(t, "c1", resp.ProposedActions[0].CharacterID)

	require.Len(t, store.saved, 1)
	assert.Equal(t, 5, store.saved[0].Level)
	assert.Equal(t, 30, store.saved[0].Stats["str"])

	require.NotEmpty(t, resp.RAG)
	assert.Equal(t, retrieval.CharacterDocID("c1"), resp.RAG[0].ID)
	assert.Equal(t, perception.SystemPrompt, planner.last.System)
	assert.Equal(t, "c1", gjson.Get(planner.last.User, "context.target_character.id").String())
	assert.Equal(t, "player", gjson.Get(planner.last.User, "context.permissions.role").String())
	// players are only offered their own characters
	assert.Equal(t, int64(1), gjson.Get(planner.last.User, "context.characters.#").Int())
}

func TestHandle_PrivateNotesHiddenFromPlayers(t *testing.T) {
	planner := &fakePlanner{provider: "groq", reply: "ok"}
	resp, err := NewService(newFakeStore(), WithPlanner(planner)).Handle(context.Background(), request("u1", "quien es la heredera? Secreto"))
	require.NoError(t, err)
	for _, s := range resp.RAG {
		assert.NotEqual(t, "note:n1", s.ID)
	}

	resp, err = NewService(newFakeStore(), WithPlanner(planner)).Handle(context.Background(), request("dm", "quien es la heredera? Secreto"))
	require.NoError(t, err)
	var ids []string
	for _, s := range resp.RAG {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "note:n1")
}

func TestHandle_OtherPlayersSheetsStayOutOfContext(t *testing.T) {
	planner := &fakePlanner{provider: "groq", reply: "ok"}
	ids := func(resp *Response) []string {
		var out []string
		for _, s := range resp.RAG {
			out = append(out, s.ID)
		}
		return out
	}

	resp, err := NewService(newFakeStore(), WithPlanner(planner)).Handle(context.Background(), request("u1", "como va Mira la Rogue?"))
	require.NoError(t, err)
	assert.NotContains(t, ids(resp), retrieval.CharacterDocID("c2"))

	resp, err = NewService(newFakeStore(), WithPlanner(planner)).Handle(context.Background(), request("dm", "como va Mira la Rogue?"))
	require.NoError(t, err)
	assert.Contains(t, ids(resp), retrieval.CharacterDocID("c2"))
}

func TestHandle_ModelFailureFallsBackToHeuristic(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	store := newFakeStore()
	planner := &fakePlanner{err: errors.New("all model providers failed")}

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), request("u1", "level Kaelden up to 5 and learn Fireball"))
	require.NoError(t, err)
	assert.Equal(t, 1, planner.calls)
	assert.Equal(t, ProviderHeuristic, resp.Provider)
	assert.Equal(t, []Status{StatusApplied, StatusApplied}, statuses(resp.Results))

	final := store.saved[len(store.saved)-1]
	assert.Equal(t, 5, final.Level)
	require.Len(t, final.Details.Spells["level3"], 1)
	assert.Equal(t, "Fireball", final.Details.Spells["level3"][0].Name)
}

func TestHandle_NoProvidersForChatIsAnError(t *testing.T) {
	_, err := NewService(newFakeStore()).Handle(context.Background(), request("u1", "hola, que tal la partida de ayer?"))
	assert.ErrorIs(t, err, perception.ErrNoProviders)
}

func TestHandle_DryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	planner := &fakePlanner{provider: "openai", actions: []any{
		action("update", "c1", map[string]any{"level": float64(5)}),
	}}
	req := request("u1", "sube a Kaelden a nivel 5")
	req.Apply = boolPtr(false)

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.Zero(t, store.writes())
	require.Len(t, resp.Results, 1)
	assert.Equal(t, StatusSkipped, resp.Results[0].Status)
	assert.True(t, strings.HasPrefix(resp.Results[0].Message, "dry run"))
}

func TestHandle_Permissions(t *testing.T) {
	store := newFakeStore()
	planner := &fakePlanner{provider: "gemini", actions: []any{
		action("update", "c2", map[string]any{"level": float64(3)}),
		action("update", "c1", map[string]any{"owner_id": "u2"}),
		action("update", "ghost", map[string]any{"level": float64(3)}),
	}}

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), request("u1", "sube a Mira a nivel 3"))
	require.NoError(t, err)
	want := []Status{StatusBlocked, StatusBlocked, StatusSkipped}
	if diff := cmp.Diff(want, statuses(resp.Results)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, resp.Applied)
	assert.Zero(t, store.writes())
}

func TestHandle_OwnerAssignmentByDM(t *testing.T) {
	store := newFakeStore()
	planner := &fakePlanner{provider: "gemini", actions: []any{
		action("create", "", map[string]any{"name": "Grub", "owner_id": "stranger"}),
		action("create", "", map[string]any{"name": "Grub", "owner_id": "u1", "class": "Fighter"}),
		action("create", "", map[string]any{"name": "Eco"}),
	}}

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), request("dm", "crea a Grub para el jugador u1"))
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusBlocked, StatusApplied, StatusApplied}, statuses(resp.Results))
	require.Len(t, store.created, 2)
	assert.Equal(t, "u1", store.created[0].OwnerID)
	assert.Equal(t, "camp", store.created[0].CampaignID)
	assert.Equal(t, "dm", store.created[1].OwnerID)
	assert.Equal(t, store.created[0].ID, resp.Results[1].CharacterID)
}

func TestHandle_PersistenceFailureDoesNotStopBatch(t *testing.T) {
	store := newFakeStore()
	store.failSaves = 1
	planner := &fakePlanner{provider: "gemini", actions: []any{
		action("update", "c1", map[string]any{"level": float64(5)}),
		action("update", "c1", map[string]any{"armor_class": float64(15)}),
	}}

	resp, err := NewService(store, WithPlanner(planner)).Handle(context.Background(), request("u1", "sube a Kaelden a nivel 5 y CA 15"))
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusError, StatusApplied}, statuses(resp.Results))
	assert.Contains(t, resp.Results[0].Message, "disk full")
	assert.True(t, resp.Applied)
}

func TestHandle_ConfirmPathAndCommunityLearning(t *testing.T) {
	store := newFakeStore()
	community := newFakeCommunity()
	planner := &fakePlanner{provider: "gemini"}
	req := request("u1", "sube a nivel 6")
	req.ProposedActions = []any{action("update", "c1", map[string]any{"level": float64(6)})}
	req.OriginalProposedActions = []any{action("update", "c1", map[string]any{"level": float64(5)})}
	req.UserEditedProposal = true

	resp, err := NewService(store, WithPlanner(planner), WithCommunity(community)).Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, planner.calls)
	assert.Equal(t, ProviderConfirm, resp.Provider)
	assert.True(t, resp.Applied)
	assert.Equal(t, 6, store.saved[0].Level)

	require.Len(t, community.recorded, 1)
	rec := community.recorded[0]
	assert.True(t, rec.Edited)
	assert.Equal(t, "sube a nivel 6", rec.Prompt)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, patch.OperationUpdate, rec.Actions[0].Operation)
}

func TestHandle_CommunityLearningDisabled(t *testing.T) {
	community := newFakeCommunity()
	req := request("u1", "sube a nivel 6")
	req.ProposedActions = []any{action("update", "c1", map[string]any{"level": float64(6)})}

	svc := NewService(newFakeStore(), WithCommunity(community), WithConfig(ServiceConfig{CommunityLearning: false}))
	_, err := svc.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, community.recorded)
}

func TestHandle_TrainingNeverMutates(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		actions int
	}{
		{"coach", func(r *Request) { r.Prompt = "quiero una espada de fuego" }, 0},
		{"sandbox challenge", func(r *Request) {
			r.Prompt = "dame un reto nuevo"
			r.TrainingSubmode = SubmodeSandbox
		}, 1},
		{"sandbox preview", func(r *Request) {
			r.Prompt = "level Kaelden up to 5 and learn Fireball"
			r.TrainingSubmode = SubmodeSandbox
		}, 2},
		{"confirm in training", func(r *Request) {
			r.Prompt = "sube a nivel 6"
			r.ProposedActions = []any{action("update", "c1", map[string]any{"level": float64(6)})}
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			community := newFakeCommunity()
			req := request("u1", "")
			req.Mode = ModeTraining
			req.TargetCharacterID = "c1"
			req.Apply = boolPtr(true)
			tt.mutate(&req)

			resp, err := NewService(store, WithCommunity(community)).Handle(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, resp.Applied)
			assert.Zero(t, store.writes())
			assert.Empty(t, community.recorded)
			assert.Len(t, resp.ProposedActions, tt.actions)
			assert.NotEmpty(t, resp.Reply)
			for _, r := range resp.Results {
				assert.NotEqual(t, StatusApplied, r.Status)
			}
		})
	}
}

func TestHandle_SandboxDraftsDoNotRepeat(t *testing.T) {
	svc := NewService(newFakeStore())
	req := request("u1", "otro reto")
	req.Mode = ModeTraining
	req.TrainingSubmode = SubmodeSandbox
	req.TargetCharacterID = "c1"

	prev := ""
	for i := 0; i < 20; i++ {
		resp, err := svc.Handle(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, resp.ProposedActions, 1)
		name := resp.ProposedActions[0].Data.ItemPatch.TargetItemName
		assert.NotEqual(t, prev, name)
		prev = name
	}
}

func newFakeCommunity() *fakeCommunity {
	return &fakeCommunity{docs: []retrieval.Document{{
		ID: "community:1", SourceType: retrieval.SourceCommunity, Title: "Espada",
		Text: "crea una espada +1\n=> item_patch", Priority: retrieval.PriorityCommunity,
	}}}
}
