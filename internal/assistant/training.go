package assistant

import (
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/training"
)

// challengeWords ask the sandbox for a freshly generated item.
var challengeWords = []string{
	"reto", "desafio", "challenge", "genera", "generate", "nuevo", "nueva", "new", "otro", "otra", "another", "sorprendeme", "surprise",
}

func wantsChallenge(prompt string) bool {
	norm := textmatch.Normalize(prompt)
	for _, w := range challengeWords {
		if textmatch.ContainsWord(norm, w) {
			return true
		}
	}
	return false
}

// train handles practice requests. Nothing here reaches the store; every
// result is skipped.
func (t *turn) train(target *sheet.Character) *Response {
	t.resp.Provider = ProviderTraining

	switch t.req.TrainingSubmode {
	case SubmodeSandbox:
		if wantsChallenge(t.req.Prompt) || target == nil {
			t.sandboxChallenge(target)
		} else {
			t.sandboxPreview(target)
		}
	default:
		c := training.Coach(t.req.Prompt)
		t.resp.Reply = c.Reply
	}
	return t.resp
}

func (t *turn) sandboxChallenge(target *sheet.Character) {
	session := t.req.SessionID
	if session == "" {
		session = t.req.UserID
	}
	draft := t.sandbox.Generate(session, target)
	t.resp.Reply = draft.Reply
	t.resp.ProposedActions = sanitizeActions(patch.ToRaw([]patch.Action{draft.Action}), targetID(target))
	for _, a := range t.resp.ProposedActions {
		t.resp.Results = append(t.resp.Results, MutationResult{
			Operation:   a.Operation,
			CharacterID: a.CharacterID,
			Status:      StatusSkipped,
			Message:     fmt.Sprintf("sandbox draft %s, not applied", draft.Name),
		})
	}
}

func (t *turn) sandboxPreview(target *sheet.Character) {
	preview := t.sandbox.Preview(t.req.Prompt, target)
	t.resp.ProposedActions = sanitizeActions(patch.ToRaw(preview.Actions), target.ID)
	for _, sim := range preview.Simulations {
		msg := "preview: " + sim.Message
		if !sim.WouldApply {
			msg = "preview, would not apply: " + sim.Message
		}
		t.resp.Results = append(t.resp.Results, MutationResult{
			Operation:   sim.Action.Operation,
			CharacterID: sim.Action.CharacterID,
			Status:      StatusSkipped,
			Message:     msg,
		})
	}
	t.resp.Reply = preview.Reply
	if t.resp.Reply == "" {
		t.resp.Reply = summarize(t.resp)
	}
}
