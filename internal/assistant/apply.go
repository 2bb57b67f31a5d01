package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// execute runs actions in order and records one result per action. When
// write is false nothing reaches the store and every result is a dry run.
// Later actions see the documents produced by earlier ones. A failed write
// does not undo earlier writes.
func (t *turn) execute(ctx context.Context, actions []patch.Action, write bool) {
	docs := make(map[string]*sheet.Character, len(t.snap.characters))
	for i := range t.snap.characters {
		c := &t.snap.characters[i]
		docs[c.ID] = c
	}

	for _, a := range actions {
		res := t.executeOne(ctx, a, docs, write)
		t.audit.Mutation(string(res.Status), res.CharacterID, string(res.Operation), res.Message)
		t.resp.Results = append(t.resp.Results, res)
		if res.Status == StatusApplied {
			t.resp.Applied = true
		}
	}
}

func (t *turn) executeOne(ctx context.Context, a patch.Action, docs map[string]*sheet.Character, write bool) MutationResult {
	res := MutationResult{Operation: a.Operation, CharacterID: a.CharacterID}
	result := func(status Status, format string, args ...any) MutationResult {
		res.Status, res.Message = status, fmt.Sprintf(format, args...)
		return res
	}

	if reason := t.access.checkOwner(&a.Data); reason != "" {
		return result(StatusBlocked, "%s", reason)
	}

	if a.Operation == patch.OperationCreate {
		c := t.engine.NewCharacter(&a.Data)
		c.CampaignID = t.req.CampaignID
		if c.OwnerID == "" {
			c.OwnerID = t.req.UserID
		}
		res.CharacterID = c.ID
		if !write {
			return result(StatusSkipped, "dry run: would create %s", c.Name)
		}
		if err := ctx.Err(); err != nil {
			return result(StatusError, "request cancelled: %v", err)
		}
		if err := t.store.CreateCharacter(ctx, c); err != nil {
			return result(StatusError, "could not create %s: %v", c.Name, err)
		}
		docs[c.ID] = c
		return result(StatusApplied, "created %s", c.Name)
	}

	current, ok := docs[a.CharacterID]
	if !ok {
		return result(StatusSkipped, "character %s not found in this campaign", a.CharacterID)
	}
	if !t.access.canEdit(current) {
		return result(StatusBlocked, "you can only change your own characters")
	}
	next, out := t.engine.ApplyAction(current, &a.Data)
	if !out.Applied {
		return result(StatusSkipped, "%s", out.Message)
	}
	if !write {
		docs[next.ID] = next
		return result(StatusSkipped, "dry run: %s", out.Message)
	}
	if err := ctx.Err(); err != nil {
		return result(StatusError, "request cancelled: %v", err)
	}
	if err := t.store.SaveCharacter(ctx, next); err != nil {
		return result(StatusError, "could not save %s: %v", current.Name, err)
	}
	docs[next.ID] = next
	return result(StatusApplied, "%s", out.Message)
}

// summarize builds a reply from the results when the plan carried none.
func summarize(resp *Response) string {
	if len(resp.Results) == 0 {
		if len(resp.ProposedActions) == 0 {
			return "No changes to make."
		}
		return fmt.Sprintf("%d change(s) proposed.", len(resp.ProposedActions))
	}
	counts := make(map[Status]int)
	var lines []string
	for _, r := range resp.Results {
		counts[r.Status]++
		lines = append(lines, fmt.Sprintf("- [%s] %s", r.Status, r.Message))
	}
	head := fmt.Sprintf("%d of %d change(s) applied.", counts[StatusApplied], len(resp.Results))
	return head + "\n" + strings.Join(lines, "\n")
}

func capabilitiesReply(role sheet.Role) string {
	var b strings.Builder
	b.WriteString("I can change character sheets from plain descriptions:\n")
	b.WriteString("- create or edit items, with traits, actions, embedded spells and alternate modes\n")
	b.WriteString("- create, edit or remove custom spells, cantrips, traits and class abilities\n")
	b.WriteString("- learn or forget spells by level\n")
	b.WriteString("- change level, experience, hit points, armor class, speed and ability scores\n")
	b.WriteString("- fill in background details such as alignment, appearance or backstory\n")
	b.WriteString("- create new characters for the campaign\n")
	b.WriteString("Paste an item block or describe the change and name the character.\n")
	if role.Elevated() {
		b.WriteString("As DM you can change any character and assign characters to players.")
	} else {
		b.WriteString("You can change the characters you own.")
	}
	return b.String()
}
